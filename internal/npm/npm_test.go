package npm

import (
	"context"
	"errors"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playkit-contrib/kcontrib/internal/env"
	"github.com/playkit-contrib/kcontrib/internal/runner"
	"github.com/playkit-contrib/kcontrib/internal/runner/runnertest"
)

func TestInstallArgs(t *testing.T) {
	tests := []struct {
		name string
		opts InstallOptions
		want []string
	}{
		{"manifest", InstallOptions{}, []string{"install", "--loglevel", "error"}},
		{"runtime exact", InstallOptions{Packages: []string{"classnames"}, Exact: true},
			[]string{"install", "--save", "--save-exact", "--loglevel", "error", "classnames"}},
		{"dev verbose", InstallOptions{Packages: []string{"husky@3.x"}, Dev: true, Verbose: true},
			[]string{"install", "--save-dev", "--verbose", "husky@3.x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InstallArgs(tt.opts))
		})
	}
}

func TestClientCommands(t *testing.T) {
	fake := runnertest.New()
	c := NewClient(fake, env.Vars{"NPM_TOKEN": "t"})
	ctx := context.Background()

	require.NoError(t, c.Install(ctx, "/p", InstallOptions{Packages: []string{"preact"}}))
	require.NoError(t, c.Link(ctx, "/p", "@playkit-js-contrib/ui"))
	require.NoError(t, c.RunScript(ctx, "/p", "build"))
	require.NoError(t, c.RunScript(ctx, "/p", "deploy:publish-to-npm", "--skip-rebuild"))
	require.NoError(t, c.Publish(ctx, "/p", "public"))
	_, err := c.Npx(ctx, "/p", env.Vars{"NODE_ENV": "production"}, "webpack", "--mode", "production")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"npm install --save --loglevel error preact",
		"npm link @playkit-js-contrib/ui",
		"npm run build",
		"npm run deploy:publish-to-npm -- --skip-rebuild",
		"npm publish --access public",
		"npx webpack --mode production",
	}, fake.Lines())
	for _, call := range fake.Calls {
		assert.Equal(t, "/p", call.Dir)
		assert.Equal(t, "t", call.Env["NPM_TOKEN"])
	}
	assert.Equal(t, "production", fake.Calls[5].Env["NODE_ENV"])
}

func TestClientWrapsFailures(t *testing.T) {
	fake := runnertest.New().On("npm install", runnertest.Response{
		Err: &runner.ExitError{Command: "npm install", Code: 1, Stderr: "ERR! 404"},
	})
	err := NewClient(fake, nil).Install(context.Background(), "/p", InstallOptions{Packages: []string{"nope"}})
	require.Error(t, err)
	assert.True(t, runner.IsExitError(err))
	assert.Contains(t, err.Error(), "npm install --save --loglevel error nope")
}

func TestSearch(t *testing.T) {
	fake := runnertest.New().On("npm search", runnertest.Response{Result: runner.Result{Stdout: `[
		{"name":"@playkit-js-contrib/ui","version":"1.2.0"},
		{"name":"@playkit-js-contrib/common","version":"1.2.0"},
		{"name":"@playkit-js-contribution/other","version":"0.1.0"}
	]`}})

	got, err := NewClient(fake, nil).Search(context.Background(), "@playkit-js-contrib")
	require.NoError(t, err)
	assert.Equal(t, []SearchResult{
		{Name: "@playkit-js-contrib/ui", Version: "1.2.0"},
		{Name: "@playkit-js-contrib/common", Version: "1.2.0"},
	}, got)
	assert.Equal(t, []string{"npm search --no-description --json @playkit-js-contrib/"}, fake.Lines())
}

func TestSearchBadJSON(t *testing.T) {
	fake := runnertest.New().On("npm search", runnertest.Response{Result: runner.Result{Stdout: "npm ERR!"}})
	_, err := NewClient(fake, nil).Search(context.Background(), "@playkit-js-contrib")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	fake := runnertest.New().On("npm --version", runnertest.Response{Result: runner.Result{Stdout: "10.2.4\n"}})
	v, err := NewClient(fake, nil).Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10.2.4", v.String())
	assert.NoError(t, CheckVersion(v))

	assert.Error(t, CheckVersion(semver.MustParse("2.15.12")))
	assert.NoError(t, CheckVersion(semver.MustParse("3.0.0")))

	fake.On("npm --version", runnertest.Response{Err: errors.New("not found")})
	_, err = NewClient(fake, nil).Version(context.Background())
	assert.Error(t, err)
}

func TestParseConfigCwd(t *testing.T) {
	out := "; cli configs\nuser-agent = \"npm/6.14.4\"\n\n; node bin location = /usr/bin/node\n; cwd = /home/dev/playkit-js-qna\n; HOME = /home/dev\n"
	assert.Equal(t, "/home/dev/playkit-js-qna", ParseConfigCwd(out))
	assert.Equal(t, "", ParseConfigCwd("; cli configs\n"))
}
