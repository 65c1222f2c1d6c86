package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playkit-contrib/kcontrib/internal/env"
	"github.com/playkit-contrib/kcontrib/internal/runner"
	"github.com/playkit-contrib/kcontrib/internal/runner/runnertest"
)

func TestBuildProduction(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("build", "--vars", "API=qa"))

	require.Len(t, h.runner.Calls, 1)
	call := h.runner.Calls[0]
	assert.Equal(t, "npx webpack --config /work/plugin/webpack.config.js --mode production", call.String())
	assert.Equal(t, testRoot, call.Dir)
	assert.Equal(t, "production", call.Env["NODE_ENV"])
	assert.Equal(t, "production", call.Env["BABEL_ENV"])
	assert.Equal(t, "qa", call.Env["API"])
	assert.True(t, call.Interactive)
	assert.Contains(t, h.out.String(), "Compiled successfully.")
}

func TestBuildDevUsesOverride(t *testing.T) {
	h := newHarness(t)
	h.writeFile(testRoot+"/webpack.override.js", "module.exports = {}")
	h.deps.environ = env.Vars{"KCONTRIB_VARS": "A=1"}

	require.NoError(t, h.run("build", "--dev"))
	call := h.runner.Calls[0]
	assert.Equal(t, "npx webpack --config /work/plugin/webpack.override.js --mode development", call.String())
	assert.Equal(t, "development", call.Env["NODE_ENV"])
	assert.Equal(t, "1", call.Env["A"])
	assert.Contains(t, h.errOut.String(), "Using webpack config from webpack.override.js")
}

func TestBuildWarnings(t *testing.T) {
	warn := runnertest.Response{Result: runner.Result{Stdout: "WARNING in ./src/index.ts\nsomething"}}

	h := newHarness(t)
	h.runner.On("npx webpack", warn)
	require.NoError(t, h.run("build"))
	assert.Contains(t, h.out.String(), "Compiled with warnings.")

	h = newHarness(t)
	h.runner.On("npx webpack", warn)
	h.deps.environ = env.Vars{"CI": "true"}
	err := h.run("build")
	assert.ErrorIs(t, err, errWarningsInCI)

	h = newHarness(t)
	h.runner.On("npx webpack", warn)
	h.deps.environ = env.Vars{"CI": "false"}
	require.NoError(t, h.run("build"))
}

func TestBuildFailure(t *testing.T) {
	h := newHarness(t)
	h.runner.On("npx webpack", runnertest.Response{Err: &runner.ExitError{Command: "npx webpack", Code: 2}})
	err := h.run("build")
	require.Error(t, err)
	assert.True(t, runner.IsExitError(err))
	assert.Contains(t, h.out.String(), "Failed to compile.")
}

func TestBuildRejectsBadVars(t *testing.T) {
	h := newHarness(t)
	assert.Error(t, h.run("build", "--vars", "broken"))
	assert.Empty(t, h.runner.Calls)
}

func TestCIEnabled(t *testing.T) {
	assert.True(t, ciEnabled("true"))
	assert.True(t, ciEnabled("1"))
	assert.True(t, ciEnabled("0"))
	assert.False(t, ciEnabled(""))
	assert.False(t, ciEnabled("FALSE"))
}
