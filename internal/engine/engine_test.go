package engine

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playkit-contrib/kcontrib/internal/naming"
	"github.com/playkit-contrib/kcontrib/internal/templates"
)

func fixedClock() time.Time {
	return time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)
}

func writeFiles(t *testing.T, fsys afero.Fs, files map[string]string) {
	t.Helper()
	for path, content := range files {
		require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0o644))
	}
}

func readFile(t *testing.T, fsys afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, path)
	require.NoError(t, err)
	return string(data)
}

func TestDetect(t *testing.T) {
	assert.True(t, Detect("const name = `__plugin_name__`;"))
	assert.True(t, Detect("class __Plugin_Name__Plugin"))
	assert.True(t, Detect("__PLUGIN_NAME__"))
	assert.True(t, Detect("generated __TODAY_DATE__"))
	assert.False(t, Detect("plugin_name without underscores"))
	assert.False(t, Detect(""))

	assert.True(t, DetectInName("__plugin_name__-plugin.tsx"))
	assert.True(t, DetectInName("__Plugin_Name__.ts"))
	assert.False(t, DetectInName("__today_date__.md"))
}

func TestRewriteOrderAndForms(t *testing.T) {
	forms, err := naming.Derive("my-plugin")
	require.NoError(t, err)
	rw := NewRewriter(forms, fixedClock)

	in := "// __today_date__\nconst pluginName = `__plugin_name__`;\nclass __Plugin_Name__Plugin {}\n// __plugin_name__ again"
	want := "// Tue Jan 02 2024\nconst pluginName = `my-plugin`;\nclass MyPluginPlugin {}\n// my-plugin again"
	assert.Equal(t, want, rw.Rewrite(in))
}

func TestRewriteDateMarker(t *testing.T) {
	rw := NewRewriter(naming.Forms{Lowercase: "x", Capitalized: "X"}, fixedClock)
	assert.Equal(t, "Tue Jan 02 2024", rw.Rewrite("__today_date__"))
	assert.Equal(t, "Tue Jan 02 2024", rw.Rewrite("__Today_Date__"))
}

func TestRewriteLeavesNoMarkerAndIsIdempotent(t *testing.T) {
	contents := []string{
		"__plugin_name__",
		"__Plugin_Name__",
		"__PLUGIN_NAME__ and __plugin_NAME__",
		"import './__plugin_name__-plugin.scss'; export class __Plugin_Name__Plugin {}",
		"mixed __plugin_name__ __today_date__ __Plugin_Name__",
	}
	for _, name := range []string{"x", "my-plugin", "my-awesome-plugin", "a-2b"} {
		forms, err := naming.Derive(name)
		require.NoError(t, err)
		rw := NewRewriter(forms, fixedClock)

		for _, c := range contents {
			out := rw.Rewrite(c)
			assert.False(t, genericMarker.MatchString(out), "marker left in %q", out)
			assert.Equal(t, out, rw.Rewrite(out), "rewrite is not idempotent for %q", c)
			if c != "__Plugin_Name__" {
				assert.Contains(t, out, name)
			}
		}
	}
}

func TestWalkExcludesCachesVCSAndArchives(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{
		"/app/src/__plugin_name__-plugin.tsx":      "__plugin_name__",
		"/app/node_modules/pkg/__plugin_name__.js": "__plugin_name__",
		"/app/src/node_modules/nested/index.js":    "__plugin_name__",
		"/app/.git/HEAD":                           "__plugin_name__",
		"/app/libs/template.tgz":                   "__plugin_name__",
		"/app/libs/bundle.tar.gz":                  "__plugin_name__",
		"/app/README.md":                           "# __Plugin_Name__",
	})

	files, err := Walk(fsys, "/app")
	require.NoError(t, err)
	assert.Equal(t, []string{"/app/README.md", "/app/src/__plugin_name__-plugin.tsx"}, files)
}

func TestWalkMissingRoot(t *testing.T) {
	_, err := Walk(afero.NewMemMapFs(), "/nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.True(t, IsIOError(err))
}

func TestApplySkipsExcludedSubtrees(t *testing.T) {
	fsys := afero.NewMemMapFs()
	const archive = "binary __plugin_name__ payload"
	writeFiles(t, fsys, map[string]string{
		"/app/node_modules/__plugin_name__.js": "__plugin_name__",
		"/app/.git/__plugin_name__":            "__plugin_name__",
		"/app/template.tgz":                    archive,
		"/app/__plugin_name__.tgz":             archive,
	})

	res, err := NewEngine(nil, WithClock(fixedClock)).Apply(context.Background(), fsys, "/app", "qna")
	require.NoError(t, err)
	assert.Empty(t, res.Rewritten)
	assert.Empty(t, res.Renamed)

	assert.Equal(t, "__plugin_name__", readFile(t, fsys, "/app/node_modules/__plugin_name__.js"))
	assert.Equal(t, "__plugin_name__", readFile(t, fsys, "/app/.git/__plugin_name__"))
	assert.Equal(t, archive, readFile(t, fsys, "/app/template.tgz"))
	assert.Equal(t, archive, readFile(t, fsys, "/app/__plugin_name__.tgz"))
}

func TestInstantiateEndToEnd(t *testing.T) {
	src := afero.NewMemMapFs()
	writeFiles(t, src, map[string]string{
		"/tpl/__plugin_name__-plugin.tsx": "export class __Plugin_Name__Plugin {}\n",
		"/tpl/docs/notes.md":              "created __today_date__ for __plugin_name__",
		"/tpl/static/logo.txt":            "no markers here",
		"/tpl/gitignore":                  "node_modules\n",
	})
	dst := afero.NewMemMapFs()

	eng := NewEngine(nil, WithClock(fixedClock))
	res, err := eng.Instantiate(context.Background(), Options{
		Name:     "my-awesome-plugin",
		Template: Source{FS: src, Dir: "/tpl"},
		DestFS:   dst,
		DestDir:  "/work/playkit-js-my-awesome-plugin",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Copied)

	root := "/work/playkit-js-my-awesome-plugin"
	assert.Equal(t, "export class MyAwesomePluginPlugin {}\n", readFile(t, dst, root+"/my-awesome-plugin-plugin.tsx"))
	exists, err := afero.Exists(dst, root+"/__plugin_name__-plugin.tsx")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Equal(t, "created Tue Jan 02 2024 for my-awesome-plugin", readFile(t, dst, root+"/docs/notes.md"))
	assert.Equal(t, "no markers here", readFile(t, dst, root+"/static/logo.txt"))
	assert.Equal(t, "node_modules\n", readFile(t, dst, root+"/.gitignore"))
	assert.Equal(t, "{\n  \"pluginName\": \"my-awesome-plugin\"\n}\n", readFile(t, dst, root+"/"+ConfigFileName))

	assert.Equal(t, root+"/my-awesome-plugin-plugin.tsx", res.Renamed[root+"/__plugin_name__-plugin.tsx"])

	name, err := ReadPluginName(dst, root)
	require.NoError(t, err)
	assert.Equal(t, "my-awesome-plugin", name)

	src2, err := afero.ReadFile(src, "/tpl/__plugin_name__-plugin.tsx")
	require.NoError(t, err)
	assert.Contains(t, string(src2), "__Plugin_Name__", "template must not be modified")
}

func TestInstantiateAppendsToExistingGitignore(t *testing.T) {
	src := afero.NewMemMapFs()
	writeFiles(t, src, map[string]string{"/tpl/gitignore": "dist\n"})
	dst := afero.NewMemMapFs()
	writeFiles(t, dst, map[string]string{"/app/.gitignore": ".idea\n"})

	_, err := NewEngine(nil).Instantiate(context.Background(), Options{
		Name:     "qna",
		Template: Source{FS: src, Dir: "/tpl"},
		DestFS:   dst,
		DestDir:  "/app",
	})
	require.NoError(t, err)
	assert.Equal(t, ".idea\ndist\n", readFile(t, dst, "/app/.gitignore"))
	exists, _ := afero.Exists(dst, "/app/gitignore")
	assert.False(t, exists)
}

func TestInstantiateChecksBeforeWriting(t *testing.T) {
	src := afero.NewMemMapFs()
	writeFiles(t, src, map[string]string{"/tpl/a.txt": "__plugin_name__"})

	t.Run("invalid name", func(t *testing.T) {
		dst := afero.NewMemMapFs()
		_, err := NewEngine(nil).Instantiate(context.Background(), Options{
			Name: "Not_Valid", Template: Source{FS: src, Dir: "/tpl"}, DestFS: dst, DestDir: "/app",
		})
		assert.ErrorIs(t, err, ErrInvalidName)
		exists, _ := afero.DirExists(dst, "/app")
		assert.False(t, exists)
	})

	t.Run("missing template", func(t *testing.T) {
		dst := afero.NewMemMapFs()
		_, err := NewEngine(nil).Instantiate(context.Background(), Options{
			Name: "qna", Template: Source{FS: src, Dir: "/missing"}, DestFS: dst, DestDir: "/app",
		})
		assert.ErrorIs(t, err, ErrTemplateNotFound)
		exists, _ := afero.DirExists(dst, "/app")
		assert.False(t, exists)
	})
}

func TestInstantiateSurfacesIOFailure(t *testing.T) {
	src := afero.NewMemMapFs()
	writeFiles(t, src, map[string]string{"/tpl/a.txt": "__plugin_name__"})

	_, err := NewEngine(nil).Instantiate(context.Background(), Options{
		Name:     "qna",
		Template: Source{FS: src, Dir: "/tpl"},
		DestFS:   afero.NewReadOnlyFs(afero.NewMemMapFs()),
		DestDir:  "/app",
	})
	require.Error(t, err)
	assert.True(t, IsIOError(err))
}

func TestInstantiateStopsOnCanceledContext(t *testing.T) {
	src := afero.NewMemMapFs()
	writeFiles(t, src, map[string]string{"/tpl/a.txt": "__plugin_name__"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(nil).Instantiate(ctx, Options{
		Name: "qna", Template: Source{FS: src, Dir: "/tpl"}, DestFS: afero.NewMemMapFs(), DestDir: "/app",
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInstantiateEmbeddedTemplate(t *testing.T) {
	dst := afero.NewMemMapFs()
	_, err := NewEngine(nil, WithClock(fixedClock)).Instantiate(context.Background(), Options{
		Name:     "dual-screen",
		Template: Source{FS: templates.FS(), Dir: templates.PluginDir},
		DestFS:   dst,
		DestDir:  "/app",
	})
	require.NoError(t, err)

	plugin := readFile(t, dst, "/app/src/dual-screen-plugin.tsx")
	assert.Contains(t, plugin, "export class DualScreenPlugin")
	assert.Contains(t, plugin, "const pluginName = `dual-screen`;")
	assert.NotContains(t, plugin, "__")

	assert.Contains(t, readFile(t, dst, "/app/README.md"), "Generated on Tue Jan 02 2024.")
	exists, _ := afero.Exists(dst, "/app/.gitignore")
	assert.True(t, exists)
}
