// Package scaffold creates a new plugin project: it asks for the project details, installs
// the contrib libraries and instantiates the plugin template.
package scaffold

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/playkit-contrib/kcontrib/internal/engine"
	"github.com/playkit-contrib/kcontrib/internal/hooks"
	"github.com/playkit-contrib/kcontrib/internal/logging"
	"github.com/playkit-contrib/kcontrib/internal/naming"
	"github.com/playkit-contrib/kcontrib/internal/npm"
	"github.com/playkit-contrib/kcontrib/internal/packagejson"
	"github.com/playkit-contrib/kcontrib/internal/prompt"
)

const (
	templateDepsFile = ".template.dependencies.json"
	commitMessage    = "Initial commit"
)

// ErrNpmCwd reports an npm that starts in a different directory than requested.
var ErrNpmCwd = errors.New("could not start an npm process in the right directory")

// RuntimeDependencies are installed into dependencies of every new plugin.
func RuntimeDependencies(scope string) []string {
	return []string{scope + "/common", scope + "/plugin", scope + "/ui", "classnames"}
}

// DevDependencies are installed into devDependencies of every new plugin.
var DevDependencies = []string{
	"preact@10.x",
	"@types/node",
	"@types/classnames",
	"@commitlint/cli@8.x",
	"@commitlint/config-conventional@8.x",
	"@typescript-eslint/eslint-plugin@2.x",
	"@typescript-eslint/parser@2.x",
	"husky@3.x",
	"tslint@5.x",
	"typescript@3.x",
}

// GitInitFunc initializes a repository in dir and commits everything, reporting whether it did.
type GitInitFunc func(dir, message string) (bool, error)

// Options describes one kcontrib create run.
type Options struct {
	// Target is the optional positional argument, a directory path.
	Target string
	// Cwd resolves relative paths.
	Cwd string
	// Home expands a leading ~ in the destination.
	Home string
	// Template overrides the embedded template.
	Template *engine.Source
	// Verbose makes npm chatty.
	Verbose bool
	// ContribScope is the npm scope of the contrib libraries.
	ContribScope string
}

// Answers are the project details collected from the user.
type Answers struct {
	Name    string
	NpmName string
	Repo    string
	Dest    string
}

// Result summarizes a created project.
type Result struct {
	Answers        Answers
	ReadmeRenamed  bool
	GitInitialized bool
	Instantiated   *engine.Result
}

// Scaffolder runs the create flow.
type Scaffolder struct {
	fs       afero.Fs
	prompter prompt.Prompter
	npm      *npm.Client
	engine   *engine.Engine
	gitInit  GitInitFunc
	logger   *slog.Logger
	announce func(string)
}

// Config wires a Scaffolder to its collaborators.
type Config struct {
	FS       afero.Fs
	Prompter prompt.Prompter
	NPM      *npm.Client
	Engine   *engine.Engine
	GitInit  GitInitFunc
	Logger   *slog.Logger
	// Announce, if set, is called with the name of every step before it runs.
	Announce func(string)
}

// New constructs a Scaffolder.
func New(cfg Config) *Scaffolder {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	eng := cfg.Engine
	if eng == nil {
		eng = engine.NewEngine(logger)
	}
	return &Scaffolder{
		fs:       cfg.FS,
		prompter: cfg.Prompter,
		npm:      cfg.NPM,
		engine:   eng,
		gitInit:  cfg.GitInit,
		logger:   logger,
		announce: cfg.Announce,
	}
}

// Ask collects the project details. The positional target, when given, seeds the name and destination.
func (s *Scaffolder) Ask(opts Options) (Answers, error) {
	var initialName, initialDest string
	if opts.Target != "" {
		initialDest = resolvePath(opts.Target, opts.Cwd, opts.Home)
		initialName = filepath.Base(initialDest)
	}

	name, err := s.prompter.Text("Please specify the project name:", initialName, naming.ProjectName())
	if err != nil {
		return Answers{}, err
	}
	npmName, err := s.prompter.Text("Please specify the plugin NPM name:", fmt.Sprintf("@playkit-js/%s-plugin", name), naming.NpmName())
	if err != nil {
		return Answers{}, err
	}
	repo, err := s.prompter.Text("Please specify the plugin GitHub repository:", "kaltura/playkit-js-"+name, naming.RepoSlug())
	if err != nil {
		return Answers{}, err
	}
	if initialDest == "" {
		initialDest = filepath.Join(opts.Cwd, "playkit-js-"+name)
	}
	dest, err := s.prompter.Text("Please specify the destination folder where the plugin will be initialized:", initialDest, func(v string) string {
		if strings.TrimSpace(v) == "" {
			return "This value should not be empty."
		}
		return ""
	})
	if err != nil {
		return Answers{}, err
	}

	return Answers{
		Name:    name,
		NpmName: npmName,
		Repo:    repo,
		Dest:    resolvePath(strings.TrimSpace(dest), opts.Cwd, opts.Home),
	}, nil
}

// Create asks the questions and builds the project.
func (s *Scaffolder) Create(ctx context.Context, opts Options) (*Result, error) {
	answers, err := s.Ask(opts)
	if err != nil {
		return nil, err
	}
	return s.Build(ctx, answers, opts)
}

// Build creates the project described by answers.
func (s *Scaffolder) Build(ctx context.Context, answers Answers, opts Options) (*Result, error) {
	if err := naming.Validate(answers.Name); err != nil {
		return nil, err
	}
	template := s.templateSource(opts)
	if err := checkTemplate(template); err != nil {
		return nil, err
	}
	scope := opts.ContribScope
	if scope == "" {
		scope = "@playkit-js-contrib"
	}
	dest := answers.Dest
	res := &Result{Answers: answers}
	manifestPath := filepath.Join(dest, "package.json")

	install := func(opts npm.InstallOptions) func(context.Context) error {
		return func(ctx context.Context) error {
			if err := s.npm.Install(ctx, dest, opts); err != nil {
				return s.abortInstall(dest, err)
			}
			return nil
		}
	}

	exec := hooks.NewExecutor(s.logger, hooks.WithAnnounce(s.announceStep))
	steps := []hooks.Step{
		{Name: "Checking destination " + dest, Run: func(context.Context) error {
			return EnsureSafeDir(s.fs, dest)
		}},
		{Name: "Writing package.json", Run: func(context.Context) error {
			return packagejson.Initial(answers.NpmName, answers.Repo).Save(s.fs, manifestPath)
		}},
		{Name: "Checking npm working directory", Run: func(ctx context.Context) error {
			return s.checkNpmCwd(ctx, dest)
		}},
		{Name: "Installing contrib libraries", Run: install(npm.InstallOptions{
			Packages: RuntimeDependencies(scope), Exact: true, Verbose: opts.Verbose,
		})},
		{Name: "Installing development dependencies", Run: install(npm.InstallOptions{
			Packages: DevDependencies, Dev: true, Exact: true, Verbose: opts.Verbose,
		})},
		{Name: "Setting up package.json", Run: func(context.Context) error {
			return s.setupManifest(manifestPath, answers.Name)
		}},
		{Name: "Copying template", Run: func(ctx context.Context) error {
			renamed, err := s.renameReadme(dest)
			if err != nil {
				return err
			}
			res.ReadmeRenamed = renamed
			inst, err := s.engine.Instantiate(ctx, engine.Options{
				Name:     answers.Name,
				Template: template,
				DestFS:   s.fs,
				DestDir:  dest,
			})
			res.Instantiated = inst
			return err
		}},
		{Name: "Installing template dependencies", Run: func(ctx context.Context) error {
			return s.installTemplateDeps(ctx, dest, opts.Verbose)
		}},
		{Name: "Installing local libraries", Run: func(ctx context.Context) error {
			return s.installLocalLibs(ctx, dest, opts.Verbose)
		}},
		{Name: "Initializing git repository", When: func() bool { return s.gitInit != nil }, Run: func(context.Context) error {
			ok, err := s.gitInit(dest, commitMessage)
			if err != nil {
				s.logger.Warn("git repository was not initialized", "error", err)
			}
			res.GitInitialized = ok
			return nil
		}},
	}
	if err := exec.Run(ctx, steps); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Scaffolder) announceStep(name string) {
	if s.announce != nil {
		s.announce(name)
	}
}

func (s *Scaffolder) templateSource(opts Options) engine.Source {
	if opts.Template != nil {
		return *opts.Template
	}
	return defaultTemplate()
}

func (s *Scaffolder) checkNpmCwd(ctx context.Context, dest string) error {
	cwd, err := s.npm.ConfigCwd(ctx, dest)
	if err != nil {
		s.logger.Debug("skipping npm cwd check", "error", err)
		return nil
	}
	if cwd == "" || filepath.Clean(cwd) == filepath.Clean(dest) {
		return nil
	}
	return fmt.Errorf("%w: the current directory is %s, however a newly started npm process runs in %s; this is probably caused by a misconfigured system terminal shell",
		ErrNpmCwd, dest, cwd)
}

func (s *Scaffolder) abortInstall(dest string, cause error) error {
	s.logger.Error("aborting installation", "error", cause)
	removed, err := rollback(s.fs, dest)
	for _, name := range removed {
		s.logger.Info("deleted generated file", "path", name)
	}
	if err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (s *Scaffolder) setupManifest(path, name string) error {
	m, err := packagejson.Load(s.fs, path)
	if err != nil {
		return err
	}
	if err := m.MakeCaretRange(s.logger, "devDependencies", "preact"); err != nil {
		s.logger.Warn("preact version left as installed", "error", err)
	}
	if err := m.ApplyPluginDefaults(name); err != nil {
		return err
	}
	return m.Save(s.fs, path)
}

func (s *Scaffolder) renameReadme(dest string) (bool, error) {
	src := filepath.Join(dest, "README.md")
	if _, err := s.fs.Stat(src); err != nil {
		return false, nil
	}
	if err := s.fs.Rename(src, filepath.Join(dest, "README.old.md")); err != nil {
		return false, fmt.Errorf("rename README.md: %w", err)
	}
	return true, nil
}

func (s *Scaffolder) installTemplateDeps(ctx context.Context, dest string, verbose bool) error {
	path := filepath.Join(dest, templateDepsFile)
	data, err := afero.ReadFile(s.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", templateDepsFile, err)
	}
	var deps struct {
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.Unmarshal(data, &deps); err != nil {
		return fmt.Errorf("parse %s: %w", templateDepsFile, err)
	}
	if err := s.fs.Remove(path); err != nil {
		return fmt.Errorf("remove %s: %w", templateDepsFile, err)
	}
	if len(deps.Dependencies) == 0 {
		return nil
	}
	packages := make([]string, 0, len(deps.Dependencies))
	for name, version := range deps.Dependencies {
		packages = append(packages, name+"@"+version)
	}
	sort.Strings(packages)
	return s.npm.Install(ctx, dest, npm.InstallOptions{Packages: packages, Verbose: verbose})
}

func (s *Scaffolder) installLocalLibs(ctx context.Context, dest string, verbose bool) error {
	archives, err := afero.Glob(s.fs, filepath.Join(dest, "libs", "*.tgz"))
	if err != nil {
		return fmt.Errorf("list local libraries: %w", err)
	}
	if len(archives) == 0 {
		return nil
	}
	sort.Strings(archives)
	packages := make([]string, 0, len(archives))
	for _, a := range archives {
		packages = append(packages, "file:libs/"+filepath.Base(a))
	}
	return s.npm.Install(ctx, dest, npm.InstallOptions{Packages: packages, Verbose: verbose})
}

// resolvePath expands a leading ~ and makes p absolute against cwd.
func resolvePath(p, cwd, home string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(cwd, p)
	}
	return filepath.Clean(p)
}
