package cli

import (
	envparse "github.com/caarlos0/env/v11"

	"github.com/playkit-contrib/kcontrib/internal/env"
)

// baseEnv defines root CLI defaults sourced from KCONTRIB_* env vars.
type baseEnv struct {
	// LogLevel is the logging level from KCONTRIB_LOG_LEVEL.
	LogLevel string `env:"KCONTRIB_LOG_LEVEL"`
	// ProjectDir is the plugin project directory from KCONTRIB_PROJECT_DIR.
	ProjectDir string `env:"KCONTRIB_PROJECT_DIR"`
}

// buildEnv captures inputs for build runs.
type buildEnv struct {
	// Vars is a k=v,k2=v2 list from KCONTRIB_VARS passed to webpack.
	Vars string `env:"KCONTRIB_VARS"`
	// CI marks a CI run, where webpack warnings fail the build.
	CI string `env:"CI"`
}

// deployEnv captures inputs for deploy runs.
type deployEnv struct {
	// Prerelease is the prerelease identifier from KCONTRIB_PRERELEASE.
	Prerelease string `env:"KCONTRIB_PRERELEASE"`
}

// parseEnv fills target from environ via caarlos0/env.
func parseEnv(target interface{}, environ env.Vars) error {
	return envparse.ParseWithOptions(target, envparse.Options{Environment: environ})
}
