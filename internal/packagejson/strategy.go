package packagejson

import "fmt"

// ContribType selects where contrib libraries come from.
type ContribType string

const (
	ContribLatest ContribType = "latest"
	ContribNext   ContribType = "next"
	ContribLocal  ContribType = "local"
)

// ContribTypes lists the supported types in prompt order.
var ContribTypes = []ContribType{ContribLatest, ContribNext, ContribLocal}

// ParseContribType validates a --type value.
func ParseContribType(s string) (ContribType, error) {
	for _, t := range ContribTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown contrib type %q, expected one of latest, next, local", s)
}

// Strategy is how contrib packages of one type are put into node_modules.
type Strategy struct {
	// Command is the npm subcommand, install or link.
	Command string
	// Tag is appended to every package name ("@latest", "@next" or "").
	Tag string
}

// InstallStrategy maps a contrib type to its npm command and tag.
func InstallStrategy(t ContribType) Strategy {
	switch t {
	case ContribNext:
		return Strategy{Command: "install", Tag: "@next"}
	case ContribLocal:
		return Strategy{Command: "link"}
	default:
		return Strategy{Command: "install", Tag: "@latest"}
	}
}

// Tagged appends the strategy tag to every package.
func (s Strategy) Tagged(packages []string) []string {
	out := make([]string, 0, len(packages))
	for _, p := range packages {
		out = append(out, p+s.Tag)
	}
	return out
}
