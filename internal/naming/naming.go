// Package naming validates plugin identifiers and derives the name forms used in templates.
package naming

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidName reports a plugin name that does not match the allowed pattern.
var ErrInvalidName = errors.New("invalid plugin name")

var (
	pluginNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
	npmNamePattern    = regexp.MustCompile(`^(@[a-z][a-z0-9-]+/[a-z-][a-z0-9-]+|[a-z-][a-z0-9-]+)$`)
	repoSlugPattern   = regexp.MustCompile(`^([a-z][a-z0-9-]+/[a-z-][a-z0-9-]+|[a-z][a-z0-9-]+)$`)
)

const (
	msgEmpty   = "This value should not be empty."
	msgInvalid = "The value is invalid. Use lower case characters, numbers or dash only."
)

// Forms holds the name variants substituted into template files.
type Forms struct {
	// Lowercase is the plugin name as supplied, e.g. "my-plugin".
	Lowercase string
	// Capitalized is the camel-cased name with a leading capital, e.g. "MyPlugin".
	Capitalized string
}

// Validate checks name against the plugin name pattern.
func Validate(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	if !pluginNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q must match %s", ErrInvalidName, name, pluginNamePattern.String())
	}
	return nil
}

// Derive validates name and returns its template forms.
func Derive(name string) (Forms, error) {
	if err := Validate(name); err != nil {
		return Forms{}, err
	}
	return Forms{Lowercase: name, Capitalized: Capitalize(CamelCase(name))}, nil
}

// CamelCase joins the dash-separated segments of s, capitalizing every segment after the
// first. Empty segments are dropped, so the result never contains a dash.
func CamelCase(s string) string {
	var b strings.Builder
	for _, seg := range strings.Split(s, "-") {
		if seg == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteString(seg)
			continue
		}
		b.WriteString(Capitalize(seg))
	}
	return b.String()
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Validator checks interactive input and returns a user-facing message, or "" when valid.
type Validator func(input string) string

// ProjectName validates the project name prompt.
func ProjectName() Validator { return patternValidator(pluginNamePattern) }

// NpmName validates an npm package name, scoped or not.
func NpmName() Validator { return patternValidator(npmNamePattern) }

// RepoSlug validates a GitHub "owner/repo" slug.
func RepoSlug() Validator { return patternValidator(repoSlugPattern) }

func patternValidator(pattern *regexp.Regexp) Validator {
	return func(input string) string {
		if input == "" {
			return msgEmpty
		}
		if !pattern.MatchString(input) {
			return msgInvalid
		}
		return ""
	}
}
