package engine

import (
	"regexp"
	"strings"
	"time"

	"github.com/playkit-contrib/kcontrib/internal/naming"
)

const (
	// LowercaseMarker is replaced with the plugin name verbatim.
	LowercaseMarker = "__plugin_name__"
	// CapitalizedMarker is replaced with the capitalized camel-case plugin name.
	CapitalizedMarker = "__Plugin_Name__"
	// DateMarker is replaced with the current date, matched in any case.
	DateMarker = "__today_date__"
	// DateLayout renders dates the way the generated changelogs and headers expect.
	DateLayout = "Mon Jan 02 2006"
)

var (
	genericMarker = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(LowercaseMarker))
	dateMarker    = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(DateMarker))
)

// Detect reports whether text contains the plugin name marker in any case, or the date marker.
func Detect(text string) bool {
	return genericMarker.MatchString(text) || dateMarker.MatchString(text)
}

// DetectInName reports whether a file basename contains the plugin name marker in any case.
func DetectInName(basename string) bool {
	return genericMarker.MatchString(basename)
}

// Rewriter substitutes markers for one plugin name.
type Rewriter struct {
	forms naming.Forms
	now   func() time.Time
}

// NewRewriter builds a Rewriter for forms. A nil clock means time.Now.
func NewRewriter(forms naming.Forms, now func() time.Time) *Rewriter {
	if now == nil {
		now = time.Now
	}
	return &Rewriter{forms: forms, now: now}
}

// Rewrite replaces, in order, the date marker, the lowercase marker and the capitalized marker.
// Case variants of the name marker that match neither exact form are replaced with the
// lowercase name so no marker survives a rewrite.
func (r *Rewriter) Rewrite(text string) string {
	if dateMarker.MatchString(text) {
		text = dateMarker.ReplaceAllLiteralString(text, r.now().Format(DateLayout))
	}
	text = strings.ReplaceAll(text, LowercaseMarker, r.forms.Lowercase)
	text = strings.ReplaceAll(text, CapitalizedMarker, r.forms.Capitalized)
	return genericMarker.ReplaceAllLiteralString(text, r.forms.Lowercase)
}
