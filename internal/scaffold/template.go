package scaffold

import (
	"fmt"

	"github.com/playkit-contrib/kcontrib/internal/engine"
	"github.com/playkit-contrib/kcontrib/internal/templates"
)

func defaultTemplate() engine.Source {
	return engine.Source{FS: templates.FS(), Dir: templates.PluginDir}
}

// checkTemplate reports engine.ErrTemplateNotFound when src is not a readable directory.
func checkTemplate(src engine.Source) error {
	if src.FS == nil {
		return fmt.Errorf("%w: no filesystem for template %q", engine.ErrTemplateNotFound, src.Dir)
	}
	info, err := src.FS.Stat(src.Dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: could not locate supplied template %q", engine.ErrTemplateNotFound, src.Dir)
	}
	return nil
}
