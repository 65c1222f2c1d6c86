// Package templates embeds the default plugin template and the local test environment files.
package templates

import (
	"embed"
	"io/fs"

	"github.com/spf13/afero"
)

const (
	// PluginDir is the root of the default plugin template inside FS.
	PluginDir = "plugin"
	// ServeDir holds the files copied into a project's test folder by "kcontrib serve".
	ServeDir = "serve"
)

// files needs the all: prefix because template names start with "_" and ".".
//
//go:embed all:plugin all:serve
var files embed.FS

// FS returns the embedded templates as a read-only afero filesystem.
func FS() afero.Fs {
	return afero.NewReadOnlyFs(afero.FromIOFS{FS: files})
}

// ReadServeFile returns one of the default test environment files (env.json, config.json, readme.md).
func ReadServeFile(name string) ([]byte, error) {
	return fs.ReadFile(files, ServeDir+"/"+name)
}
