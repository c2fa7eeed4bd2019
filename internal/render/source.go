package render

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/spec-kit/ticket-archiver/pkg/util/errorutil"
)

const (
	templateSuffix   = ".tmpl"
	htmlTemplateName = "transcript.html"
)

// Sources holds the transcript template text read at startup.
type Sources struct {
	Name      string
	Extension string
	Markdown  string
	// HTML is empty when the markup template is absent or disabled.
	HTML string
}

// HasHTML reports whether a markup template was loaded.
func (s Sources) HasHTML() bool {
	return s.HTML != ""
}

// LoadSources reads <dir>/<name>.tmpl and, when htmlEnabled, <dir>/transcript.html.tmpl.
// A missing markdown template is a configuration error; a missing markup template is not.
func LoadSources(dir, name string, htmlEnabled bool) (Sources, error) {
	src := Sources{Name: name, Extension: Extension(name)}

	raw, err := os.ReadFile(filepath.Join(dir, name+templateSuffix))
	if err != nil {
		return Sources{}, apperrors.NewConfigurationFatal(
			fmt.Sprintf("transcript template %q could not be read from %s", name, dir), err)
	}
	src.Markdown = string(raw)

	if !htmlEnabled {
		return src, nil
	}
	raw, err = os.ReadFile(filepath.Join(dir, htmlTemplateName+templateSuffix))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return src, nil
	case err != nil:
		return Sources{}, fmt.Errorf("read markup template: %w", err)
	}
	src.HTML = string(raw)
	return src, nil
}

// Extension is the file extension used for the plain document: the last
// dot-separated segment of the template name.
func Extension(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
