// Package render turns store items into something people read: a static
// HTML page or terminal output.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pevans/grantfeed/classify"
	"github.com/pevans/grantfeed/store"
)

//go:embed templates/page.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(
	template.New("page.html.tmpl").
		Funcs(template.FuncMap{"style": styleOf}).
		ParseFS(templateFS, "templates/page.html.tmpl"),
)

// Page is the data behind the HTML page.
type Page struct {
	Title       string
	GeneratedAt time.Time
	Items       []store.Item
	NewCount    int
}

func styleOf(category string) classify.Style {
	return classify.StyleFor(classify.Category(category))
}

// RenderHTML writes the page to w.
func RenderHTML(w io.Writer, page Page) error {
	if err := pageTemplate.Execute(w, page); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}

// WriteHTML renders the page to path, replacing any previous page only once
// rendering has succeeded.
func WriteHTML(path string, page Page) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := RenderHTML(tmp, page); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close page: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set page permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to write page: %w", err)
	}

	return nil
}
