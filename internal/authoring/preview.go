package authoring

import (
	"os"

	"github.com/ppanchal/guidee/internal/markup"
)

// Preview holds the open handle behind an inline media preview, the local
// analog of an object URL: owned by the session and released on teardown.
type Preview struct {
	Kind  markup.Kind
	Label string
	file  *os.File
}

// openPreview opens the source file for previewing. Best effort: a file
// without a local path (as in tests) simply has no preview resource.
func openPreview(file File, kind markup.Kind, caption string) *Preview {
	if file.Path == "" {
		return nil
	}
	handle, err := os.Open(file.Path)
	if err != nil {
		return nil
	}
	return &Preview{Kind: kind, Label: previewLabel(file, kind, caption), file: handle}
}

// Release closes the preview's handle. Safe to call once per preview.
func (p *Preview) Release() error {
	if p.file == nil {
		return nil
	}
	err := p.file.Close()
	p.file = nil
	return err
}
