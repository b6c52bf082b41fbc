package authoring

import (
	"strings"

	"github.com/ppanchal/guidee/internal/markup"
)

// The editing widget is an external collaborator: it supplies the current
// insertion offset and applies the updated surface text. The surface itself
// is the ordered node sequence those edits describe, with preview nodes
// kept distinct from editable text so serialization can drop them.

type nodeKind int

const (
	nodeText nodeKind = iota
	nodePreview
)

type node struct {
	kind  nodeKind
	text  string // nodeText: raw run, may span lines
	label string // nodePreview: display label without the prefix
}

// Surface is the authored document: text runs interleaved with non-editable
// preview nodes, plus the current insertion offset in rendered bytes.
type Surface struct {
	nodes  []node
	cursor int
}

// NewSurface returns an empty surface with the cursor at the start.
func NewSurface() *Surface {
	return &Surface{}
}

// Render flattens the node sequence into the raw surface text shown by the
// editing widget. Preview nodes render as single marked lines.
func (s *Surface) Render() string {
	var b strings.Builder
	for _, n := range s.nodes {
		if n.kind == nodePreview {
			b.WriteString(markup.PreviewPrefix + " " + n.label)
			continue
		}
		b.WriteString(n.text)
	}
	return b.String()
}

// Cursor reports the current insertion offset.
func (s *Surface) Cursor() int { return s.cursor }

// SetCursor moves the insertion offset, clamping it into the rendered text.
func (s *Surface) SetCursor(offset int) {
	length := len(s.Render())
	if offset < 0 {
		offset = 0
	}
	if offset > length {
		offset = length
	}
	s.cursor = offset
}

// ApplyEdit replaces the surface content with text edited in the widget and
// records the widget's new cursor offset. Marked lines become preview nodes
// again; everything else becomes text runs.
func (s *Surface) ApplyEdit(text string, cursor int) {
	s.nodes = parseNodes(text)
	s.cursor = cursor
	s.SetCursor(cursor)
}

// insertBlock splices a markup token followed by a preview node at the
// cursor, each on its own line, and advances the cursor past the block.
func (s *Surface) insertBlock(token, previewLabel string) {
	text := s.Render()
	block := token + "\n" + markup.PreviewPrefix + " " + previewLabel + "\n"
	updated := text[:s.cursor] + block + text[s.cursor:]
	s.nodes = parseNodes(updated)
	s.cursor += len(block)
}

func parseNodes(text string) []node {
	if text == "" {
		return nil
	}
	var nodes []node
	var run strings.Builder
	flush := func() {
		if run.Len() > 0 {
			nodes = append(nodes, node{kind: nodeText, text: run.String()})
			run.Reset()
		}
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if label, ok := strings.CutPrefix(strings.TrimSpace(line), markup.PreviewPrefix); ok {
			flush()
			nodes = append(nodes, node{kind: nodePreview, label: strings.TrimSpace(label)})
			if i < len(lines)-1 {
				run.WriteString("\n")
			}
			continue
		}
		run.WriteString(line)
		if i < len(lines)-1 {
			run.WriteString("\n")
		}
	}
	flush()
	return nodes
}
