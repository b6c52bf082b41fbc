// Package markup implements the inline media-markup protocol used by lesson
// scripts: textual placeholder tokens that stand in for positionally-matched
// binary attachments, plus the one-way normalization that turns an edited
// surface into a plain-text script.
package markup

import (
	"regexp"
	"strings"
)

// Kind identifies the media type behind a markup token.
type Kind string

const (
	KindImage Kind = "image"
	KindAudio Kind = "audio"
)

// PreviewPrefix marks surface lines that hold an inline media preview.
// Preview lines are display-only and are dropped during serialization,
// the same way the editor's preview elements never reach the script.
const PreviewPrefix = "⟦preview⟧"

var (
	tokenRegexp       = regexp.MustCompile(`\[(IMAGE): alt="((?:[^"\\]|\\.)*)"\]|\[(AUDIO): description="((?:[^"\\]|\\.)*)"\]`)
	breakRegexp       = regexp.MustCompile(`(?i)<br\s*/?>`)
	emptyParaRegexp   = regexp.MustCompile(`<p>\s*</p>`)
	previewElemRegexp = regexp.MustCompile(`(?is)<img[^>]*>|<audio[^>]*>.*?</audio>|<audio[^>]*/?>|<div class="audio-preview"[^>]*>.*?</div>`)
	tagRegexp         = regexp.MustCompile(`<[^>]*>?`)
	captionEscaper    = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
)

// TokenRef is one decoded markup token in script order.
type TokenRef struct {
	Kind    Kind
	Caption string
}

// Token encodes a media reference as its inline placeholder. Quote and
// backslash characters in the caption are escaped so the token stays
// machine-parsable regardless of what the author typed.
func Token(kind Kind, caption string) string {
	escaped := captionEscaper.Replace(caption)
	if kind == KindAudio {
		return `[AUDIO: description="` + escaped + `"]`
	}
	return `[IMAGE: alt="` + escaped + `"]`
}

// ScanTokens returns every markup token in the script, left to right. The
// Nth result corresponds to the Nth attached file under the positional
// contract.
func ScanTokens(script string) []TokenRef {
	matches := tokenRegexp.FindAllStringSubmatch(script, -1)
	if len(matches) == 0 {
		return nil
	}
	refs := make([]TokenRef, 0, len(matches))
	for _, m := range matches {
		if m[1] != "" {
			refs = append(refs, TokenRef{Kind: KindImage, Caption: unescapeCaption(m[2])})
		} else {
			refs = append(refs, TokenRef{Kind: KindAudio, Caption: unescapeCaption(m[4])})
		}
	}
	return refs
}

// CountTokens reports how many markup tokens the script contains.
func CountTokens(script string) int {
	return len(tokenRegexp.FindAllStringIndex(script, -1))
}

// SerializeScript flattens a raw surface snapshot into the plain-text script
// submitted to the lesson compiler: preview lines and preview elements are
// removed, break tags become newlines, empty paragraph wrappers are dropped,
// non-breaking spaces are normalized, every remaining tag is stripped, and
// the result is trimmed. The transformation is one-way; the surface stays
// the source of truth while editing.
func SerializeScript(rawSurface string) string {
	text := dropPreviewLines(rawSurface)
	text = previewElemRegexp.ReplaceAllString(text, "")
	text = breakRegexp.ReplaceAllString(text, "\n")
	text = emptyParaRegexp.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, " ", " ")
	text = tagRegexp.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func dropPreviewLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), PreviewPrefix) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func unescapeCaption(raw string) string {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
		}
		b.WriteByte(raw[i])
	}
	return b.String()
}
