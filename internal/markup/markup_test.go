package markup

import (
	"strings"
	"testing"
)

func TestTokenEncoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		kind    Kind
		caption string
		want    string
	}{
		{"image", KindImage, "a cat", `[IMAGE: alt="a cat"]`},
		{"audio", KindAudio, "meow", `[AUDIO: description="meow"]`},
		{"embedded quotes", KindImage, `a "big" cat`, `[IMAGE: alt="a \"big\" cat"]`},
		{"backslash", KindAudio, `C:\sounds`, `[AUDIO: description="C:\\sounds"]`},
		{"empty caption", KindImage, "", `[IMAGE: alt=""]`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Token(tt.kind, tt.caption); got != tt.want {
				t.Fatalf("Token(%v, %q) = %q, want %q", tt.kind, tt.caption, got, tt.want)
			}
		})
	}
}

func TestScanTokensRoundTripsCaptions(t *testing.T) {
	t.Parallel()

	script := "Intro text\n" + Token(KindImage, `a "big" cat`) + "\nmiddle\n" + Token(KindAudio, "meow") + "\nend"
	refs := ScanTokens(script)
	if len(refs) != 2 {
		t.Fatalf("expected two tokens, got %d", len(refs))
	}
	if refs[0].Kind != KindImage || refs[0].Caption != `a "big" cat` {
		t.Fatalf("unexpected first token: %+v", refs[0])
	}
	if refs[1].Kind != KindAudio || refs[1].Caption != "meow" {
		t.Fatalf("unexpected second token: %+v", refs[1])
	}
}

func TestScanTokensPreservesScriptOrder(t *testing.T) {
	t.Parallel()

	script := Token(KindAudio, "first") + " text " + Token(KindImage, "second")
	refs := ScanTokens(script)
	if len(refs) != 2 || refs[0].Kind != KindAudio || refs[1].Kind != KindImage {
		t.Fatalf("tokens out of order: %#v", refs)
	}
}

func TestSerializeScriptNormalization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"breaks to newlines", "one<br>two<br/>three<BR />four", "one\ntwo\nthree\nfour"},
		{"empty paragraphs dropped", "<p></p>keep<p> </p>", "keep"},
		{"nonbreaking space", "a\u00a0b", "a b"},
		{"tags stripped", `<b>bold</b> and <span class="x">span</span>`, "bold and span"},
		{"trimmed", "  \n padded \n ", "padded"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SerializeScript(tt.in); got != tt.want {
				t.Fatalf("SerializeScript(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSerializeScriptDropsPreviews(t *testing.T) {
	t.Parallel()

	surface := strings.Join([]string{
		Token(KindImage, "a cat"),
		PreviewPrefix + " cat.png (image)",
		"Some narration.",
		Token(KindAudio, "meow"),
		PreviewPrefix + " meow.ogg (audio)",
	}, "\n")

	got := SerializeScript(surface)
	if strings.Contains(got, PreviewPrefix) {
		t.Fatalf("preview line survived serialization: %q", got)
	}
	if CountTokens(got) != 2 {
		t.Fatalf("expected both tokens to survive, got %d in %q", CountTokens(got), got)
	}
	if !strings.Contains(got, "Some narration.") {
		t.Fatalf("narration text lost: %q", got)
	}
}

func TestSerializeScriptDropsPreviewElements(t *testing.T) {
	t.Parallel()

	surface := `[IMAGE: alt="diagram"]<br><img src="blob:1" alt="diagram" contenteditable="false"><br>` +
		`[AUDIO: description="clip"]<br><div class="audio-preview" contenteditable="false">Audio Clip: clip<audio controls src="blob:2"></audio></div><br>done`

	got := SerializeScript(surface)
	if strings.Contains(got, "img") || strings.Contains(got, "audio-preview") {
		t.Fatalf("preview elements survived: %q", got)
	}
	if CountTokens(got) != 2 {
		t.Fatalf("expected two tokens after cleanup, got %d in %q", CountTokens(got), got)
	}
	if !strings.HasSuffix(got, "done") {
		t.Fatalf("trailing text lost: %q", got)
	}
}
