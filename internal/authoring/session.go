// Package authoring owns the lesson-composition session: an edited surface
// whose inline media tokens stay positionally aligned with a pending list of
// attached files. The backend resolves each token to a file by position, so
// the two sequences must never drift apart.
package authoring

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/ppanchal/guidee/internal/markup"
)

var (
	// ErrBusy is returned when an insertion is begun while another is still
	// awaiting its caption.
	ErrBusy = errors.New("authoring: insertion already in progress")
	// ErrNothingStaged is returned by Confirm/Cancel without a staged file.
	ErrNothingStaged = errors.New("authoring: no staged insertion")
	// ErrInsertionPending is returned by Submit while a caption prompt is
	// still outstanding.
	ErrInsertionPending = errors.New("authoring: insertion awaiting caption")
	// ErrTokenMismatch is returned by Submit when hand edits removed or
	// duplicated token text, so tokens no longer line up with files.
	ErrTokenMismatch = errors.New("authoring: media tokens out of step with attached files")
)

// File is one binary selected for attachment. MIME may be empty; the
// session falls back to the extension.
type File struct {
	Name string
	Path string
	MIME string
}

// Open returns the file's content for submission.
func (f File) Open() (*os.File, error) {
	return os.Open(f.Path)
}

func (f File) mediaKind() (markup.Kind, bool) {
	mimeType := f.MIME
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(f.Name))
	}
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return markup.KindImage, true
	case strings.HasPrefix(mimeType, "audio/"):
		return markup.KindAudio, true
	}
	return "", false
}

// MediaReference is one confirmed attachment: its kind, the caption embedded
// in the markup token, and the source file transmitted positionally.
type MediaReference struct {
	Kind    markup.Kind
	Caption string
	Source  File
}

// FilePicker is the surrounding environment's file-selection collaborator.
// A zero-value File means the author picked nothing.
type FilePicker interface {
	Pick(ctx context.Context, accept string) (File, error)
}

// CaptionPrompter asks the author to describe a staged attachment. ok=false
// means the prompt was dismissed, which undoes the staged insertion.
type CaptionPrompter interface {
	Caption(ctx context.Context, kind markup.Kind, defaultValue string) (caption string, ok bool, err error)
}

// Submission is the flattened output of the surface at submit time: the raw
// markup for audit, the serialized script, and the files whose order matches
// the script's token order.
type Submission struct {
	RawSurface string
	Script     string
	Files      []MediaReference
}

// Session mediates between media-insertion gestures and the pending-file
// invariant.
type Session struct {
	surface  *Surface
	pending  []MediaReference
	previews []*Preview

	picker   FilePicker
	prompter CaptionPrompter

	staged *File
	accept markup.Kind
}

// NewSession builds a session around an empty surface. Both collaborators
// may be nil when the caller drives the staged API directly.
func NewSession(picker FilePicker, prompter CaptionPrompter) *Session {
	return &Session{surface: NewSurface(), picker: picker, prompter: prompter}
}

// Surface exposes the edited document for the widget collaborator.
func (s *Session) Surface() *Surface { return s.surface }

// PendingFiles returns the confirmed attachments in insertion order.
func (s *Session) PendingFiles() []MediaReference {
	return append([]MediaReference(nil), s.pending...)
}

// BeginInsertion restricts the next file selection to the given media kind
// and returns the picker's accept pattern.
func (s *Session) BeginInsertion(kind markup.Kind) string {
	s.accept = kind
	if kind == markup.KindAudio {
		return "audio/*"
	}
	return "image/*"
}

// StageFile provisionally appends the selected file to the pending list,
// ahead of the caption prompt. It reports false for a zero-value file (the
// author picked nothing) and for a file of the wrong media kind.
func (s *Session) StageFile(file File) (bool, error) {
	if s.staged != nil {
		return false, ErrBusy
	}
	if file.Name == "" {
		return false, nil
	}
	kind, ok := file.mediaKind()
	if !ok || kind != s.accept {
		return false, errors.Errorf("authoring: %s is not a %s file", file.Name, s.accept)
	}
	s.pending = append(s.pending, MediaReference{Kind: kind, Source: file})
	s.staged = &file
	return true, nil
}

// DefaultCaption suggests the staged file's name as the caption.
func (s *Session) DefaultCaption() string {
	if s.staged == nil {
		return ""
	}
	return s.staged.Name
}

// Confirm records the caption and inserts the markup token plus a preview
// node at the current cursor, keeping token order equal to pending order.
func (s *Session) Confirm(caption string) error {
	if s.staged == nil {
		return ErrNothingStaged
	}
	kind := s.accept
	ref := &s.pending[len(s.pending)-1]
	ref.Caption = caption

	preview := openPreview(*s.staged, kind, caption)
	if preview != nil {
		s.previews = append(s.previews, preview)
	}
	s.surface.insertBlock(markup.Token(kind, caption), previewLabel(*s.staged, kind, caption))
	s.staged = nil
	return nil
}

// Cancel dismisses the caption prompt and undoes the provisional append.
// No token or preview node is inserted.
func (s *Session) Cancel() error {
	if s.staged == nil {
		return ErrNothingStaged
	}
	s.pending = s.pending[:len(s.pending)-1]
	s.staged = nil
	return nil
}

// BeginImageInsertion runs the full insertion flow for an image through the
// injected collaborators.
func (s *Session) BeginImageInsertion(ctx context.Context) error {
	return s.insertMedia(ctx, markup.KindImage)
}

// BeginAudioInsertion runs the full insertion flow for an audio clip.
func (s *Session) BeginAudioInsertion(ctx context.Context) error {
	return s.insertMedia(ctx, markup.KindAudio)
}

func (s *Session) insertMedia(ctx context.Context, kind markup.Kind) error {
	accept := s.BeginInsertion(kind)
	file, err := s.picker.Pick(ctx, accept)
	if err != nil {
		return errors.Wrap(err, "pick media file")
	}
	staged, err := s.StageFile(file)
	if err != nil || !staged {
		return err
	}
	caption, ok, err := s.prompter.Caption(ctx, kind, s.DefaultCaption())
	if err != nil {
		cancelErr := s.Cancel()
		if cancelErr != nil {
			return cancelErr
		}
		return errors.Wrap(err, "prompt for caption")
	}
	if !ok {
		return s.Cancel()
	}
	return s.Confirm(caption)
}

// Submit captures the raw surface verbatim, serializes it into the script,
// and exposes the pending files in token order.
func (s *Session) Submit() (Submission, error) {
	if s.staged != nil {
		return Submission{}, ErrInsertionPending
	}
	raw := s.surface.Render()
	script := markup.SerializeScript(raw)
	if markup.CountTokens(script) != len(s.pending) {
		return Submission{}, ErrTokenMismatch
	}
	return Submission{
		RawSurface: raw,
		Script:     script,
		Files:      s.PendingFiles(),
	}, nil
}

// Close releases every preview resource. Call when the authoring surface is
// torn down; repeated insert/cancel cycles must not leak handles.
func (s *Session) Close() error {
	var firstErr error
	for _, preview := range s.previews {
		if err := preview.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.previews = nil
	return firstErr
}

func previewLabel(file File, kind markup.Kind, caption string) string {
	if kind == markup.KindAudio {
		return "Audio Clip: " + caption
	}
	return file.Name + " (" + caption + ")"
}
