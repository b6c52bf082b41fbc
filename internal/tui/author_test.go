package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/ppanchal/guidee/internal/authoring"
	"github.com/ppanchal/guidee/internal/chat"
	"github.com/ppanchal/guidee/internal/markup"
)

type fakeSubmitter struct {
	last  chat.ChapterSubmission
	err   error
	calls int
}

func (f *fakeSubmitter) SubmitChapter(_ context.Context, sub chat.ChapterSubmission) error {
	f.calls++
	f.last = sub
	return f.err
}

func newTestAuthor(t *testing.T, submitter *fakeSubmitter) *authorModel {
	t.Helper()
	m, ok := NewAuthor(AuthorConfig{Client: submitter, CourseID: "42", Logger: zerolog.Nop()}).(*authorModel)
	if !ok {
		t.Fatal("NewAuthor did not return an *authorModel")
	}
	return m
}

func stageTempImage(t *testing.T, m *authorModel) authoring.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "diagram.png")
	if err := os.WriteFile(path, []byte("png bytes"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	file := authoring.File{Name: "diagram.png", Path: path}
	m.session.BeginInsertion(markup.KindImage)
	staged, err := m.session.StageFile(file)
	if err != nil || !staged {
		t.Fatalf("stage fixture: staged=%v err=%v", staged, err)
	}
	return file
}

func TestCursorOffsetRoundTrip(t *testing.T) {
	m := newTestAuthor(t, &fakeSubmitter{})
	m.editor.SetValue("hello\nworld")

	if got := m.cursorOffset(); got != len("hello\nworld") {
		t.Fatalf("offset after SetValue = %d, want end", got)
	}
	m.setCursorOffset(3)
	if got := m.cursorOffset(); got != 3 {
		t.Fatalf("offset = %d, want 3", got)
	}
	m.setCursorOffset(8)
	if got := m.cursorOffset(); got != 8 {
		t.Fatalf("offset = %d, want 8", got)
	}
}

func TestCaptionConfirmInsertsTokenAndPreview(t *testing.T) {
	m := newTestAuthor(t, &fakeSubmitter{})
	m.editor.SetValue("Look at this:\n")
	m.syncSurface()
	stageTempImage(t, m)
	m.stage = authorStageCaptioning
	m.caption.SetValue("a sorting diagram")

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.stage != authorStageEditing {
		t.Fatalf("stage = %v, want editing", m.stage)
	}
	value := m.editor.Value()
	if !strings.Contains(value, `[IMAGE: alt="a sorting diagram"]`) {
		t.Fatalf("token missing from editor: %q", value)
	}
	if !strings.Contains(value, markup.PreviewPrefix) {
		t.Fatalf("preview line missing from editor: %q", value)
	}
	pending := m.session.PendingFiles()
	if len(pending) != 1 || pending[0].Caption != "a sorting diagram" {
		t.Fatalf("pending files = %+v", pending)
	}
}

func TestCaptionEscUndoesTheAttachment(t *testing.T) {
	m := newTestAuthor(t, &fakeSubmitter{})
	m.editor.SetValue("before")
	m.syncSurface()
	stageTempImage(t, m)
	m.stage = authorStageCaptioning

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if len(m.session.PendingFiles()) != 0 {
		t.Fatal("canceled attachment still pending")
	}
	if got := m.editor.Value(); got != "before" {
		t.Fatalf("editor changed on cancel: %q", got)
	}
	if m.stage != authorStageEditing {
		t.Fatalf("stage = %v, want editing", m.stage)
	}
}

func TestSubmitRequiresTitle(t *testing.T) {
	submitter := &fakeSubmitter{}
	m := newTestAuthor(t, submitter)
	m.editor.SetValue("body")

	if cmd := m.startSubmit(); cmd != nil {
		t.Fatal("submit should be rejected without a title")
	}
	if submitter.calls != 0 {
		t.Fatalf("submitter called %d times", submitter.calls)
	}
	if m.errorMessage == "" {
		t.Fatal("expected a title error message")
	}
}

func TestSubmitRejectedWhileCaptionPending(t *testing.T) {
	m := newTestAuthor(t, &fakeSubmitter{})
	m.title.SetValue("Chapter One")
	stageTempImage(t, m)

	if cmd := m.startSubmit(); cmd != nil {
		t.Fatal("submit should be rejected with a staged attachment")
	}
	if !strings.Contains(m.errorMessage, "pending attachment") {
		t.Fatalf("error = %q", m.errorMessage)
	}
}

func TestSubmitJobPostsScriptAndOrderedFiles(t *testing.T) {
	submitter := &fakeSubmitter{}
	m := newTestAuthor(t, submitter)
	m.editor.SetValue("Intro paragraph.\n")
	m.syncSurface()
	m.session.Surface().SetCursor(len(m.editor.Value()))
	stageTempImage(t, m)
	if err := m.session.Confirm("the diagram"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	m.syncEditorFromSurface()

	sub, err := m.session.Submit()
	if err != nil {
		t.Fatalf("session submit: %v", err)
	}
	msg, err := m.submitJob("Chapter One", sub)(context.Background())
	if err != nil {
		t.Fatalf("submit job: %v", err)
	}
	result, ok := msg.(submitResultMsg)
	if !ok || result.err != nil {
		t.Fatalf("unexpected result %+v", msg)
	}

	if submitter.last.CourseID != "42" || submitter.last.Title != "Chapter One" {
		t.Fatalf("submission header = %+v", submitter.last)
	}
	if !strings.Contains(submitter.last.Script, `[IMAGE: alt="the diagram"]`) {
		t.Fatalf("script missing token: %q", submitter.last.Script)
	}
	if strings.Contains(submitter.last.Script, markup.PreviewPrefix) {
		t.Fatalf("preview leaked into script: %q", submitter.last.Script)
	}
	if len(submitter.last.Files) != 1 || submitter.last.Files[0].Name != "diagram.png" {
		t.Fatalf("files = %+v", submitter.last.Files)
	}

	m.Update(submitResultMsg{})
	if m.stage != authorStageDone {
		t.Fatalf("stage = %v, want done", m.stage)
	}
}

func TestSubmitFailureReturnsToEditing(t *testing.T) {
	m := newTestAuthor(t, &fakeSubmitter{})
	m.stage = authorStageSubmitting

	m.Update(submitResultMsg{err: os.ErrDeadlineExceeded})

	if m.stage != authorStageEditing {
		t.Fatalf("stage = %v, want editing", m.stage)
	}
	if m.errorMessage == "" {
		t.Fatal("expected the failure surfaced")
	}
}
