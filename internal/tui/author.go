package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ppanchal/guidee/internal/authoring"
	"github.com/ppanchal/guidee/internal/chat"
	"github.com/ppanchal/guidee/internal/markup"
)

// ChapterSubmitter is the slice of the server protocol the authoring view
// needs.
type ChapterSubmitter interface {
	SubmitChapter(ctx context.Context, sub chat.ChapterSubmission) error
}

// AuthorConfig wires runtime options into the authoring view.
type AuthorConfig struct {
	Client   ChapterSubmitter
	CourseID string
	Logger   zerolog.Logger
}

var (
	imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}
	audioExtensions = []string{".mp3", ".wav", ".ogg", ".m4a", ".flac"}
)

// NewAuthor returns a tea.Model for composing one chapter.
func NewAuthor(cfg AuthorConfig) tea.Model {
	editor := textarea.New()
	editor.Placeholder = "Write the chapter script here…"
	editor.ShowLineNumbers = false
	editor.SetWidth(76)
	editor.SetHeight(14)
	editor.Focus()

	title := textinput.New()
	title.Placeholder = titlePlaceholder
	title.CharLimit = 200
	title.Width = 70

	caption := textinput.New()
	caption.Placeholder = captionPlaceholder
	caption.CharLimit = 300
	caption.Width = 60

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &authorModel{
		cfg:     cfg,
		session: authoring.NewSession(nil, nil),
		jobs:    newJobBus(cfg.Logger),
		log:     cfg.Logger,
		stage:   authorStageEditing,
		editor:  editor,
		title:   title,
		caption: caption,
		spinner: spin,
	}
}

type authorModel struct {
	cfg     AuthorConfig
	session *authoring.Session
	jobs    *jobBus
	log     zerolog.Logger

	stage authorStage

	editor  textarea.Model
	title   textinput.Model
	caption textinput.Model
	picker  filepicker.Model
	spinner spinner.Model

	infoMessage  string
	errorMessage string
}

type submitResultMsg struct {
	err error
}

func (m *authorModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m *authorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.stage == authorStageSubmitting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.WindowSizeMsg:
		width := msg.Width - viewportHorizontalPadding
		if width < minViewportWidth {
			width = minViewportWidth
		}
		m.editor.SetWidth(width)
		height := msg.Height - 12
		if height < 5 {
			height = 5
		}
		m.editor.SetHeight(height)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case jobSignalMsg:
		return m, nil
	case jobResultEnvelope:
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case submitResultMsg:
		if msg.err != nil {
			m.stage = authorStageEditing
			m.editor.Focus()
			m.errorMessage = msg.err.Error()
			m.infoMessage = "Submission failed. Fix the chapter and press Ctrl+S to retry."
			return m, nil
		}
		m.stage = authorStageDone
		m.errorMessage = ""
		m.infoMessage = "Chapter saved. Press q to quit."
		return m, nil
	}

	if m.stage == authorStagePicking {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m.afterPickerUpdate(msg, cmd)
	}
	return m, nil
}

func (m *authorModel) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Type == tea.KeyCtrlC {
		m.teardown()
		return m, tea.Quit
	}

	switch m.stage {
	case authorStageEditing:
		return m.handleEditingKey(key)
	case authorStagePicking:
		if key.Type == tea.KeyEsc {
			m.stage = authorStageEditing
			m.editor.Focus()
			m.infoMessage = ""
			return m, nil
		}
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(key)
		return m.afterPickerUpdate(key, cmd)
	case authorStageCaptioning:
		return m.handleCaptionKey(key)
	case authorStageDone:
		if key.String() == "q" || key.Type == tea.KeyEsc {
			m.teardown()
			return m, tea.Quit
		}
		return m, nil
	}
	return m, nil
}

func (m *authorModel) handleEditingKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyCtrlP:
		return m, m.startInsertion(markup.KindImage)
	case tea.KeyCtrlO:
		return m, m.startInsertion(markup.KindAudio)
	case tea.KeyCtrlS:
		return m, m.startSubmit()
	case tea.KeyCtrlT:
		if m.title.Focused() {
			m.title.Blur()
			m.editor.Focus()
		} else {
			m.editor.Blur()
			m.title.Focus()
		}
		return m, textinput.Blink
	}

	var cmd tea.Cmd
	if m.title.Focused() {
		if key.Type == tea.KeyEnter {
			m.title.Blur()
			m.editor.Focus()
			return m, textarea.Blink
		}
		m.title, cmd = m.title.Update(key)
		return m, cmd
	}
	m.editor, cmd = m.editor.Update(key)
	return m, cmd
}

func (m *authorModel) handleCaptionKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEnter:
		if err := m.session.Confirm(m.caption.Value()); err != nil {
			m.errorMessage = err.Error()
			return m, nil
		}
		m.syncEditorFromSurface()
		m.finishOverlay("Attachment added.")
		return m, nil
	case tea.KeyEsc:
		if err := m.session.Cancel(); err != nil {
			m.errorMessage = err.Error()
			return m, nil
		}
		m.finishOverlay("Insertion canceled.")
		return m, nil
	}
	var cmd tea.Cmd
	m.caption, cmd = m.caption.Update(key)
	return m, cmd
}

func (m *authorModel) finishOverlay(info string) {
	m.caption.Blur()
	m.caption.SetValue("")
	m.stage = authorStageEditing
	m.editor.Focus()
	m.infoMessage = info
	m.errorMessage = ""
}

// startInsertion pushes the current editor text into the surface, then
// opens the file picker restricted to the requested media kind.
func (m *authorModel) startInsertion(kind markup.Kind) tea.Cmd {
	m.syncSurface()
	m.session.BeginInsertion(kind)

	picker := filepicker.New()
	if kind == markup.KindAudio {
		picker.AllowedTypes = audioExtensions
	} else {
		picker.AllowedTypes = imageExtensions
	}
	if home, err := os.UserHomeDir(); err == nil {
		picker.CurrentDirectory = home
	}
	m.picker = picker
	m.stage = authorStagePicking
	m.editor.Blur()
	m.infoMessage = "Pick a file to attach. Esc cancels."
	m.errorMessage = ""
	return m.picker.Init()
}

func (m *authorModel) afterPickerUpdate(msg tea.Msg, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if didSelect, path := m.picker.DidSelectDisabledFile(msg); didSelect {
		m.errorMessage = filepath.Base(path) + " is not allowed here."
		return m, cmd
	}
	didSelect, path := m.picker.DidSelectFile(msg)
	if !didSelect {
		return m, cmd
	}
	file := authoring.File{Name: filepath.Base(path), Path: path}
	staged, err := m.session.StageFile(file)
	if err != nil {
		m.stage = authorStageEditing
		m.editor.Focus()
		m.errorMessage = err.Error()
		return m, cmd
	}
	if !staged {
		m.stage = authorStageEditing
		m.editor.Focus()
		return m, cmd
	}
	m.stage = authorStageCaptioning
	m.caption.SetValue(m.session.DefaultCaption())
	m.caption.Focus()
	m.infoMessage = "Describe the attachment, then press Enter. Esc undoes it."
	m.errorMessage = ""
	return m, tea.Batch(cmd, textinput.Blink)
}

func (m *authorModel) startSubmit() tea.Cmd {
	title := strings.TrimSpace(m.title.Value())
	if title == "" {
		m.errorMessage = "Give the chapter a title first (Ctrl+T)."
		return nil
	}
	m.syncSurface()
	sub, err := m.session.Submit()
	if err != nil {
		if errors.Is(err, authoring.ErrInsertionPending) {
			m.errorMessage = "Finish the pending attachment before submitting."
		} else {
			m.errorMessage = err.Error()
		}
		return nil
	}
	m.stage = authorStageSubmitting
	m.infoMessage = "Saving chapter…"
	m.errorMessage = ""
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindSubmit, m.submitJob(title, sub)))
}

func (m *authorModel) submitJob(title string, sub authoring.Submission) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		files := make([]chat.MediaFile, 0, len(sub.Files))
		var handles []*os.File
		defer func() {
			for _, handle := range handles {
				_ = handle.Close()
			}
		}()
		for _, ref := range sub.Files {
			handle, err := ref.Source.Open()
			if err != nil {
				err = errors.Wrapf(err, "open attachment %s", ref.Source.Name)
				return submitResultMsg{err: err}, err
			}
			handles = append(handles, handle)
			files = append(files, chat.MediaFile{Name: ref.Source.Name, Content: handle})
		}
		err := m.cfg.Client.SubmitChapter(ctx, chat.ChapterSubmission{
			CourseID: m.cfg.CourseID,
			Title:    title,
			RawHTML:  sub.RawSurface,
			Script:   sub.Script,
			Files:    files,
		})
		return submitResultMsg{err: err}, err
	}
}

func (m *authorModel) teardown() {
	if err := m.session.Close(); err != nil {
		m.log.Warn().Err(err).Msg("release attachment previews")
	}
}

// syncSurface pushes the editor's text and cursor into the session's
// surface so insertions land where the author is typing.
func (m *authorModel) syncSurface() {
	m.session.Surface().ApplyEdit(m.editor.Value(), m.cursorOffset())
}

func (m *authorModel) syncEditorFromSurface() {
	surface := m.session.Surface()
	m.editor.SetValue(surface.Render())
	m.setCursorOffset(surface.Cursor())
}

// cursorOffset converts the textarea's row/column cursor into a byte
// offset in its value.
func (m *authorModel) cursorOffset() int {
	value := m.editor.Value()
	lines := strings.Split(value, "\n")
	row := m.editor.Line()
	info := m.editor.LineInfo()
	col := info.StartColumn + info.ColumnOffset

	offset := 0
	for i := 0; i < row && i < len(lines); i++ {
		offset += len(lines[i]) + 1
	}
	if row >= 0 && row < len(lines) {
		runes := []rune(lines[row])
		if col > len(runes) {
			col = len(runes)
		}
		offset += len(string(runes[:col]))
	}
	return offset
}

// setCursorOffset moves the textarea cursor to a byte offset. SetValue
// leaves the cursor at the end, so this only ever walks upward.
func (m *authorModel) setCursorOffset(offset int) {
	value := m.editor.Value()
	if offset > len(value) {
		offset = len(value)
	}
	if offset < 0 {
		offset = 0
	}
	prefix := value[:offset]
	row := strings.Count(prefix, "\n")
	lastNewline := strings.LastIndexByte(prefix, '\n')
	col := utf8.RuneCountInString(prefix[lastNewline+1:])
	for m.editor.Line() > row {
		m.editor.CursorUp()
	}
	m.editor.SetCursor(col)
}
