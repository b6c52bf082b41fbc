package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ppanchal/guidee/internal/chat"
	"github.com/ppanchal/guidee/internal/conversation"
	"github.com/ppanchal/guidee/internal/history"
	"github.com/ppanchal/guidee/internal/render"
	"github.com/ppanchal/guidee/internal/transcript"
)

// LessonConfig wires runtime options into the lesson view.
type LessonConfig struct {
	Client         conversation.Client
	Store          *transcript.Store
	RequestTimeout time.Duration
	Logger         zerolog.Logger
}

// NewLesson returns a tea.Model running one tutoring conversation.
func NewLesson(cfg LessonConfig) tea.Model {
	composer := textinput.New()
	composer.Placeholder = composerAskPlaceholder
	composer.CharLimit = 500
	composer.Width = 70

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	return &lessonModel{
		cfg: cfg,
		controller: conversation.New(conversation.Config{
			Client:         cfg.Client,
			RequestTimeout: cfg.RequestTimeout,
			Logger:         cfg.Logger,
		}),
		store:           cfg.Store,
		jobs:            newJobBus(cfg.Logger),
		log:             cfg.Logger,
		stage:           lessonStageWorking,
		composer:        composer,
		spinner:         spin,
		viewport:        vp,
		markdown:        newMarkdownRenderer(76),
		affordance:      render.FreeText(),
		infoMessage:     thinkingMessage,
		transcriptDirty: true,
	}
}

type lessonModel struct {
	cfg        LessonConfig
	controller *conversation.Controller
	store      *transcript.Store
	jobs       *jobBus
	log        zerolog.Logger

	stage      lessonStage
	affordance render.Affordance
	entries    []render.Entry
	mcqCursor  int

	composer textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	markdown *markdownRenderer

	infoMessage     string
	errorMessage    string
	transcriptDirty bool
}

type turnResultMsg struct {
	replay []render.Entry
	resp   *chat.Response
	err    error
}

type resetResultMsg struct {
	res *chat.ActionResult
	err error
}

type deleteResultMsg struct {
	res *chat.ActionResult
	err error
}

func (m *lessonModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.jobs.Start(jobKindTurn, m.startJob(true)),
	)
}

func (m *lessonModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.stage == lessonStageWorking {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		newWidth := msg.Width - viewportHorizontalPadding
		if newWidth < minViewportWidth {
			newWidth = minViewportWidth
		}
		m.viewport.Width = newWidth
		height := msg.Height - 10
		if height < 5 {
			height = 5
		}
		m.viewport.Height = height
		m.markdown = newMarkdownRenderer(newWidth)
		m.markTranscriptDirty()
		return m, nil
	case jobSignalMsg:
		return m, nil
	case jobResultEnvelope:
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case turnResultMsg:
		return m.finishTurn(msg)
	case resetResultMsg:
		return m.finishReset(msg)
	case deleteResultMsg:
		return m.finishDelete(msg)
	}
	return m, nil
}

func (m *lessonModel) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.stage == lessonStageConfirmReset {
		switch key.String() {
		case "y", "enter":
			return m, m.submitReset()
		case "n", "esc":
			m.restoreStage()
			m.infoMessage = ""
			return m, nil
		}
		return m, nil
	}

	switch key.Type {
	case tea.KeyCtrlR:
		if m.stage == lessonStageWorking {
			return m, nil
		}
		m.stage = lessonStageConfirmReset
		return m, nil
	case tea.KeyCtrlD:
		if m.stage == lessonStageWorking {
			return m, nil
		}
		return m, m.submitDelete()
	}

	if m.stage == lessonStageWorking {
		return m, nil
	}

	switch m.affordance.Mode {
	case render.ModeFreeText:
		return m.handleComposerKey(key, m.submitFreeText)
	case render.ModeShortAnswer:
		return m.handleComposerKey(key, m.submitShortAnswer)
	case render.ModeMCQ:
		return m.handleMCQKey(key)
	case render.ModeContinue:
		// The question box stays live next to Continue: a bare Enter
		// advances the lesson, Enter on typed text asks the tutor.
		if key.Type == tea.KeyEnter {
			if strings.TrimSpace(m.composer.Value()) == "" {
				return m, m.submitContinue()
			}
			return m, m.submitFreeText()
		}
		var cmd tea.Cmd
		m.composer, cmd = m.composer.Update(key)
		return m, cmd
	case render.ModeTerminal:
		if key.String() == "q" || key.Type == tea.KeyEsc {
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(key)
	return m, cmd
}

func (m *lessonModel) handleComposerKey(key tea.KeyMsg, submit func() tea.Cmd) (tea.Model, tea.Cmd) {
	if key.Type == tea.KeyEnter {
		return m, submit()
	}
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(key)
	return m, cmd
}

func (m *lessonModel) handleMCQKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	options := m.mcqOptions()
	switch key.String() {
	case "up", "k":
		if m.mcqCursor > 0 {
			m.mcqCursor--
		}
		return m, nil
	case "down", "j":
		if m.mcqCursor < len(options)-1 {
			m.mcqCursor++
		}
		return m, nil
	case "enter":
		if m.mcqCursor < 0 || m.mcqCursor >= len(options) {
			return m, nil
		}
		choice := options[m.mcqCursor]
		return m, m.submitAnswer(choice.Key, choice.Key+": "+choice.Label)
	}
	return m, nil
}

func (m *lessonModel) mcqOptions() []chat.Option {
	if m.affordance.Question == nil {
		return nil
	}
	return m.affordance.Question.Options
}

// Submission paths. Each claims the turn on the runtime loop, echoes the
// student entry immediately, then hands the round trip to a job.

func (m *lessonModel) submitFreeText() tea.Cmd {
	sub, err := m.controller.BeginFreeText(m.composer.Value())
	if !m.checkClaim(err) {
		return nil
	}
	m.composer.SetValue("")
	return m.launchTurn(sub)
}

func (m *lessonModel) submitShortAnswer() tea.Cmd {
	value := m.composer.Value()
	sub, err := m.controller.BeginAnswer(value, value)
	if !m.checkClaim(err) {
		return nil
	}
	m.composer.SetValue("")
	return m.launchTurn(sub)
}

func (m *lessonModel) submitAnswer(value, echo string) tea.Cmd {
	sub, err := m.controller.BeginAnswer(value, echo)
	if !m.checkClaim(err) {
		return nil
	}
	return m.launchTurn(sub)
}

func (m *lessonModel) submitContinue() tea.Cmd {
	sub, err := m.controller.BeginContinue()
	if !m.checkClaim(err) {
		return nil
	}
	return m.launchTurn(sub)
}

func (m *lessonModel) checkClaim(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, conversation.ErrBlankInput):
		m.infoMessage = "Type something first."
		return false
	case errors.Is(err, conversation.ErrBusy):
		m.infoMessage = "Hold on, the previous request is still running."
		return false
	default:
		m.errorMessage = err.Error()
		return false
	}
}

func (m *lessonModel) launchTurn(sub *conversation.Submission) tea.Cmd {
	if sub.Echo != nil {
		m.appendEntries(*sub.Echo)
	}
	m.stage = lessonStageWorking
	m.infoMessage = thinkingMessage
	m.errorMessage = ""
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindTurn, m.turnJob(sub)))
}

func (m *lessonModel) turnJob(sub *conversation.Submission) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		resp, err := m.controller.Execute(ctx, sub)
		return turnResultMsg{resp: resp, err: err}, err
	}
}

// startJob claims the automatic first turn. With load set it rehydrates
// the transcript from disk first; reset and delete restarts skip that.
func (m *lessonModel) startJob(load bool) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		var records []history.Record
		if load && m.store != nil {
			var err error
			records, err = m.store.Load()
			if err != nil {
				m.log.Warn().Err(err).Msg("load local transcript")
				records = nil
			}
		}
		replay, sub, err := m.controller.Start(records)
		if err != nil {
			return turnResultMsg{err: err}, err
		}
		resp, err := m.controller.Execute(ctx, sub)
		return turnResultMsg{replay: replay, resp: resp, err: err}, err
	}
}

func (m *lessonModel) finishTurn(msg turnResultMsg) (tea.Model, tea.Cmd) {
	if len(msg.replay) > 0 {
		m.entries = append(m.entries, msg.replay...)
		m.markTranscriptDirty()
	}
	outcome := m.controller.Finish(msg.resp, msg.err)
	if len(outcome.Entries) > 0 {
		m.appendEntries(outcome.Entries...)
	}
	m.affordance = outcome.Affordance
	m.errorMessage = ""
	m.infoMessage = ""
	if outcome.Failed {
		m.errorMessage = outcome.Notice
	}
	m.mcqCursor = 0
	m.applyAffordance()
	return m, nil
}

func (m *lessonModel) applyAffordance() {
	switch m.affordance.Mode {
	case render.ModeTerminal:
		m.stage = lessonStageDone
		m.composer.Blur()
	case render.ModeFreeText:
		m.stage = lessonStageInput
		m.composer.Placeholder = composerAskPlaceholder
		m.composer.Focus()
	case render.ModeShortAnswer:
		m.stage = lessonStageInput
		m.composer.Placeholder = composerAnswerPlaceholder
		m.composer.Focus()
	case render.ModeContinue:
		m.stage = lessonStageInput
		m.composer.Placeholder = composerAskPlaceholder
		m.composer.Focus()
	default:
		m.stage = lessonStageInput
		m.composer.Blur()
	}
}

// restoreStage re-derives the visible stage from the current affordance,
// used when an overlay or failed action hands control back.
func (m *lessonModel) restoreStage() {
	m.applyAffordance()
}

// Reset and delete-last-turn. Both stay available after the lesson ends.

func (m *lessonModel) submitReset() tea.Cmd {
	if err := m.controller.BeginReset(); err != nil {
		m.restoreStage()
		m.infoMessage = "Hold on, the previous request is still running."
		return nil
	}
	m.stage = lessonStageWorking
	m.infoMessage = "Resetting…"
	m.errorMessage = ""
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindReset, func(ctx context.Context) (tea.Msg, error) {
		res, err := m.controller.ExecuteReset(ctx)
		return resetResultMsg{res: res, err: err}, err
	}))
}

func (m *lessonModel) finishReset(msg resetResultMsg) (tea.Model, tea.Cmd) {
	outcome := m.controller.FinishReset(msg.res, msg.err)
	if !outcome.Reload {
		m.errorMessage = outcome.Notice
		m.restoreStage()
		return m, nil
	}
	if m.store != nil {
		if err := m.store.Reset(); err != nil {
			m.log.Warn().Err(err).Msg("discard local transcript")
		}
	}
	m.entries = nil
	m.affordance = render.FreeText()
	m.markTranscriptDirty()
	m.stage = lessonStageWorking
	m.infoMessage = thinkingMessage
	m.errorMessage = ""
	return m, tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindTurn, m.startJob(false)))
}

func (m *lessonModel) submitDelete() tea.Cmd {
	if err := m.controller.BeginDeleteLastTurn(); err != nil {
		m.infoMessage = "Hold on, the previous request is still running."
		return nil
	}
	m.stage = lessonStageWorking
	m.infoMessage = "Deleting…"
	m.errorMessage = ""
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindDelete, func(ctx context.Context) (tea.Msg, error) {
		res, err := m.controller.ExecuteDeleteLastTurn(ctx)
		return deleteResultMsg{res: res, err: err}, err
	}))
}

func (m *lessonModel) finishDelete(msg deleteResultMsg) (tea.Model, tea.Cmd) {
	outcome := m.controller.FinishDeleteLastTurn(msg.res, msg.err)
	if !outcome.Reload {
		m.errorMessage = outcome.Notice
		m.restoreStage()
		return m, nil
	}
	if m.store != nil {
		if err := m.store.TrimLastTurn(); err != nil {
			m.log.Warn().Err(err).Msg("trim local transcript")
		}
	}
	m.entries = trimLastExchange(m.entries)
	m.affordance = render.FreeText()
	m.markTranscriptDirty()
	m.stage = lessonStageWorking
	m.infoMessage = thinkingMessage
	m.errorMessage = ""
	return m, tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindTurn, m.startJob(false)))
}

func (m *lessonModel) appendEntries(entries ...render.Entry) {
	m.entries = append(m.entries, entries...)
	m.markTranscriptDirty()
	if m.store == nil {
		return
	}
	records := make([]history.Record, 0, len(entries))
	for _, entry := range entries {
		records = append(records, transcript.FromEntry(entry))
	}
	if err := m.store.Append(records...); err != nil {
		m.log.Warn().Err(err).Msg("persist transcript entries")
	}
}

func (m *lessonModel) markTranscriptDirty() {
	m.transcriptDirty = true
}

// trimLastExchange drops trailing tutor entries plus the student entry
// that opened the exchange, mirroring what the server deletes.
func trimLastExchange(entries []render.Entry) []render.Entry {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Sender == render.SenderStudent {
			return entries[:i]
		}
	}
	return nil
}
