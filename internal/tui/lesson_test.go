package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/ppanchal/guidee/internal/chat"
	"github.com/ppanchal/guidee/internal/render"
)

type fakeTutor struct {
	chatResp  *chat.Response
	chatErr   error
	intent    *chat.Intent
	intentErr error
	actionRes *chat.ActionResult
	actionErr error

	lastInput *string
	lastType  chat.RequestType
	chatCalls int
}

func (f *fakeTutor) Chat(_ context.Context, userInput *string, requestType chat.RequestType) (*chat.Response, error) {
	f.chatCalls++
	f.lastInput = userInput
	f.lastType = requestType
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	if f.chatResp != nil {
		return f.chatResp, nil
	}
	return &chat.Response{TutorText: "ok"}, nil
}

func (f *fakeTutor) ClassifyIntent(_ context.Context, _ string) (*chat.Intent, error) {
	if f.intentErr != nil {
		return nil, f.intentErr
	}
	if f.intent != nil {
		return f.intent, nil
	}
	return &chat.Intent{Intent: "QNA"}, nil
}

func (f *fakeTutor) Reset(_ context.Context) (*chat.ActionResult, error) {
	return f.actionRes, f.actionErr
}

func (f *fakeTutor) DeleteLastTurn(_ context.Context) (*chat.ActionResult, error) {
	return f.actionRes, f.actionErr
}

func newTestLesson(t *testing.T, tutor *fakeTutor) *lessonModel {
	t.Helper()
	m, ok := NewLesson(LessonConfig{Client: tutor, Logger: zerolog.Nop()}).(*lessonModel)
	if !ok {
		t.Fatal("NewLesson did not return a *lessonModel")
	}
	return m
}

func startLesson(t *testing.T, m *lessonModel) {
	t.Helper()
	msg, _ := m.startJob(false)(context.Background())
	m.Update(msg)
}

func TestLessonStartRequestsFlowWithNoInput(t *testing.T) {
	tutor := &fakeTutor{chatResp: &chat.Response{TutorText: "Welcome to the lesson."}}
	m := newTestLesson(t, tutor)
	startLesson(t, m)

	if tutor.chatCalls != 1 {
		t.Fatalf("chat calls = %d, want 1", tutor.chatCalls)
	}
	if tutor.lastType != chat.RequestLessonFlow {
		t.Fatalf("request type = %q, want %q", tutor.lastType, chat.RequestLessonFlow)
	}
	if tutor.lastInput != nil {
		t.Fatalf("first turn user input = %q, want nil", *tutor.lastInput)
	}
	if m.stage != lessonStageInput {
		t.Fatalf("stage = %v, want input", m.stage)
	}
	if len(m.entries) != 1 || m.entries[0].Text != "Welcome to the lesson." {
		t.Fatalf("unexpected transcript entries: %+v", m.entries)
	}
	if m.affordance.Mode != render.ModeContinue {
		t.Fatalf("affordance = %v, want continue", m.affordance.Mode)
	}
}

func TestContinueEnterWithEmptyComposerAdvances(t *testing.T) {
	m := newTestLesson(t, &fakeTutor{})
	startLesson(t, m)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.stage != lessonStageWorking {
		t.Fatalf("stage = %v, want working after enter", m.stage)
	}
	if m.infoMessage != thinkingMessage {
		t.Fatalf("info = %q, want thinking message", m.infoMessage)
	}
}

func TestContinueEnterWithTypedTextAsksTheTutor(t *testing.T) {
	m := newTestLesson(t, &fakeTutor{})
	startLesson(t, m)

	m.composer.SetValue("what is recursion?")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.stage != lessonStageWorking {
		t.Fatalf("stage = %v, want working", m.stage)
	}
	last := m.entries[len(m.entries)-1]
	if last.Sender != render.SenderStudent || last.Text != "what is recursion?" {
		t.Fatalf("student echo missing, got %+v", last)
	}
	if m.composer.Value() != "" {
		t.Fatalf("composer not cleared: %q", m.composer.Value())
	}
}

func TestMCQSelectionEchoesKeyAndLabel(t *testing.T) {
	question := &chat.Question{
		Type:    chat.QuestionMCQ,
		Prompt:  "Pick one.",
		Options: chat.Options{{Key: "A", Label: "first"}, {Key: "B", Label: "second"}},
	}
	tutor := &fakeTutor{chatResp: &chat.Response{TutorText: "Quiz time.", Question: question}}
	m := newTestLesson(t, tutor)
	startLesson(t, m)

	if m.affordance.Mode != render.ModeMCQ {
		t.Fatalf("affordance = %v, want MCQ", m.affordance.Mode)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	last := m.entries[len(m.entries)-1]
	if last.Text != "B: second" {
		t.Fatalf("echo = %q, want %q", last.Text, "B: second")
	}
	if m.stage != lessonStageWorking {
		t.Fatalf("stage = %v, want working", m.stage)
	}
}

func TestTurnFailureShowsNoticeAndReenablesInput(t *testing.T) {
	m := newTestLesson(t, &fakeTutor{})
	startLesson(t, m)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(turnResultMsg{err: errors.New("boom")})

	if m.stage != lessonStageInput {
		t.Fatalf("stage = %v, want input restored", m.stage)
	}
	if m.errorMessage == "" {
		t.Fatal("failure notice missing")
	}
	if m.affordance.Mode != render.ModeContinue {
		t.Fatalf("affordance = %v, want prior continue", m.affordance.Mode)
	}
}

func TestResetRequiresConfirmation(t *testing.T) {
	tutor := &fakeTutor{actionRes: &chat.ActionResult{Success: true}}
	m := newTestLesson(t, tutor)
	startLesson(t, m)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.stage != lessonStageConfirmReset {
		t.Fatalf("stage = %v, want confirm overlay", m.stage)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	if m.stage != lessonStageInput {
		t.Fatalf("stage = %v, want input after declining", m.stage)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	if m.stage != lessonStageWorking {
		t.Fatalf("stage = %v, want working while reset runs", m.stage)
	}
	if m.infoMessage != "Resetting…" {
		t.Fatalf("info = %q", m.infoMessage)
	}
}

func TestResetSuccessClearsTranscriptAndRestarts(t *testing.T) {
	m := newTestLesson(t, &fakeTutor{})
	startLesson(t, m)
	if len(m.entries) == 0 {
		t.Fatal("expected a transcript before reset")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	_, cmd := m.Update(resetResultMsg{res: &chat.ActionResult{Success: true}})

	if len(m.entries) != 0 {
		t.Fatalf("transcript not cleared: %+v", m.entries)
	}
	if cmd == nil {
		t.Fatal("expected a restart command after reset")
	}
	if m.stage != lessonStageWorking {
		t.Fatalf("stage = %v, want working", m.stage)
	}
}

func TestResetFailureKeepsTranscript(t *testing.T) {
	m := newTestLesson(t, &fakeTutor{})
	startLesson(t, m)
	before := len(m.entries)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	m.Update(resetResultMsg{res: &chat.ActionResult{Success: false, Message: "nothing to reset"}})

	if len(m.entries) != before {
		t.Fatalf("transcript changed on failed reset")
	}
	if m.errorMessage != "nothing to reset" {
		t.Fatalf("notice = %q, want server message", m.errorMessage)
	}
	if m.stage != lessonStageInput {
		t.Fatalf("stage = %v, want input restored", m.stage)
	}
}

func TestDeleteSuccessTrimsLastExchange(t *testing.T) {
	m := newTestLesson(t, &fakeTutor{})
	startLesson(t, m)
	m.entries = []render.Entry{
		render.Text(render.SenderTutor, "intro"),
		render.Text(render.SenderStudent, "question"),
		render.Text(render.SenderTutor, "answer"),
	}

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	if m.infoMessage != "Deleting…" {
		t.Fatalf("info = %q", m.infoMessage)
	}
	m.Update(deleteResultMsg{res: &chat.ActionResult{Success: true}})

	if len(m.entries) != 1 || m.entries[0].Text != "intro" {
		t.Fatalf("trim left %+v", m.entries)
	}
}

func TestTrimLastExchange(t *testing.T) {
	student := render.Text(render.SenderStudent, "q")
	tutor := render.Text(render.SenderTutor, "a")
	cases := []struct {
		name    string
		entries []render.Entry
		want    int
	}{
		{"empty", nil, 0},
		{"tutor only", []render.Entry{tutor, tutor}, 0},
		{"full exchange", []render.Entry{tutor, student, tutor}, 1},
		{"trailing student", []render.Entry{tutor, student}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := len(trimLastExchange(tc.entries)); got != tc.want {
				t.Fatalf("len = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestLessonEndShowsLinksAndQuits(t *testing.T) {
	tutor := &fakeTutor{chatResp: &chat.Response{
		TutorText:      "All done!",
		IsLessonEnd:    true,
		CertificateURL: "https://example.com/cert/7",
	}}
	m := newTestLesson(t, tutor)
	startLesson(t, m)

	if m.stage != lessonStageDone {
		t.Fatalf("stage = %v, want done", m.stage)
	}
	view := m.View()
	if !strings.Contains(view, "https://example.com/cert/7") {
		t.Fatal("certificate link missing from view")
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should quit on an ended lesson")
	}
}

func TestResetStaysAvailableAfterLessonEnd(t *testing.T) {
	tutor := &fakeTutor{chatResp: &chat.Response{IsLessonEnd: true}}
	m := newTestLesson(t, tutor)
	startLesson(t, m)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.stage != lessonStageConfirmReset {
		t.Fatalf("stage = %v, want confirm overlay after lesson end", m.stage)
	}
}

func TestSubmissionBlockedWhileWorking(t *testing.T) {
	m := newTestLesson(t, &fakeTutor{})
	startLesson(t, m)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.stage != lessonStageWorking {
		t.Fatalf("stage = %v, want working", m.stage)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.stage != lessonStageWorking {
		t.Fatalf("second enter changed stage to %v", m.stage)
	}
}
