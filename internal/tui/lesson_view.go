package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/ppanchal/guidee/internal/render"
)

func (m *lessonModel) View() string {
	m.refreshTranscriptIfDirty()
	parts := []string{m.headerView(), m.viewport.View()}
	if m.stage == lessonStageConfirmReset {
		parts = append(parts, overlayStyle.Render(joinNonEmpty([]string{
			sectionHeaderStyle.Render("Start over?"),
			"This will erase the conversation and restart the lesson.",
			helperStyle.Render("y: reset • n: keep going"),
		})))
	} else {
		parts = append(parts, m.affordanceView())
	}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		message := m.infoMessage
		if m.stage == lessonStageWorking {
			message = fmt.Sprintf("%s %s", m.spinner.View(), message)
		}
		parts = append(parts, helperStyle.Render(message))
	}
	parts = append(parts, m.footerView())
	return joinNonEmpty(parts)
}

func (m *lessonModel) headerView() string {
	return titleStyle.Render("Guidee") + "  " + taglineStyle.Render(heroTagline)
}

func (m *lessonModel) affordanceView() string {
	if m.stage == lessonStageWorking {
		return ""
	}
	switch m.affordance.Mode {
	case render.ModeFreeText:
		return joinNonEmpty([]string{
			sectionHeaderStyle.Render("Your turn"),
			m.composer.View(),
		})
	case render.ModeShortAnswer:
		parts := []string{sectionHeaderStyle.Render("Answer")}
		if q := m.affordance.Question; q != nil && q.Prompt != "" {
			parts = append(parts, wordwrap.String(q.Prompt, m.viewport.Width))
		}
		parts = append(parts, m.composer.View())
		return joinNonEmpty(parts)
	case render.ModeMCQ:
		return m.mcqView()
	case render.ModeContinue:
		return joinNonEmpty([]string{
			sectionHeaderStyle.Render("Your turn"),
			m.composer.View(),
			helperStyle.Render("Enter on an empty box continues the lesson."),
		})
	case render.ModeTerminal:
		return m.terminalView()
	}
	return ""
}

func (m *lessonModel) mcqView() string {
	parts := []string{sectionHeaderStyle.Render("Choose an answer")}
	if q := m.affordance.Question; q != nil && q.Prompt != "" {
		parts = append(parts, wordwrap.String(q.Prompt, m.viewport.Width))
	}
	var b strings.Builder
	for idx, option := range m.mcqOptions() {
		line := option.Key + ": " + option.Label
		if idx == m.mcqCursor {
			b.WriteString(optionCurrentStyle.Render("▸ " + line))
		} else {
			b.WriteString(optionStyle.Render(line))
		}
		b.WriteRune('\n')
	}
	parts = append(parts, strings.TrimRight(b.String(), "\n"))
	parts = append(parts, helperStyle.Render("↑/↓: move • Enter: answer"))
	return joinNonEmpty(parts)
}

func (m *lessonModel) terminalView() string {
	parts := []string{sectionHeaderStyle.Render("Lesson complete! 🎉")}
	if m.affordance.CertificateURL != "" {
		parts = append(parts, linkStyle.Render("View Your Certificate!")+"  "+helperStyle.Render(m.affordance.CertificateURL))
	}
	if m.affordance.NextChapterURL != "" {
		parts = append(parts, linkStyle.Render("Go to Next Chapter")+"  "+helperStyle.Render(m.affordance.NextChapterURL))
	}
	parts = append(parts, helperStyle.Render("q: quit"))
	return joinNonEmpty(parts)
}

func (m *lessonModel) footerView() string {
	return statusBarStyle.Render("Ctrl+R reset • Ctrl+D delete last turn • Ctrl+C quit")
}

func (m *lessonModel) refreshTranscriptIfDirty() {
	if !m.transcriptDirty {
		return
	}
	m.transcriptDirty = false
	blocks := make([]string, 0, len(m.entries))
	for _, entry := range m.entries {
		blocks = append(blocks, m.renderEntry(entry))
	}
	m.viewport.SetContent(strings.Join(blocks, "\n\n"))
	m.viewport.GotoBottom()
}

func (m *lessonModel) renderEntry(entry render.Entry) string {
	switch entry.ContentType {
	case render.ContentImage:
		return mediaStyle.Render("[image] "+entry.Caption) + "\n" + helperStyle.Render(entry.MediaURL)
	case render.ContentAudio:
		return mediaStyle.Render("[audio] "+entry.Caption) + "\n" + helperStyle.Render(entry.MediaURL)
	}
	if entry.Sender == render.SenderStudent {
		return studentLabelStyle.Render("You") + "\n" + wordwrap.String(entry.Text, m.viewport.Width)
	}
	return tutorLabelStyle.Render("Tutor") + "\n" + m.markdown.Render(entry.Text)
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}
