package tui

import (
	"fmt"
	"strings"

	"github.com/ppanchal/guidee/internal/markup"
)

func (m *authorModel) View() string {
	switch m.stage {
	case authorStagePicking:
		return joinNonEmpty([]string{
			m.authorHeader(),
			overlayStyle.Render(joinNonEmpty([]string{
				sectionHeaderStyle.Render("Attach a file"),
				m.picker.View(),
				helperStyle.Render("Enter: select • Esc: cancel"),
			})),
			m.messageLines(),
		})
	case authorStageCaptioning:
		return joinNonEmpty([]string{
			m.authorHeader(),
			overlayStyle.Render(joinNonEmpty([]string{
				sectionHeaderStyle.Render("Caption"),
				m.caption.View(),
				helperStyle.Render("Enter: confirm • Esc: undo the attachment"),
			})),
			m.messageLines(),
		})
	case authorStageDone:
		return joinNonEmpty([]string{
			m.authorHeader(),
			sectionHeaderStyle.Render("Chapter saved."),
			m.messageLines(),
		})
	}

	return joinNonEmpty([]string{
		m.authorHeader(),
		joinNonEmpty([]string{sectionHeaderStyle.Render("Title"), m.title.View()}),
		joinNonEmpty([]string{sectionHeaderStyle.Render("Script"), m.editor.View()}),
		m.attachmentsView(),
		m.messageLines(),
		statusBarStyle.Render("Ctrl+P image • Ctrl+O audio • Ctrl+T title • Ctrl+S submit • Ctrl+C quit"),
	})
}

func (m *authorModel) authorHeader() string {
	return titleStyle.Render("Guidee Author") + "  " + taglineStyle.Render("Compose a chapter, attachments included.")
}

func (m *authorModel) attachmentsView() string {
	pending := m.session.PendingFiles()
	if len(pending) == 0 {
		return ""
	}
	lines := []string{sectionHeaderStyle.Render("Attachments")}
	for idx, ref := range pending {
		kind := "image"
		if ref.Kind == markup.KindAudio {
			kind = "audio"
		}
		lines = append(lines, previewStyle.Render(fmt.Sprintf("%d. [%s] %s (%s)", idx+1, kind, ref.Source.Name, ref.Caption)))
	}
	return strings.Join(lines, "\n")
}

func (m *authorModel) messageLines() string {
	parts := []string{}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		message := m.infoMessage
		if m.stage == authorStageSubmitting {
			message = fmt.Sprintf("%s %s", m.spinner.View(), message)
		}
		parts = append(parts, helperStyle.Render(message))
	}
	return joinNonEmpty(parts)
}
