package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ppanchal/guidee/internal/chat"
	"github.com/ppanchal/guidee/internal/transcript"
	"github.com/ppanchal/guidee/internal/tui"
)

var learnCmd = &cobra.Command{
	Use:   "learn <lesson-id>",
	Short: "Follow a tutoring lesson",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lessonID := args[0]
		cfg := loadConfig()

		log, closer, err := openLogger(cfg)
		if err != nil {
			return errors.Wrap(err, "open log file")
		}
		defer closer.Close()
		log = log.With().Str("lesson", lessonID).Logger()

		client := chat.NewClient(chat.Config{
			BaseURL:   cfg.ServerURL,
			LessonID:  lessonID,
			CSRFToken: cfg.CSRFToken,
		})
		store := transcript.NewStore(cfg.TranscriptDir, lessonID)

		opts := []tea.ProgramOption{}
		if !flagNoAltScreen {
			opts = append(opts, tea.WithAltScreen())
		}
		program := tea.NewProgram(
			tui.NewLesson(tui.LessonConfig{
				Client:         client,
				Store:          store,
				RequestTimeout: cfg.RequestTimeout,
				Logger:         log,
			}),
			opts...,
		)
		_, err = program.Run()
		return errors.Wrap(err, "run lesson")
	},
}

func init() {
	rootCmd.AddCommand(learnCmd)
}
