package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ppanchal/guidee/internal/chat"
	"github.com/ppanchal/guidee/internal/tui"
)

var authorCmd = &cobra.Command{
	Use:   "author <course-id>",
	Short: "Compose a chapter with inline images and audio",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		courseID := args[0]
		cfg := loadConfig()

		log, closer, err := openLogger(cfg)
		if err != nil {
			return errors.Wrap(err, "open log file")
		}
		defer closer.Close()
		log = log.With().Str("course", courseID).Logger()

		client := chat.NewClient(chat.Config{
			BaseURL:   cfg.ServerURL,
			CSRFToken: cfg.CSRFToken,
		})

		opts := []tea.ProgramOption{}
		if !flagNoAltScreen {
			opts = append(opts, tea.WithAltScreen())
		}
		program := tea.NewProgram(
			tui.NewAuthor(tui.AuthorConfig{
				Client:   client,
				CourseID: courseID,
				Logger:   log,
			}),
			opts...,
		)
		_, err = program.Run()
		return errors.Wrap(err, "run author")
	},
}

func init() {
	rootCmd.AddCommand(authorCmd)
}
