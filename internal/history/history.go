// Package history rehydrates a persisted transcript into renderable entries
// before the conversation controller resumes live interaction.
package history

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/ppanchal/guidee/internal/chat"
	"github.com/ppanchal/guidee/internal/render"
)

// Record is one persisted turn. Text records carry sender and content;
// media records carry a URL and accessible caption.
type Record struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Sender  string `json:"sender,omitempty"`
	Content string `json:"content,omitempty"`
	URL     string `json:"url,omitempty"`
	Alt     string `json:"alt,omitempty"`
}

// Parse decodes a persisted transcript document.
func Parse(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Replay maps each record to its transcript entry. Unknown or malformed
// records are skipped with a warning; one corrupt entry must never block
// the rest of the transcript.
func Replay(records []Record, log zerolog.Logger) []render.Entry {
	entries := make([]render.Entry, 0, len(records))
	for i, record := range records {
		switch record.Type {
		case "text":
			sender := render.Sender(record.Sender)
			if sender != render.SenderStudent && sender != render.SenderTutor {
				sender = render.SenderTutor
			}
			entries = append(entries, render.Text(sender, record.Content))
		case "image":
			entries = append(entries, render.Media(chat.MediaImage, record.URL, record.Alt))
		case "audio":
			entries = append(entries, render.Media(chat.MediaAudio, record.URL, record.Alt))
		default:
			log.Warn().Int("index", i).Str("type", record.Type).Msg("skipping unknown history record")
		}
	}
	return entries
}
