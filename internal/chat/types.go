package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RequestType selects server-side handling of a submitted turn.
type RequestType string

const (
	RequestLessonFlow   RequestType = "LESSON_FLOW"
	RequestQnA          RequestType = "QNA"
	RequestMediaRequest RequestType = "MEDIA_REQUEST"
)

// ContinueToken is the literal payload that advances past informational or
// pure-media turns.
const ContinueToken = "Continue"

// MediaType tags the media payload of a tutor response.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaAudio MediaType = "audio"
)

// QuestionType distinguishes the two typed-question shapes.
type QuestionType string

const (
	QuestionMCQ QuestionType = "QUESTION_MCQ"
	QuestionSA  QuestionType = "QUESTION_SA"
)

// Option is one multiple-choice answer, keyed by a short selector like "A".
type Option struct {
	Key   string
	Label string
}

// Options holds multiple-choice answers in the order the server sent them.
// The key-to-label mapping is positionally meaningful to the student, so a
// plain map (with its randomized iteration) cannot carry it.
type Options []Option

// UnmarshalJSON walks the raw object token by token so that insertion order
// survives decoding.
func (o *Options) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("chat: options must be a JSON object, got %v", tok)
	}
	var parsed Options
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("chat: option key is not a string: %v", keyTok)
		}
		var label string
		if err := dec.Decode(&label); err != nil {
			return err
		}
		parsed = append(parsed, Option{Key: key, Label: label})
	}
	*o = parsed
	return nil
}

// MarshalJSON writes the options back out as an object in stored order.
func (o Options) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, opt := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(opt.Key)
		if err != nil {
			return nil, err
		}
		label, err := json.Marshal(opt.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(label)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Question is a pending prompt embedded in a tutor response.
type Question struct {
	Type    QuestionType `json:"type"`
	Prompt  string       `json:"question"`
	Options Options      `json:"options,omitempty"`
}

// Request is the body of POST /chat.
type Request struct {
	LessonID    string      `json:"lesson_id"`
	UserInput   *string     `json:"user_input"`
	RequestType RequestType `json:"request_type"`
}

// Response is one tutor reply. Its shape, not an explicit state tag, drives
// the client's rendering dispatch.
type Response struct {
	TutorText      string    `json:"tutor_text,omitempty"`
	MediaURL       string    `json:"media_url,omitempty"`
	MediaType      MediaType `json:"media_type,omitempty"`
	IsQnAResponse  bool      `json:"is_qna_response,omitempty"`
	IsLessonEnd    bool      `json:"is_lesson_end,omitempty"`
	CertificateURL string    `json:"certificate_url,omitempty"`
	NextChapterURL string    `json:"next_chapter_url,omitempty"`
	Question       *Question `json:"question,omitempty"`
}

// IntentMediaRequest labels free text the classifier recognized as a
// request to re-show media.
const IntentMediaRequest = "MEDIA_REQUEST"

// Intent is the classifier's verdict on a free-text turn.
type Intent struct {
	Intent  string `json:"intent"`
	AltText string `json:"alt_text,omitempty"`
	Query   string `json:"query,omitempty"`
}

// ActionResult reports the outcome of a reset or delete-last-turn call.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
