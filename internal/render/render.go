// Package render turns tutor responses into transcript entries and
// next-input affordance descriptors. Everything here is a pure function of
// its arguments; the view layer decides how descriptors become widgets.
package render

import "github.com/ppanchal/guidee/internal/chat"

// Sender identifies which side of the conversation produced an entry.
type Sender string

const (
	SenderStudent Sender = "student"
	SenderTutor   Sender = "tutor"
)

// ContentType tags what an entry's payload holds.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentAudio ContentType = "audio"
)

// Fallback captions used when the server sends media without one.
const (
	DefaultImageCaption = "View the image above"
	DefaultAudioCaption = "Listen to the clip above:"
)

// Entry is one rendered transcript line: markdown-renderable text for text
// entries, a media URL plus accessible caption otherwise.
type Entry struct {
	Sender      Sender
	ContentType ContentType
	Text        string
	MediaURL    string
	Caption     string
}

// InputMode enumerates the affordances a response can imply for the next
// turn.
type InputMode int

const (
	ModeFreeText InputMode = iota
	ModeMCQ
	ModeShortAnswer
	ModeContinue
	ModeTerminal
)

// Affordance describes the next-input surface. Question is set only for
// ModeMCQ and ModeShortAnswer; the URLs only for ModeTerminal.
type Affordance struct {
	Mode           InputMode
	Question       *chat.Question
	CertificateURL string
	NextChapterURL string
}

// Text builds a text transcript entry.
func Text(sender Sender, text string) Entry {
	return Entry{Sender: sender, ContentType: ContentText, Text: text}
}

// Media builds a media transcript entry, falling back to the fixed captions
// when the server supplied none.
func Media(mediaType chat.MediaType, url, caption string) Entry {
	if mediaType == chat.MediaAudio {
		if caption == "" {
			caption = DefaultAudioCaption
		}
		return Entry{Sender: SenderTutor, ContentType: ContentAudio, MediaURL: url, Caption: caption}
	}
	if caption == "" {
		caption = DefaultImageCaption
	}
	return Entry{Sender: SenderTutor, ContentType: ContentImage, MediaURL: url, Caption: caption}
}

// MCQ builds the multiple-choice affordance. Option order is the server's
// insertion order; it must never be re-sorted.
func MCQ(question *chat.Question) Affordance {
	return Affordance{Mode: ModeMCQ, Question: question}
}

// ShortAnswer builds the typed-answer affordance.
func ShortAnswer(question *chat.Question) Affordance {
	return Affordance{Mode: ModeShortAnswer, Question: question}
}

// Continue builds the advance-past-this-turn affordance.
func Continue() Affordance {
	return Affordance{Mode: ModeContinue}
}

// FreeText builds the open question-box affordance.
func FreeText() Affordance {
	return Affordance{Mode: ModeFreeText}
}

// Terminal builds the end-of-lesson affordance. Either URL may be empty;
// both empty means the lesson simply stops.
func Terminal(certificateURL, nextChapterURL string) Affordance {
	return Affordance{Mode: ModeTerminal, CertificateURL: certificateURL, NextChapterURL: nextChapterURL}
}
