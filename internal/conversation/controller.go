// Package conversation implements the client-side state machine that drives
// a lesson: turn submission, intent routing for free text, and the
// response-shape dispatch that decides what to render and which input
// affordance comes next.
//
// Transitions are split into Begin/Execute/Finish so guards and state
// changes stay synchronous on the caller's loop while the network round
// trip runs on a worker: Begin validates and claims the in-flight slot,
// Execute performs the HTTP exchange, Finish consumes the result.
package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ppanchal/guidee/internal/chat"
	"github.com/ppanchal/guidee/internal/history"
	"github.com/ppanchal/guidee/internal/render"
)

// State is the controller's position in the conversation lifecycle.
type State int

const (
	// StateIdle is transient: entered once at construction, left by Start.
	StateIdle State = iota
	// StateAwaitingServer means a request is in flight; every
	// turn-submitting affordance is disabled.
	StateAwaitingServer
	// StateAwaitingInput means the student owes the next turn.
	StateAwaitingInput
	// StateTerminal has no outgoing transitions; the only escape is the
	// certificate or next-chapter link.
	StateTerminal
)

var (
	// ErrBusy rejects a submission while another request is in flight.
	ErrBusy = errors.New("conversation: a request is already in flight")
	// ErrTerminal rejects submissions after the lesson has ended.
	ErrTerminal = errors.New("conversation: the lesson has ended")
	// ErrBlankInput rejects empty free text and empty answers locally,
	// before any request is sent.
	ErrBlankInput = errors.New("conversation: input is blank")
	// ErrNotIdle rejects a second Start on a live controller.
	ErrNotIdle = errors.New("conversation: already started")
)

// Client is the slice of the tutor server protocol the controller needs.
type Client interface {
	Chat(ctx context.Context, userInput *string, requestType chat.RequestType) (*chat.Response, error)
	ClassifyIntent(ctx context.Context, userInput string) (*chat.Intent, error)
	Reset(ctx context.Context) (*chat.ActionResult, error)
	DeleteLastTurn(ctx context.Context) (*chat.ActionResult, error)
}

// Config wires the controller's collaborators.
type Config struct {
	Client Client
	// RequestTimeout bounds one Execute round trip. Zero means no bound,
	// matching the original behavior; setting it keeps a hung request from
	// pinning the machine in StateAwaitingServer forever.
	RequestTimeout time.Duration
	Logger         zerolog.Logger
}

// Controller owns one lesson conversation.
type Controller struct {
	client  Client
	timeout time.Duration
	log     zerolog.Logger

	mu             sync.Mutex
	state          State
	prevState      State
	lastAffordance render.Affordance
}

// New returns a controller in StateIdle.
func New(cfg Config) *Controller {
	return &Controller{
		client:         cfg.Client,
		timeout:        cfg.RequestTimeout,
		log:            cfg.Logger,
		state:          StateIdle,
		lastAffordance: render.FreeText(),
	}
}

// State reports the current machine state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether a request is in flight. This is the sole guard
// checked before any user-initiated submission.
func (c *Controller) Busy() bool {
	return c.State() == StateAwaitingServer
}

// Submission describes one claimed turn: the student entry to echo into the
// transcript immediately, plus what Execute should send.
type Submission struct {
	Echo *render.Entry

	userInput   *string
	requestType chat.RequestType
	classify    bool
	original    string
}

// Outcome is the result of finishing a turn: transcript entries to append,
// the next input affordance, and an optional transient notice.
type Outcome struct {
	Entries    []render.Entry
	Affordance render.Affordance
	Notice     string
	Failed     bool
}

// Start replays any prior transcript into entries and claims the first
// automatic turn: a LESSON_FLOW submission with no user input, letting the
// server decide whether to resume, advance, or end the lesson.
func (c *Controller) Start(prior []history.Record) ([]render.Entry, *Submission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return nil, nil, ErrNotIdle
	}
	c.prevState = c.state
	c.state = StateAwaitingServer
	entries := history.Replay(prior, c.log)
	return entries, &Submission{requestType: chat.RequestLessonFlow}, nil
}

// BeginFreeText claims a free-text turn. Blank input is rejected locally.
// The text is routed through the intent classifier during Execute.
func (c *Controller) BeginFreeText(text string) (*Submission, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrBlankInput
	}
	if err := c.claim(); err != nil {
		return nil, err
	}
	echo := render.Text(render.SenderStudent, text)
	return &Submission{
		Echo:      &echo,
		userInput: &text,
		classify:  true,
		original:  text,
	}, nil
}

// BeginAnswer claims a structured answer turn: an MCQ key or a short
// answer, submitted as LESSON_FLOW. echo is the student-visible form of the
// answer ("A: label" for MCQ); empty means nothing is echoed.
func (c *Controller) BeginAnswer(value, echo string) (*Submission, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrBlankInput
	}
	if err := c.claim(); err != nil {
		return nil, err
	}
	sub := &Submission{userInput: &value, requestType: chat.RequestLessonFlow}
	if echo != "" {
		entry := render.Text(render.SenderStudent, echo)
		sub.Echo = &entry
	}
	return sub, nil
}

// BeginContinue claims the advance-past-this-turn submission.
func (c *Controller) BeginContinue() (*Submission, error) {
	if err := c.claim(); err != nil {
		return nil, err
	}
	value := chat.ContinueToken
	return &Submission{userInput: &value, requestType: chat.RequestLessonFlow}, nil
}

func (c *Controller) claim() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateAwaitingServer:
		return ErrBusy
	case StateTerminal:
		return ErrTerminal
	}
	c.prevState = c.state
	c.state = StateAwaitingServer
	return nil
}

// Execute performs the network round trip for a claimed submission. It does
// not touch machine state, so it is safe to run on a worker; pass its
// result to Finish on the caller's loop.
func (c *Controller) Execute(ctx context.Context, sub *Submission) (*chat.Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	userInput := sub.userInput
	requestType := sub.requestType
	if sub.classify {
		intent, err := c.client.ClassifyIntent(ctx, sub.original)
		if err != nil {
			return nil, err
		}
		if intent.Intent == chat.IntentMediaRequest {
			requestType = chat.RequestMediaRequest
			alt := intent.AltText
			userInput = &alt
		} else {
			requestType = chat.RequestQnA
			query := intent.Query
			if query == "" {
				query = sub.original
			}
			userInput = &query
		}
	}
	return c.client.Chat(ctx, userInput, requestType)
}

// Finish consumes the response (or transport failure) of the in-flight
// turn and performs the response-shape dispatch. The dispatch order is
// total and its precedence is part of the protocol: a QnA answer
// short-circuits everything else, then lesson end, then an embedded
// question, then the default Continue.
func (c *Controller) Finish(resp *chat.Response, err error) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		// Input must re-enable; a failed request never pins the machine
		// in StateAwaitingServer. A failed Start leaves the controller
		// idle so it can be retried.
		c.state = c.prevState
		c.log.Error().Err(err).Msg("turn failed")
		return Outcome{
			Affordance: c.lastAffordance,
			Notice:     "The tutor could not be reached. Please try again.",
			Failed:     true,
		}
	}

	var entries []render.Entry
	if resp.TutorText != "" {
		entries = append(entries, render.Text(render.SenderTutor, resp.TutorText))
	}
	if resp.MediaURL != "" {
		entries = append(entries, render.Media(resp.MediaType, resp.MediaURL, ""))
	}

	affordance := c.dispatch(resp)
	if affordance.Mode == render.ModeTerminal {
		c.state = StateTerminal
	} else {
		c.state = StateAwaitingInput
	}
	c.lastAffordance = affordance
	return Outcome{Entries: entries, Affordance: affordance}
}

func (c *Controller) dispatch(resp *chat.Response) render.Affordance {
	if resp.IsQnAResponse {
		return render.Continue()
	}
	if resp.IsLessonEnd {
		return render.Terminal(resp.CertificateURL, resp.NextChapterURL)
	}
	if resp.Question != nil {
		switch resp.Question.Type {
		case chat.QuestionMCQ:
			return render.MCQ(resp.Question)
		case chat.QuestionSA:
			return render.ShortAnswer(resp.Question)
		default:
			c.log.Warn().Str("type", string(resp.Question.Type)).Msg("unknown question type")
		}
	}
	return render.Continue()
}
