package conversation

import (
	"context"

	"github.com/ppanchal/guidee/internal/chat"
	"github.com/ppanchal/guidee/internal/render"
)

// ActionOutcome is the result of a reset or delete-last-turn action.
// Reload means the transcript was abandoned server-side and the view must
// be rebuilt from scratch (a fresh Start). Notice carries the failure text
// to surface; the transcript is left untouched in that case.
type ActionOutcome struct {
	Reload bool
	Notice string
}

// BeginReset claims the reset action. The caller is responsible for user
// confirmation before calling; while the reset is in flight all turn
// submission is disabled.
func (c *Controller) BeginReset() error {
	return c.claimAction()
}

// ExecuteReset performs the reset round trip.
func (c *Controller) ExecuteReset(ctx context.Context) (*chat.ActionResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.client.Reset(ctx)
}

// FinishReset consumes the reset result. On success the controller returns
// to StateIdle so the caller can Start again on an empty transcript; on
// failure the prior state is restored unchanged.
func (c *Controller) FinishReset(res *chat.ActionResult, err error) ActionOutcome {
	return c.finishAction(res, err, "Could not reset conversation.")
}

// BeginDeleteLastTurn claims the delete-last-turn action, guarded like any
// other submission.
func (c *Controller) BeginDeleteLastTurn() error {
	return c.claimAction()
}

// ExecuteDeleteLastTurn performs the delete round trip.
func (c *Controller) ExecuteDeleteLastTurn(ctx context.Context) (*chat.ActionResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.client.DeleteLastTurn(ctx)
}

// FinishDeleteLastTurn consumes the delete result. A server-supplied
// message is surfaced verbatim.
func (c *Controller) FinishDeleteLastTurn(res *chat.ActionResult, err error) ActionOutcome {
	return c.finishAction(res, err, "Could not delete the last turn.")
}

// claimAction is the reset/delete variant of claim: unlike turn
// submissions these remain available in StateTerminal, since both buttons
// stay live on an ended lesson.
func (c *Controller) claimAction() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateAwaitingServer {
		return ErrBusy
	}
	c.prevState = c.state
	c.state = StateAwaitingServer
	return nil
}

func (c *Controller) finishAction(res *chat.ActionResult, err error, fallback string) ActionOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil && res != nil && res.Success {
		c.state = StateIdle
		c.lastAffordance = render.FreeText()
		return ActionOutcome{Reload: true}
	}
	c.state = c.prevState
	notice := fallback
	if err != nil {
		c.log.Error().Err(err).Msg("conversation action failed")
	} else if res != nil && res.Message != "" {
		notice = res.Message
	}
	return ActionOutcome{Notice: notice}
}
