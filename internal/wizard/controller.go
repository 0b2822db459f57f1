// Package wizard drives a form session through the five listing steps.
package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"rental-admin-console/internal/formstore"
	"rental-admin-console/internal/models"

	"go.uber.org/zap"
)

type Step int

const (
	Step1 Step = iota + 1 // vehicle facts and target user
	Step2                 // photos, documents, ownership
	Step3                 // features, pricing, driver service, availability
	Step4                 // review
	Step5                 // confirmation and submit
	Done
)

func (s Step) String() string {
	switch s {
	case Step1, Step2, Step3, Step4, Step5:
		return fmt.Sprintf("step%d", int(s))
	case Done:
		return "done"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

func (s Step) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

var (
	ErrNotAtSubmit = errors.New("submit is only available on the last step")
	ErrFinished    = errors.New("wizard already submitted")

	// ErrResetAfterSubmit means the listing was accepted but the draft could not be cleared.
	ErrResetAfterSubmit = errors.New("listing submitted but the draft was not reset")
)

// View is what observers receive after every step or state change.
type View struct {
	SessionID string           `json:"sessionId"`
	Step      Step             `json:"step"`
	State     models.FormState `json:"state"`
}

type Controller struct {
	store    *formstore.Store
	logger   *zap.Logger
	onChange func(View)

	// busy serializes navigation and submit; it is never held by observers.
	busy sync.Mutex

	mu   sync.Mutex
	step Step

	unsubscribe func()
}

func NewController(store *formstore.Store, onChange func(View), logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		store:    store,
		logger:   logger.With(zap.String("sessionID", store.SessionID())),
		onChange: onChange,
		step:     Step1,
	}
	c.unsubscribe = store.Subscribe(func(st models.FormState) {
		c.publish(st)
	})
	return c
}

func (c *Controller) Store() *formstore.Store { return c.store }

func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

func (c *Controller) View() View {
	return View{SessionID: c.store.SessionID(), Step: c.Step(), State: c.store.Snapshot()}
}

func (c *Controller) setStep(s Step) {
	c.mu.Lock()
	c.step = s
	c.mu.Unlock()
	c.publish(c.store.Snapshot())
}

func (c *Controller) publish(st models.FormState) {
	if c.onChange == nil {
		return
	}
	c.onChange(View{SessionID: c.store.SessionID(), Step: c.Step(), State: st})
}

// Next advances one step when the current step's guard passes. Otherwise the
// step is unchanged and the returned *apperr.ValidationError names the missing fields.
func (c *Controller) Next(ctx context.Context) (Step, error) {
	c.busy.Lock()
	defer c.busy.Unlock()

	cur := c.Step()
	switch cur {
	case Done:
		return cur, ErrFinished
	case Step5:
		return cur, ErrNotAtSubmit
	}
	if err := Check(cur, c.store.Snapshot()); err != nil {
		c.logger.Debug("step guard failed", zap.Stringer("step", cur), zap.Error(err))
		return cur, err
	}
	c.setStep(cur + 1)
	return cur + 1, nil
}

// Prev goes back one step. It never validates.
func (c *Controller) Prev() (Step, error) {
	c.busy.Lock()
	defer c.busy.Unlock()

	cur := c.Step()
	switch cur {
	case Done:
		return cur, ErrFinished
	case Step1:
		return cur, nil
	}
	c.setStep(cur - 1)
	return cur - 1, nil
}

// Submit sends the listing from Step5. On success the store is reset and the
// wizard is Done; on failure it stays on Step5 with the draft unchanged.
// If only the reset fails, the backend response is returned together with an
// error wrapping ErrResetAfterSubmit, and the wizard is still Done.
func (c *Controller) Submit(ctx context.Context) (json.RawMessage, error) {
	c.busy.Lock()
	defer c.busy.Unlock()

	switch c.Step() {
	case Done:
		return nil, ErrFinished
	case Step5:
	default:
		return nil, ErrNotAtSubmit
	}

	resp, err := c.store.SubmitListing(ctx)
	if err != nil {
		return nil, err
	}
	// Done before the reset, so observers never see Step5 with an empty draft.
	c.mu.Lock()
	c.step = Done
	c.mu.Unlock()
	if err := c.store.Reset(ctx); err != nil {
		c.logger.Error("failed to reset store after submit", zap.Error(err))
		c.publish(c.store.Snapshot())
		return resp, fmt.Errorf("%w: %w", ErrResetAfterSubmit, err)
	}
	return resp, nil
}

// Reset clears the draft and returns to Step1.
func (c *Controller) Reset(ctx context.Context) error {
	c.busy.Lock()
	defer c.busy.Unlock()

	if err := c.store.Reset(ctx); err != nil {
		return err
	}
	c.setStep(Step1)
	return nil
}

func (c *Controller) close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}
