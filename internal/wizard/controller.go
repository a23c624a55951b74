package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"kpr/internal/logger"
)

// ErrNoSession is returned when an action needs a draft bound to a user and
// property but the stored draft is unbound.
var ErrNoSession = errors.New("draft is not bound to a session")

type userSession struct {
	mu          sync.Mutex
	attachments *AttachmentSet
	// dropped is set once Sweep has removed the session from the map.
	dropped bool
}

// Controller owns every user's draft. Each action for a user runs to
// completion before the next one starts, and every mutation is written through
// to the DraftStore. Attachments stay in this process and are never persisted.
type Controller struct {
	store *DraftStore

	mu       sync.Mutex
	sessions map[string]*userSession
}

// NewController creates a Controller backed by store.
func NewController(store *DraftStore) *Controller {
	return &Controller{
		store:    store,
		sessions: make(map[string]*userSession),
	}
}

func (c *Controller) session(userID string) *userSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[userID]
	if !ok {
		s = &userSession{attachments: NewAttachmentSet()}
		c.sessions[userID] = s
	}
	return s
}

// lock returns the user's session with its mutex held, retrying when the
// session was swept while this caller waited for it.
func (c *Controller) lock(userID string) *userSession {
	for {
		s := c.session(userID)
		s.mu.Lock()
		if !s.dropped {
			return s
		}
		s.mu.Unlock()
	}
}

// load reads the user's draft. Attachments held for a draft that has expired
// or was rebound elsewhere are released.
func (c *Controller) load(ctx context.Context, userID string, s *userSession) (*Draft, error) {
	d, err := c.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !boundTo(d, userID) && s.attachments.Len() > 0 {
		s.attachments = NewAttachmentSet()
	}
	return d, nil
}

func boundTo(d *Draft, userID string) bool {
	return d.UserID != nil && *d.UserID == userID
}

// Enter is the step-entry guard. If the stored draft is not bound to
// (userID, property.ID) it is discarded along with any live attachments, then
// rebound. The returned flag reports whether that happened.
func (c *Controller) Enter(ctx context.Context, userID string, property PropertyDetail) (*Draft, bool, error) {
	s := c.lock(userID)
	defer s.mu.Unlock()

	discarded := false
	d, err := c.store.Load(ctx, userID)
	switch {
	case errors.Is(err, ErrCorruptDraft):
		logger.Get().Warnw("replacing unreadable draft", "user_id", userID, "error", err)
		d, discarded = NewDraft(), true
	case err != nil:
		return nil, false, err
	}

	if !d.IsValidSession(userID, property.ID) {
		discarded = discarded || d.UserID != nil || len(d.FormData) > 0 || d.CurrentStep > 0
		d.Reset()
		d.InitSession(userID, property.ID)
		s.attachments = NewAttachmentSet()
	}
	d.SetProperty(property)

	if err := c.store.Save(ctx, userID, d); err != nil {
		return nil, false, err
	}
	return d.Snapshot(), discarded, nil
}

// Current returns the stored draft without changing it.
func (c *Controller) Current(ctx context.Context, userID string) (*Draft, error) {
	s := c.lock(userID)
	defer s.mu.Unlock()

	d, err := c.load(ctx, userID, s)
	if err != nil {
		return nil, err
	}
	return d.Snapshot(), nil
}

// Next merges stepData and advances.
func (c *Controller) Next(ctx context.Context, userID string, stepData FormData) (*Draft, error) {
	return c.mutate(ctx, userID, func(d *Draft) { d.Next(stepData) })
}

// Prev steps back.
func (c *Controller) Prev(ctx context.Context, userID string) (*Draft, error) {
	return c.mutate(ctx, userID, (*Draft).Prev)
}

// UpdateForm merges data without moving.
func (c *Controller) UpdateForm(ctx context.Context, userID string, data FormData) (*Draft, error) {
	return c.mutate(ctx, userID, func(d *Draft) { d.UpdateForm(data) })
}

// SetCurrentStep jumps to a clamped step.
func (c *Controller) SetCurrentStep(ctx context.Context, userID string, step int) (*Draft, error) {
	return c.mutate(ctx, userID, func(d *Draft) { d.SetCurrentStep(step) })
}

// Reset clears the draft and drops live attachments.
func (c *Controller) Reset(ctx context.Context, userID string) (*Draft, error) {
	s := c.lock(userID)
	defer s.mu.Unlock()

	d := NewDraft()
	if err := c.store.Save(ctx, userID, d); err != nil {
		return nil, err
	}
	s.attachments = NewAttachmentSet()
	return d.Snapshot(), nil
}

// Attach validates a and keeps it in memory for the user's bound draft.
func (c *Controller) Attach(ctx context.Context, userID string, a Attachment, maxBytes int64) error {
	if err := a.Validate(maxBytes); err != nil {
		return err
	}

	s := c.lock(userID)
	defer s.mu.Unlock()

	d, err := c.load(ctx, userID, s)
	if err != nil {
		return err
	}
	if !boundTo(d, userID) {
		return ErrNoSession
	}
	a.Size = int64(len(a.Data))
	s.attachments.Put(a)
	return nil
}

// Detach removes one live attachment.
func (c *Controller) Detach(userID, field string) {
	s := c.lock(userID)
	defer s.mu.Unlock()
	s.attachments.Remove(field)
}

// Attachments lists the live attachments of the user's bound draft. Nothing
// is listed once the draft has expired or been reset.
func (c *Controller) Attachments(ctx context.Context, userID string) ([]Attachment, error) {
	s := c.lock(userID)
	defer s.mu.Unlock()

	if _, err := c.load(ctx, userID, s); err != nil {
		return nil, err
	}
	return s.attachments.List(), nil
}

// Submit hands the bound draft and its attachments to fn. When fn succeeds
// the draft is reset, so a draft is submitted at most once. When fn fails
// nothing changes. Once fn has succeeded Submit reports success even if the
// reset cannot be stored; the stored draft is then deleted instead.
func (c *Controller) Submit(ctx context.Context, userID string, fn func(d *Draft, attachments *AttachmentSet) error) error {
	s := c.lock(userID)
	defer s.mu.Unlock()

	d, err := c.load(ctx, userID, s)
	if err != nil {
		return err
	}
	if !boundTo(d, userID) || d.PropertyID == nil {
		return ErrNoSession
	}
	if err := fn(d, s.attachments); err != nil {
		return err
	}

	d.Reset()
	s.attachments = NewAttachmentSet()
	if err := c.store.Save(ctx, userID, d); err != nil {
		log := logger.Get()
		log.Errorw("failed to reset submitted draft", "user_id", userID, "error", err)
		if err := c.store.Delete(ctx, userID); err != nil {
			log.Errorw("failed to delete submitted draft", "user_id", userID, "error", err)
		}
	}
	return nil
}

// Sweep releases the sessions whose stored draft has expired, been reset or
// cannot be read, and returns how many were released.
func (c *Controller) Sweep(ctx context.Context) int {
	c.mu.Lock()
	sessions := make(map[string]*userSession, len(c.sessions))
	for userID, s := range c.sessions {
		sessions[userID] = s
	}
	c.mu.Unlock()

	released := 0
	for userID, s := range sessions {
		if ctx.Err() != nil {
			break
		}
		if c.release(ctx, userID, s) {
			released++
		}
	}
	return released
}

func (c *Controller) release(ctx context.Context, userID string, s *userSession) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropped {
		return false
	}

	d, err := c.store.Load(ctx, userID)
	switch {
	case errors.Is(err, ErrCorruptDraft):
	case err != nil:
		logger.Get().Warnw("draft sweep skipped user", "user_id", userID, "error", err)
		return false
	case boundTo(d, userID):
		return false
	}

	c.mu.Lock()
	if c.sessions[userID] == s {
		delete(c.sessions, userID)
	}
	c.mu.Unlock()
	s.dropped = true
	s.attachments = nil
	return true
}

// SweepEvery runs Sweep on every tick of interval until ctx is done.
func (c *Controller) SweepEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := c.Sweep(ctx); n > 0 {
				logger.Get().Debugw("released idle draft sessions", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Sessions reports how many users currently hold a live session.
func (c *Controller) Sessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

func (c *Controller) mutate(ctx context.Context, userID string, action func(*Draft)) (*Draft, error) {
	s := c.lock(userID)
	defer s.mu.Unlock()

	d, err := c.load(ctx, userID, s)
	if err != nil {
		return nil, err
	}
	action(d)
	if err := c.store.Save(ctx, userID, d); err != nil {
		return nil, err
	}
	return d.Snapshot(), nil
}
