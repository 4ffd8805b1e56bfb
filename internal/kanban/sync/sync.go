// Package sync persists finished gestures. Every failure is caught here and
// handed back as a value; nothing escapes into the gesture handler as a panic.
package sync

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"nexus/internal/api"
	"nexus/internal/kanban/dnd"
	"nexus/internal/logs"
)

// FailureKind classifies a persistence failure.
type FailureKind int

const (
	FailureTransport FailureKind = iota
	FailureTimeout
	FailureHTTP
)

func (k FailureKind) String() string {
	switch k {
	case FailureTimeout:
		return "timeout"
	case FailureHTTP:
		return "http"
	default:
		return "transport"
	}
}

// Failure wraps the error of a rejected or unreachable update.
type Failure struct {
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	if f.Kind == FailureHTTP {
		return fmt.Sprintf("sync: server rejected update (%d): %v", f.StatusCode, f.Err)
	}
	return fmt.Sprintf("sync: %s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Classify turns any error from the API layer into a *Failure.
func Classify(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return &Failure{Kind: FailureHTTP, StatusCode: apiErr.StatusCode, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Failure{Kind: FailureTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Failure{Kind: FailureTimeout, Err: err}
	}
	return &Failure{Kind: FailureTransport, Err: err}
}

// Updater is the slice of the API client the syncer needs.
type Updater interface {
	UpdateCard(ctx context.Context, boardID, listID, cardID string, req api.UpdateCardRequest) error
	UpdateList(ctx context.Context, boardID, listID string, req api.UpdateListRequest) error
}

// Invalidator drops cached copies of a board after it changes.
type Invalidator interface {
	Invalidate(ctx context.Context, boardID string) error
}

// CardPosition moves a card. FromListID is where the server files the card
// today; ListID is where it should end up.
type CardPosition struct {
	BoardID    string
	CardID     string
	FromListID string
	ListID     string
	Position   float64
}

// ListPosition moves a list.
type ListPosition struct {
	BoardID  string
	ListID   string
	Position float64
}

// Syncer sends position updates to the API.
type Syncer struct {
	api   Updater
	cache Invalidator
	// Timeout bounds one whole commit. Zero leaves ctx as is.
	Timeout time.Duration
}

// New returns a Syncer. cache may be nil.
func New(u Updater, cache Invalidator) *Syncer {
	return &Syncer{api: u, cache: cache}
}

// UpdateCardPosition persists one card's list and position.
func (s *Syncer) UpdateCardPosition(ctx context.Context, p CardPosition) error {
	req := api.UpdateCardRequest{Position: &p.Position}
	if p.ListID != "" && p.ListID != p.FromListID {
		req.ListID = &p.ListID
	}
	from := p.FromListID
	if from == "" {
		from = p.ListID
	}
	if err := s.api.UpdateCard(ctx, p.BoardID, from, p.CardID, req); err != nil {
		return Classify(err)
	}
	return nil
}

// UpdateListPosition persists one list's position.
func (s *Syncer) UpdateListPosition(ctx context.Context, p ListPosition) error {
	if err := s.api.UpdateList(ctx, p.BoardID, p.ListID, api.UpdateListRequest{Position: &p.Position}); err != nil {
		return Classify(err)
	}
	return nil
}

// Commit sends every update of a gesture in order and stops at the first
// failure. It never panics; a panicking transport becomes a FailureTransport.
func (s *Syncer) Commit(ctx context.Context, c dnd.Commit) (res dnd.Result) {
	res.Seq = c.Seq
	entry := logs.Logger.WithFields(logrus.Fields{"gesture": c.Seq, "board_id": c.BoardID})

	applied := 0
	defer func() {
		if r := recover(); r != nil {
			res.Err = &Failure{Kind: FailureTransport, Err: fmt.Errorf("panic: %v", r)}
			res.Partial = applied > 0
			entry.WithField("panic", r).Error("commit panicked")
		}
	}()

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	// Any applied update has changed the server, so cached copies go stale
	// even when a later one fails.
	invalidate := func() {
		if s.cache == nil || applied == 0 {
			return
		}
		if err := s.cache.Invalidate(context.WithoutCancel(ctx), c.BoardID); err != nil {
			entry.WithError(err).Warn("cache invalidation failed")
		}
	}

	fail := func(err error) dnd.Result {
		invalidate()
		f := Classify(err)
		entry.WithError(f.Err).WithFields(logrus.Fields{
			"kind":    f.Kind.String(),
			"status":  f.StatusCode,
			"applied": applied,
		}).Warn("commit failed")
		return dnd.Result{Seq: c.Seq, Err: f, Partial: applied > 0}
	}

	for _, u := range c.Cards {
		err := s.UpdateCardPosition(ctx, CardPosition{
			BoardID:    c.BoardID,
			CardID:     u.CardID,
			FromListID: u.FromListID,
			ListID:     u.ListID,
			Position:   u.Position,
		})
		if err != nil {
			return fail(err)
		}
		applied++
	}
	for _, u := range c.Lists {
		if err := s.UpdateListPosition(ctx, ListPosition{BoardID: c.BoardID, ListID: u.ListID, Position: u.Position}); err != nil {
			return fail(err)
		}
		applied++
	}

	invalidate()
	entry.WithField("updates", applied).Debug("commit persisted")
	return res
}
