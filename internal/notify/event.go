// Package notify publishes shortlist lifecycle events to external
// subscribers. Delivery is best effort; callers log failures and move on.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	EventCandidateHired   = "CANDIDATE_HIRED"
	EventStatusChanged    = "CANDIDATE_STATUS_CHANGED"
	EventShortlistRebuilt = "SHORTLIST_REGENERATED"
)

type Event struct {
	Type        string    `json:"type"`
	JobID       uuid.UUID `json:"jobId"`
	CandidateID uuid.UUID `json:"candidateId,omitempty"`
	From        string    `json:"from,omitempty"`
	To          string    `json:"to,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	EntryCount  int       `json:"entryCount,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
