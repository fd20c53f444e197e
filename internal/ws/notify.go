package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const EventShortlistUpdated = "shortlist_updated"

type ShortlistUpdatedEvent struct {
	Type       string    `json:"type"`
	JobID      uuid.UUID `json:"jobId"`
	Reason     string    `json:"reason"`
	EntryCount int       `json:"entryCount"`
	Timestamp  string    `json:"timestamp"`
}

// Notifier turns shortlist changes into hub broadcasts.
type Notifier struct {
	hub *Hub
	now func() time.Time
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub, now: time.Now}
}

func (n *Notifier) ShortlistUpdated(jobID uuid.UUID, reason string, entryCount int) {
	if n == nil || n.hub == nil {
		return
	}
	evt := ShortlistUpdatedEvent{
		Type:       EventShortlistUpdated,
		JobID:      jobID,
		Reason:     reason,
		EntryCount: entryCount,
		Timestamp:  n.now().UTC().Format(time.RFC3339),
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	n.hub.Broadcast(b)
}
