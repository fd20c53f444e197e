package shortlist

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"talent-match/internal/domain/matching"

	"github.com/google/uuid"
)

var (
	ErrCandidateNotFound = errors.New("candidate not in shortlist")
	ErrInvalidStatus     = errors.New("invalid shortlist status")
)

const fallbackMaxCandidates = 50

type Entry struct {
	matching.MatchResult
	Status  Status    `json:"status"`
	Notes   string    `json:"notes,omitempty"`
	AddedAt time.Time `json:"addedAt"`
}

type Shortlist struct {
	JobID         uuid.UUID  `json:"jobId"`
	MaxCandidates int        `json:"maxCandidates"`
	Entries       []Entry    `json:"entries"`
	GeneratedAt   *time.Time `json:"generatedAt"`
	LastUpdatedAt *time.Time `json:"lastUpdatedAt"`
}

func (s Shortlist) Find(candidateID uuid.UUID) (Entry, bool) {
	for _, e := range s.Entries {
		if e.CandidateID == candidateID {
			return e, true
		}
	}
	return Entry{}, false
}

// Clone returns a deep copy that shares no slices or pointers with s.
func (s Shortlist) Clone() Shortlist {
	out := s
	out.Entries = make([]Entry, 0, len(s.Entries))
	for _, e := range s.Entries {
		out.Entries = append(out.Entries, cloneEntry(e))
	}
	out.GeneratedAt = cloneTime(s.GeneratedAt)
	out.LastUpdatedAt = cloneTime(s.LastUpdatedAt)
	return out
}

// Without returns a copy of s minus the entries of the given candidates.
func (s Shortlist) Without(candidateIDs []uuid.UUID) Shortlist {
	out := s.Clone()
	if len(candidateIDs) == 0 {
		return out
	}
	drop := make(map[uuid.UUID]struct{}, len(candidateIDs))
	for _, id := range candidateIDs {
		drop[id] = struct{}{}
	}
	kept := out.Entries[:0]
	for _, e := range out.Entries {
		if _, ok := drop[e.CandidateID]; !ok {
			kept = append(kept, e)
		}
	}
	out.Entries = kept
	return out
}

type Manager struct {
	defaultMax int
	now        func() time.Time
}

// NewManager returns a Manager. defaultMax applies when a batch is upserted
// without a positive capacity; now defaults to time.Now.
func NewManager(defaultMax int, now func() time.Time) *Manager {
	if defaultMax <= 0 {
		defaultMax = fallbackMaxCandidates
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{defaultMax: defaultMax, now: now}
}

// UpsertBatch merges results into a copy of existing and returns the new
// shortlist together with the entries evicted by the capacity bound.
// existing is never modified. When results repeat a candidate the last one
// wins.
func (m *Manager) UpsertBatch(existing Shortlist, results []matching.MatchResult, maxCandidates int) (Shortlist, []Entry) {
	if maxCandidates <= 0 {
		maxCandidates = m.defaultMax
	}
	stamp := m.stamp(existing.LastUpdatedAt)

	next := existing.Clone()
	next.MaxCandidates = maxCandidates

	pos := make(map[uuid.UUID]int, len(next.Entries)+len(results))
	for i, e := range next.Entries {
		pos[e.CandidateID] = i
	}

	for _, r := range results {
		r = cloneResult(r)
		if i, ok := pos[r.CandidateID]; ok {
			next.Entries[i].MatchResult = r
			continue
		}
		pos[r.CandidateID] = len(next.Entries)
		next.Entries = append(next.Entries, Entry{
			MatchResult: r,
			Status:      StatusShortlisted,
			AddedAt:     stamp,
		})
	}

	sort.SliceStable(next.Entries, func(i, j int) bool {
		return matching.Less(next.Entries[i].MatchResult, next.Entries[j].MatchResult)
	})

	var evicted []Entry
	if len(next.Entries) > maxCandidates {
		evicted = append(evicted, next.Entries[maxCandidates:]...)
		next.Entries = next.Entries[:maxCandidates:maxCandidates]
	}

	next.LastUpdatedAt = &stamp
	if next.GeneratedAt == nil && len(next.Entries) > 0 {
		g := stamp
		next.GeneratedAt = &g
	}
	return next, evicted
}

// SetStatus updates one entry of sl in place. notes replaces the entry's
// notes only when non-nil.
func (m *Manager) SetStatus(sl *Shortlist, candidateID uuid.UUID, st Status, notes *string) (Entry, error) {
	if sl == nil {
		return Entry{}, ErrCandidateNotFound
	}
	if !IsSettable(st) {
		return Entry{}, fmt.Errorf("%w: cannot set %q", ErrInvalidStatus, st)
	}

	for i := range sl.Entries {
		if sl.Entries[i].CandidateID != candidateID {
			continue
		}
		sl.Entries[i].Status = st
		if notes != nil {
			sl.Entries[i].Notes = *notes
		}
		stamp := m.stamp(sl.LastUpdatedAt)
		sl.LastUpdatedAt = &stamp
		return cloneEntry(sl.Entries[i]), nil
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrCandidateNotFound, candidateID)
}

// stamp returns the mutation time at storage precision, strictly after prev
// so consecutive writes never share a lastUpdatedAt value.
func (m *Manager) stamp(prev *time.Time) time.Time {
	t := m.now().UTC().Truncate(time.Microsecond)
	if prev != nil && !t.After(*prev) {
		t = prev.UTC().Add(time.Microsecond)
	}
	return t
}

func cloneEntry(e Entry) Entry {
	e.MatchResult = cloneResult(e.MatchResult)
	return e
}

func cloneResult(r matching.MatchResult) matching.MatchResult {
	r.Strengths = append(make([]string, 0, len(r.Strengths)), r.Strengths...)
	r.MissingSkills = append(make([]string, 0, len(r.MissingSkills)), r.MissingSkills...)
	return r
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
