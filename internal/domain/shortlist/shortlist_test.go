package shortlist

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"talent-match/internal/domain/matching"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager() (*Manager, *fakeClock) {
	clk := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 123456789, time.UTC)}
	return NewManager(10, clk.now), clk
}

func result(id uuid.UUID, overall, skill int) matching.MatchResult {
	return matching.MatchResult{
		CandidateID:  id,
		OverallScore: overall,
		Breakdown:    matching.Breakdown{SkillMatch: skill},
		Strengths:    []string{},
		Explanation:  fmt.Sprintf("score %d", overall),
	}
}

func ids(sl Shortlist) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(sl.Entries))
	for _, e := range sl.Entries {
		out = append(out, e.CandidateID)
	}
	return out
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" Hired ")
	require.NoError(t, err)
	assert.Equal(t, StatusHired, st)

	_, err = ParseStatus("offer")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpsertBatch_NewEntriesSortedAndStamped(t *testing.T) {
	m, clk := newTestManager()
	jobID := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	sl, evicted := m.UpsertBatch(Shortlist{JobID: jobID}, []matching.MatchResult{
		result(a, 50, 10),
		result(b, 90, 10),
		result(c, 70, 10),
	}, 5)

	assert.Empty(t, evicted)
	assert.Equal(t, jobID, sl.JobID)
	assert.Equal(t, 5, sl.MaxCandidates)
	assert.Equal(t, []uuid.UUID{b, c, a}, ids(sl))

	want := clk.t.UTC().Truncate(time.Microsecond)
	for _, e := range sl.Entries {
		assert.Equal(t, StatusShortlisted, e.Status)
		assert.Equal(t, want, e.AddedAt)
	}
	require.NotNil(t, sl.GeneratedAt)
	require.NotNil(t, sl.LastUpdatedAt)
	assert.Equal(t, want, *sl.GeneratedAt)
	assert.Equal(t, want, *sl.LastUpdatedAt)
}

func TestUpsertBatch_EmptyBatchLeavesGeneratedAtUnset(t *testing.T) {
	m, _ := newTestManager()
	sl, _ := m.UpsertBatch(Shortlist{JobID: uuid.New()}, nil, 3)
	assert.Nil(t, sl.GeneratedAt)
	assert.NotNil(t, sl.LastUpdatedAt)
	assert.NotNil(t, sl.Entries)
	assert.Empty(t, sl.Entries)
}

func TestUpsertBatch_PreservesStatusNotesAndAddedAt(t *testing.T) {
	m, clk := newTestManager()
	a, b := uuid.New(), uuid.New()

	first, _ := m.UpsertBatch(Shortlist{}, []matching.MatchResult{result(a, 60, 10), result(b, 80, 10)}, 5)
	firstAdded := first.Entries[0].AddedAt
	generated := *first.GeneratedAt

	notes := "great call"
	_, err := m.SetStatus(&first, a, StatusHired, &notes)
	require.NoError(t, err)

	clk.advance(time.Hour)
	updated := result(a, 95, 90)
	updated.Explanation = "rescored"
	second, _ := m.UpsertBatch(first, []matching.MatchResult{updated, result(b, 80, 10)}, 5)

	require.Equal(t, []uuid.UUID{a, b}, ids(second))
	e := second.Entries[0]
	assert.Equal(t, StatusHired, e.Status)
	assert.Equal(t, "great call", e.Notes)
	assert.Equal(t, firstAdded, e.AddedAt)
	assert.Equal(t, 95, e.OverallScore)
	assert.Equal(t, "rescored", e.Explanation)
	assert.Equal(t, generated, *second.GeneratedAt)
	assert.True(t, second.LastUpdatedAt.After(*first.LastUpdatedAt))

	// the input shortlist is untouched
	fa, ok := first.Find(a)
	require.True(t, ok)
	assert.Equal(t, 60, fa.OverallScore)
}

func TestUpsertBatch_CapacityKeepsTopScorers(t *testing.T) {
	m, _ := newTestManager()
	r := rand.New(rand.NewSource(11))

	for round := 0; round < 50; round++ {
		n := 1 + r.Intn(30)
		capacity := 1 + r.Intn(12)
		results := make([]matching.MatchResult, 0, n)
		for i := 0; i < n; i++ {
			results = append(results, result(uuid.New(), r.Intn(101), r.Intn(101)))
		}

		sl, evicted := m.UpsertBatch(Shortlist{}, results, capacity)

		want := append([]matching.MatchResult(nil), results...)
		sort.SliceStable(want, func(i, j int) bool { return matching.Less(want[i], want[j]) })
		if len(want) > capacity {
			want = want[:capacity]
		}

		require.LessOrEqual(t, len(sl.Entries), capacity)
		require.Len(t, sl.Entries, len(want))
		assert.Len(t, evicted, n-len(want))
		for i := range want {
			assert.Equal(t, want[i].CandidateID, sl.Entries[i].CandidateID)
		}
		for i := 1; i < len(sl.Entries); i++ {
			assert.GreaterOrEqual(t, sl.Entries[i-1].OverallScore, sl.Entries[i].OverallScore)
		}
	}
}

func TestUpsertBatch_EvictsHiredEntryBelowCutoff(t *testing.T) {
	m, _ := newTestManager()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	sl, _ := m.UpsertBatch(Shortlist{}, []matching.MatchResult{result(a, 40, 10), result(b, 50, 10)}, 2)
	_, err := m.SetStatus(&sl, a, StatusHired, nil)
	require.NoError(t, err)

	next, evicted := m.UpsertBatch(sl, []matching.MatchResult{result(c, 90, 10)}, 2)

	assert.Equal(t, []uuid.UUID{c, b}, ids(next))
	require.Len(t, evicted, 1)
	assert.Equal(t, a, evicted[0].CandidateID)
	assert.Equal(t, StatusHired, evicted[0].Status)
}

func TestUpsertBatch_StaleEntryKeepsPreviousScoreAndCompetes(t *testing.T) {
	m, _ := newTestManager()
	gone, b, c := uuid.New(), uuid.New(), uuid.New()

	sl, _ := m.UpsertBatch(Shortlist{}, []matching.MatchResult{result(gone, 95, 90)}, 2)

	// gone is no longer published, so this run does not score it
	next, evicted := m.UpsertBatch(sl, []matching.MatchResult{result(b, 60, 10), result(c, 50, 10)}, 2)

	assert.Equal(t, []uuid.UUID{gone, b}, ids(next))
	assert.Equal(t, 95, next.Entries[0].OverallScore)
	require.Len(t, evicted, 1)
	assert.Equal(t, c, evicted[0].CandidateID)
}

func TestWithout(t *testing.T) {
	m, _ := newTestManager()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	sl, _ := m.UpsertBatch(Shortlist{}, []matching.MatchResult{result(a, 90, 10), result(b, 80, 10), result(c, 70, 10)}, 5)

	out := sl.Without([]uuid.UUID{b, uuid.New()})

	assert.Equal(t, []uuid.UUID{a, c}, ids(out))
	assert.Equal(t, []uuid.UUID{a, b, c}, ids(sl), "receiver untouched")
	assert.Equal(t, sl.LastUpdatedAt, out.LastUpdatedAt)
	assert.Equal(t, ids(sl), ids(sl.Without(nil)))
}

func TestUpsertBatch_DuplicateInBatchLastWins(t *testing.T) {
	m, _ := newTestManager()
	a := uuid.New()
	sl, _ := m.UpsertBatch(Shortlist{}, []matching.MatchResult{result(a, 10, 0), result(a, 70, 0)}, 5)
	require.Len(t, sl.Entries, 1)
	assert.Equal(t, 70, sl.Entries[0].OverallScore)
}

func TestUpsertBatch_NonPositiveCapacityUsesDefault(t *testing.T) {
	m, _ := newTestManager()
	results := make([]matching.MatchResult, 0, 15)
	for i := 0; i < 15; i++ {
		results = append(results, result(uuid.New(), i, 0))
	}
	sl, evicted := m.UpsertBatch(Shortlist{}, results, 0)
	assert.Equal(t, 10, sl.MaxCandidates)
	assert.Len(t, sl.Entries, 10)
	assert.Len(t, evicted, 5)
}

func TestUpsertBatch_SameInstantStillAdvancesLastUpdatedAt(t *testing.T) {
	m, _ := newTestManager()
	first, _ := m.UpsertBatch(Shortlist{}, []matching.MatchResult{result(uuid.New(), 10, 0)}, 5)
	second, _ := m.UpsertBatch(first, nil, 5)
	assert.True(t, second.LastUpdatedAt.After(*first.LastUpdatedAt))
}

func TestSetStatus(t *testing.T) {
	m, clk := newTestManager()
	a := uuid.New()
	sl, _ := m.UpsertBatch(Shortlist{}, []matching.MatchResult{result(a, 10, 0)}, 5)
	before := *sl.LastUpdatedAt

	clk.advance(time.Minute)
	e, err := m.SetStatus(&sl, a, StatusContacted, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusContacted, e.Status)
	assert.Empty(t, e.Notes)
	assert.True(t, sl.LastUpdatedAt.After(before))

	// any settable status is accepted from any state
	_, err = m.SetStatus(&sl, a, StatusRejected, nil)
	require.NoError(t, err)
	_, err = m.SetStatus(&sl, a, StatusInterviewed, nil)
	require.NoError(t, err)
	got, _ := sl.Find(a)
	assert.Equal(t, StatusInterviewed, got.Status)
}

func TestSetStatus_Errors(t *testing.T) {
	m, _ := newTestManager()
	a := uuid.New()
	sl, _ := m.UpsertBatch(Shortlist{}, []matching.MatchResult{result(a, 10, 0)}, 5)

	_, err := m.SetStatus(&sl, uuid.New(), StatusHired, nil)
	assert.ErrorIs(t, err, ErrCandidateNotFound)

	_, err = m.SetStatus(&sl, a, StatusShortlisted, nil)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = m.SetStatus(nil, a, StatusHired, nil)
	assert.ErrorIs(t, err, ErrCandidateNotFound)
}
