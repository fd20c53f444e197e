package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"talent-match/internal/domain/candidate"
	"talent-match/internal/domain/job"
	"talent-match/internal/domain/matching"
	"talent-match/internal/domain/shortlist"
	"talent-match/internal/infrastructure/cache"
	"talent-match/internal/metrics"
	"talent-match/internal/notify"
	"talent-match/internal/pkg/workerpool"
	"talent-match/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultLockTTL  = 30 * time.Second
	defaultLockWait = 5 * time.Second
)

type MatchingUsecase interface {
	RegenerateShortlist(ctx context.Context, jobID uuid.UUID) (shortlist.Shortlist, error)
	GetShortlist(ctx context.Context, jobID uuid.UUID) (shortlist.Shortlist, error)
	SetStatus(ctx context.Context, jobID, candidateID uuid.UUID, status string, notes *string) (shortlist.Entry, error)
	Hire(ctx context.Context, jobID, candidateID uuid.UUID, notes *string) (shortlist.Entry, error)
	PreviewMatch(ctx context.Context, jobID, candidateID uuid.UUID) (matching.MatchResult, error)
	RegenerateOpenJobs(ctx context.Context) (RegenerationSummary, error)
}

// UpdateBroadcaster pushes shortlist changes to connected clients.
type UpdateBroadcaster interface {
	ShortlistUpdated(jobID uuid.UUID, reason string, entryCount int)
}

type MatchingOptions struct {
	MaxConflictRetries int
	LockTTL            time.Duration
	LockWait           time.Duration
	Workers            int
}

type MatchingDeps struct {
	Jobs        repository.JobRepository
	Candidates  repository.CandidateRepository
	Shortlists  repository.ShortlistRepository
	Engine      *matching.Engine
	Manager     *shortlist.Manager
	Cache       ShortlistCache
	Publisher   notify.Publisher
	Broadcaster UpdateBroadcaster
	Logger      *zap.Logger
	Options     MatchingOptions
}

type RegenerationSummary struct {
	Jobs       int
	Succeeded  int
	Failed     int
	FailedJobs []uuid.UUID
}

type Matching struct {
	jobs        repository.JobRepository
	candidates  repository.CandidateRepository
	shortlists  repository.ShortlistRepository
	engine      *matching.Engine
	manager     *shortlist.Manager
	cache       ShortlistCache
	publisher   notify.Publisher
	broadcaster UpdateBroadcaster
	logger      *zap.Logger
	opts        MatchingOptions

	jobLocks *keyedMutex
	now      func() time.Time
}

func NewMatchingUsecase(d MatchingDeps) *Matching {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Publisher == nil {
		d.Publisher = notify.Nop{}
	}
	if d.Engine == nil {
		d.Engine, _ = matching.NewEngine(matching.DefaultWeights())
	}
	if d.Manager == nil {
		d.Manager = shortlist.NewManager(0, nil)
	}
	if d.Options.MaxConflictRetries < 0 {
		d.Options.MaxConflictRetries = 0
	}
	if d.Options.LockTTL <= 0 {
		d.Options.LockTTL = defaultLockTTL
	}
	if d.Options.LockWait <= 0 {
		d.Options.LockWait = defaultLockWait
	}
	if d.Options.Workers <= 0 {
		d.Options.Workers = 1
	}
	return &Matching{
		jobs:        d.Jobs,
		candidates:  d.Candidates,
		shortlists:  d.Shortlists,
		engine:      d.Engine,
		manager:     d.Manager,
		cache:       d.Cache,
		publisher:   d.Publisher,
		broadcaster: d.Broadcaster,
		logger:      d.Logger.Named("matching"),
		opts:        d.Options,
		jobLocks:    newKeyedMutex(),
		now:         time.Now,
	}
}

// RegenerateShortlist scores every published candidate against the job and
// merges the results into the stored shortlist.
func (u *Matching) RegenerateShortlist(ctx context.Context, jobID uuid.UUID) (shortlist.Shortlist, error) {
	if jobID == uuid.Nil {
		return shortlist.Shortlist{}, ErrInvalidInput
	}
	start := time.Now()

	var out shortlist.Shortlist
	err := u.withJobLock(ctx, jobID, func() error {
		j, err := u.loadJob(ctx, jobID)
		if err != nil {
			return err
		}
		results, skipped, err := u.scoreCandidates(ctx, j)
		if err != nil {
			return err
		}

		out, err = u.mutate(ctx, j, func(existing shortlist.Shortlist) (shortlist.Shortlist, error) {
			u.flagSkipped(existing, skipped)
			next, evicted := u.manager.UpsertBatch(existing.Without(skipped), results, j.MaxCandidates)
			u.flagEvictions(jobID, evicted)
			return next, nil
		})
		return err
	})

	metrics.ShortlistRegenerationDuration.Observe(time.Since(start).Seconds())
	metrics.ShortlistRegenerations.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return shortlist.Shortlist{}, err
	}

	u.logger.Info("shortlist regenerated",
		zap.String("job_id", jobID.String()),
		zap.Int("entries", len(out.Entries)),
		zap.Duration("took", time.Since(start)),
	)
	u.broadcast(jobID, "regenerated", len(out.Entries))
	u.publish(ctx, notify.Event{
		Type:       notify.EventShortlistRebuilt,
		JobID:      jobID,
		EntryCount: len(out.Entries),
		OccurredAt: u.now().UTC(),
	})
	return out, nil
}

// GetShortlist returns the stored shortlist. A job that has never been
// regenerated yields an empty shortlist.
func (u *Matching) GetShortlist(ctx context.Context, jobID uuid.UUID) (shortlist.Shortlist, error) {
	if jobID == uuid.Nil {
		return shortlist.Shortlist{}, ErrInvalidInput
	}

	var cached shortlist.Shortlist
	if u.cache != nil {
		hit, err := u.cache.GetJSON(ctx, shortlistCacheKey(jobID), &cached)
		if err != nil {
			u.logger.Debug("shortlist cache read failed", zap.String("job_id", jobID.String()), zap.Error(err))
		}
		if hit && err == nil {
			return cached, nil
		}
	}

	sl, err := u.shortlists.Get(ctx, jobID)
	switch {
	case err == nil:
		u.storeCache(ctx, sl)
		return sl, nil
	case errors.Is(err, repository.ErrShortlistNotFound):
		j, err := u.loadJob(ctx, jobID)
		if err != nil {
			return shortlist.Shortlist{}, err
		}
		return emptyShortlist(j), nil
	default:
		u.logger.Error("load shortlist failed", zap.String("job_id", jobID.String()), zap.Error(err))
		return shortlist.Shortlist{}, ErrInternal
	}
}

func (u *Matching) SetStatus(ctx context.Context, jobID, candidateID uuid.UUID, status string, notes *string) (shortlist.Entry, error) {
	st, err := shortlist.ParseStatus(status)
	if err != nil || !shortlist.IsSettable(st) {
		return shortlist.Entry{}, ErrInvalidStatus
	}
	return u.setStatus(ctx, jobID, candidateID, st, notes)
}

// Hire marks the candidate hired and emits the hire notification.
// Notification failures are logged and do not fail the call.
func (u *Matching) Hire(ctx context.Context, jobID, candidateID uuid.UUID, notes *string) (shortlist.Entry, error) {
	return u.setStatus(ctx, jobID, candidateID, shortlist.StatusHired, notes)
}

func (u *Matching) setStatus(ctx context.Context, jobID, candidateID uuid.UUID, st shortlist.Status, notes *string) (shortlist.Entry, error) {
	if jobID == uuid.Nil || candidateID == uuid.Nil {
		return shortlist.Entry{}, ErrInvalidInput
	}

	var (
		entry   shortlist.Entry
		from    shortlist.Status
		entries int
	)
	err := u.withJobLock(ctx, jobID, func() error {
		j, err := u.loadJob(ctx, jobID)
		if err != nil {
			return err
		}
		saved, err := u.mutate(ctx, j, func(sl shortlist.Shortlist) (shortlist.Shortlist, error) {
			prev, ok := sl.Find(candidateID)
			if !ok {
				return sl, ErrCandidateNotFound
			}
			from = prev.Status
			e, err := u.manager.SetStatus(&sl, candidateID, st, notes)
			if err != nil {
				return sl, mapShortlistError(err)
			}
			entry = e
			return sl, nil
		})
		entries = len(saved.Entries)
		return err
	})
	if err != nil {
		return shortlist.Entry{}, err
	}

	metrics.StatusChanges.WithLabelValues(string(st)).Inc()
	u.logger.Info("candidate status changed",
		zap.String("job_id", jobID.String()),
		zap.String("candidate_id", candidateID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(st)),
	)

	evtType := notify.EventStatusChanged
	if shortlist.IsHired(st) {
		evtType = notify.EventCandidateHired
	}
	u.publish(ctx, notify.Event{
		Type:        evtType,
		JobID:       jobID,
		CandidateID: candidateID,
		From:        string(from),
		To:          string(st),
		Notes:       entry.Notes,
		OccurredAt:  u.now().UTC(),
	})
	u.broadcast(jobID, "status_changed", entries)
	return entry, nil
}

// PreviewMatch scores one candidate against a job without touching the
// shortlist.
func (u *Matching) PreviewMatch(ctx context.Context, jobID, candidateID uuid.UUID) (matching.MatchResult, error) {
	if jobID == uuid.Nil || candidateID == uuid.Nil {
		return matching.MatchResult{}, ErrInvalidInput
	}
	j, err := u.loadJob(ctx, jobID)
	if err != nil {
		return matching.MatchResult{}, err
	}

	rec, err := u.candidates.FindPublishedByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, repository.ErrCandidateNotFound) {
			return matching.MatchResult{}, ErrCandidateNotFound
		}
		u.logger.Error("load candidate failed", zap.String("candidate_id", candidateID.String()), zap.Error(err))
		return matching.MatchResult{}, ErrInternal
	}
	snap, err := candidate.ParseSnapshot(rec)
	if err != nil {
		u.logger.Warn("malformed candidate profile", zap.String("candidate_id", candidateID.String()), zap.Error(err))
		return matching.MatchResult{}, ErrInternal
	}
	return u.engine.ComputeMatch(j.Requirement(), snap), nil
}

// RegenerateOpenJobs regenerates every open job on a bounded worker pool.
// Per-job failures are counted, not returned.
func (u *Matching) RegenerateOpenJobs(ctx context.Context) (RegenerationSummary, error) {
	ids, err := u.jobs.ListOpenIDs(ctx)
	if err != nil {
		u.logger.Error("list open jobs failed", zap.Error(err))
		return RegenerationSummary{}, ErrInternal
	}
	sum := RegenerationSummary{Jobs: len(ids)}
	if len(ids) == 0 {
		return sum, nil
	}

	pool := workerpool.New(u.opts.Workers, len(ids))
	results := pool.Run(ctx)
	for _, id := range ids {
		if err := pool.Submit(ctx, id.String(), func(ctx context.Context) error {
			_, err := u.RegenerateShortlist(ctx, id)
			return err
		}); err != nil {
			break
		}
	}
	pool.Close()

	for r := range results {
		if r.Err == nil {
			sum.Succeeded++
			continue
		}
		sum.Failed++
		if id, err := uuid.Parse(r.Key); err == nil {
			sum.FailedJobs = append(sum.FailedJobs, id)
		}
		u.logger.Warn("scheduled regeneration failed", zap.String("job_id", r.Key), zap.Error(r.Err))
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	return sum, nil
}

// mutate runs a read-modify-write cycle on the job's shortlist, retrying
// when the optimistic lastUpdatedAt check fails.
func (u *Matching) mutate(ctx context.Context, j job.Job, fn func(shortlist.Shortlist) (shortlist.Shortlist, error)) (shortlist.Shortlist, error) {
	for attempt := 0; ; attempt++ {
		current, err := u.shortlists.Get(ctx, j.ID)
		if err != nil {
			if !errors.Is(err, repository.ErrShortlistNotFound) {
				u.logger.Error("load shortlist failed", zap.String("job_id", j.ID.String()), zap.Error(err))
				return shortlist.Shortlist{}, ErrInternal
			}
			current = emptyShortlist(j)
		}
		var expected *time.Time
		if current.LastUpdatedAt != nil {
			t := *current.LastUpdatedAt
			expected = &t
		}

		next, err := fn(current)
		if err != nil {
			return shortlist.Shortlist{}, err
		}

		err = u.shortlists.Save(ctx, next, expected)
		if err == nil {
			u.storeCache(ctx, next)
			return next, nil
		}
		if !errors.Is(err, repository.ErrShortlistConflict) {
			u.logger.Error("save shortlist failed", zap.String("job_id", j.ID.String()), zap.Error(err))
			return shortlist.Shortlist{}, ErrInternal
		}

		metrics.ShortlistConflicts.Inc()
		if attempt >= u.opts.MaxConflictRetries {
			u.logger.Warn("shortlist write conflict, giving up",
				zap.String("job_id", j.ID.String()), zap.Int("attempts", attempt+1))
			return shortlist.Shortlist{}, ErrConflict
		}
		u.logger.Debug("shortlist write conflict, retrying",
			zap.String("job_id", j.ID.String()), zap.Int("attempt", attempt+1))
	}
}

// withJobLock serializes fn per job across this process and, through the
// cache lock, across replicas.
func (u *Matching) withJobLock(ctx context.Context, jobID uuid.UUID, fn func() error) error {
	unlockLocal := u.jobLocks.Lock(jobID)
	defer unlockLocal()

	if u.cache != nil {
		unlock, err := u.cache.Lock(ctx, shortlistLockName(jobID), u.opts.LockTTL, u.opts.LockWait)
		switch {
		case err == nil:
			defer unlock()
		case errors.Is(err, cache.ErrLockTimeout):
			return ErrConflict
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			// the CAS write still guards the document
			u.logger.Warn("distributed lock unavailable", zap.String("job_id", jobID.String()), zap.Error(err))
		}
	}
	return fn()
}

func (u *Matching) loadJob(ctx context.Context, jobID uuid.UUID) (job.Job, error) {
	j, err := u.jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return job.Job{}, ErrJobNotFound
		}
		u.logger.Error("load job failed", zap.String("job_id", jobID.String()), zap.Error(err))
		return job.Job{}, ErrInternal
	}
	return j, nil
}

// scoreCandidates scores every published candidate. Candidates whose
// profile cannot be parsed are returned in skipped.
func (u *Matching) scoreCandidates(ctx context.Context, j job.Job) (results []matching.MatchResult, skipped []uuid.UUID, err error) {
	recs, err := u.candidates.ListPublished(ctx)
	if err != nil {
		u.logger.Error("list candidates failed", zap.Error(err))
		return nil, nil, ErrInternal
	}

	req := j.Requirement()
	results = make([]matching.MatchResult, 0, len(recs))
	for _, rec := range recs {
		snap, err := candidate.ParseSnapshot(rec)
		if err != nil {
			metrics.CandidatesSkipped.WithLabelValues("malformed_profile").Inc()
			u.logger.Warn("skipping candidate",
				zap.String("job_id", j.ID.String()),
				zap.String("candidate_id", rec.ID.String()),
				zap.Error(err),
			)
			skipped = append(skipped, rec.ID)
			continue
		}
		results = append(results, u.engine.ComputeMatch(req, snap))
	}
	metrics.CandidatesScored.Add(float64(len(results)))
	return results, skipped, nil
}

func (u *Matching) flagSkipped(existing shortlist.Shortlist, skipped []uuid.UUID) {
	for _, id := range skipped {
		e, ok := existing.Find(id)
		if !ok {
			continue
		}
		u.logger.Warn("removing candidate with malformed profile from shortlist",
			zap.String("job_id", existing.JobID.String()),
			zap.String("candidate_id", id.String()),
			zap.String("status", string(e.Status)),
		)
	}
}

func (u *Matching) flagEvictions(jobID uuid.UUID, evicted []shortlist.Entry) {
	for _, e := range evicted {
		if !shortlist.IsAdvanced(e.Status) {
			continue
		}
		metrics.AdvancedEvictions.WithLabelValues(string(e.Status)).Inc()
		u.logger.Warn("advanced candidate evicted by capacity",
			zap.String("job_id", jobID.String()),
			zap.String("candidate_id", e.CandidateID.String()),
			zap.String("status", string(e.Status)),
			zap.Int("overall_score", e.OverallScore),
		)
	}
}

func (u *Matching) storeCache(ctx context.Context, sl shortlist.Shortlist) {
	if u.cache == nil {
		return
	}
	key := shortlistCacheKey(sl.JobID)
	err := u.cache.SetJSON(ctx, key, sl, 0)
	if err == nil {
		return
	}
	u.logger.Debug("shortlist cache write failed", zap.String("job_id", sl.JobID.String()), zap.Error(err))
	// an older copy must not outlive the write it missed
	if err := u.cache.Delete(ctx, key); err != nil {
		u.logger.Warn("shortlist cache invalidation failed, reads may be stale until ttl",
			zap.String("job_id", sl.JobID.String()), zap.Error(err))
	}
}

func (u *Matching) publish(ctx context.Context, evt notify.Event) {
	if err := u.publisher.Publish(ctx, evt); err != nil {
		u.logger.Warn("publish event failed",
			zap.String("type", evt.Type),
			zap.String("job_id", evt.JobID.String()),
			zap.Error(err),
		)
	}
}

func (u *Matching) broadcast(jobID uuid.UUID, reason string, entries int) {
	if u.broadcaster != nil {
		u.broadcaster.ShortlistUpdated(jobID, reason, entries)
	}
}

func emptyShortlist(j job.Job) shortlist.Shortlist {
	return shortlist.Shortlist{
		JobID:         j.ID,
		MaxCandidates: j.MaxCandidates,
		Entries:       []shortlist.Entry{},
	}
}

func mapShortlistError(err error) error {
	switch {
	case errors.Is(err, shortlist.ErrCandidateNotFound):
		return ErrCandidateNotFound
	case errors.Is(err, shortlist.ErrInvalidStatus):
		return ErrInvalidStatus
	default:
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrConflict):
		return metrics.OutcomeConflict
	case errors.Is(err, ErrJobNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
