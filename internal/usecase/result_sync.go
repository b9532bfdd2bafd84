package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"LottoStats/internal/domain/models"
	drepo "LottoStats/internal/domain/repository"
	"LottoStats/pkg/cache"
	applogger "LottoStats/pkg/logger"
)

// ErrSyncInProgress is returned when another run already holds the lottery's sync lock.
var ErrSyncInProgress = errors.New("result sync already in progress")

// SyncReport describes one pull from the upstream results API.
type SyncReport struct {
	LotteryType models.LotteryType `json:"lotteryType"`
	Fetched     int                `json:"fetched"`
	Backend     string             `json:"backend"`
	RanAt       time.Time          `json:"ranAt"`
}

// ResultSync periodically pulls published results for each enabled lottery.
type ResultSync struct {
	source    drepo.ResultSource
	proc      *DrawProcessor
	lotteries []models.LotteryType
	limit     int
	schedule  string
	loc       *time.Location
	timeout   time.Duration
	l         *applogger.Logger
	locker    cache.Locker

	mu   sync.Mutex
	cron *cron.Cron
}

func NewResultSync(
	source drepo.ResultSource,
	proc *DrawProcessor,
	lotteries []models.LotteryType,
	limit int,
	schedule, timezone string,
	timeout time.Duration,
	l *applogger.Logger,
) (*ResultSync, error) {
	loc := time.UTC
	if timezone != "" {
		var err error
		if loc, err = time.LoadLocation(timezone); err != nil {
			return nil, fmt.Errorf("sync timezone: %w", err)
		}
	}
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("sync schedule: %w", err)
		}
	}
	if limit <= 0 {
		limit = 20
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if l == nil {
		l = applogger.NewNop()
	}
	return &ResultSync{
		source:    source,
		proc:      proc,
		lotteries: lotteries,
		limit:     limit,
		schedule:  schedule,
		loc:       loc,
		timeout:   timeout,
		l:         l,
	}, nil
}

// SetLocker makes RunOnce hold a per-lottery lock, so replicas sharing Redis
// do not pull the same results concurrently.
func (s *ResultSync) SetLocker(l cache.Locker) { s.locker = l }

// Start registers the cron job. It is a no-op without a schedule.
func (s *ResultSync) Start(ctx context.Context) error {
	if s.schedule == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("result sync already running")
	}

	c := cron.New(cron.WithLocation(s.loc))
	if _, err := c.AddFunc(s.schedule, func() { s.RunAll(ctx) }); err != nil {
		return fmt.Errorf("schedule sync: %w", err)
	}
	c.Start()
	s.cron = c
	s.l.Info("result sync scheduled",
		applogger.String("schedule", s.schedule),
		applogger.String("timezone", s.loc.String()))
	return nil
}

// Stop halts the scheduler and waits for a running job, bounded by ctx.
func (s *ResultSync) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunAll syncs every enabled lottery, logging failures.
func (s *ResultSync) RunAll(ctx context.Context) []SyncReport {
	reports := make([]SyncReport, 0, len(s.lotteries))
	for _, t := range s.lotteries {
		rep, err := s.RunOnce(ctx, t)
		if err != nil {
			s.l.Error("result sync failed", applogger.String("lottery", string(t)), applogger.Error(err))
			continue
		}
		reports = append(reports, *rep)
	}
	return reports
}

// RunOnce pulls the latest results of t and routes them through the processor.
func (s *ResultSync) RunOnce(ctx context.Context, t models.LotteryType) (*SyncReport, error) {
	if _, err := models.ConfigFor(t); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rep *SyncReport
	err := cache.WithLock(ctx, s.locker, cache.Key("sync", t), 2*s.timeout, func(ctx context.Context) error {
		var err error
		rep, err = s.run(ctx, t)
		return err
	})
	if errors.Is(err, cache.ErrLocked) {
		return nil, ErrSyncInProgress
	}
	return rep, err
}

func (s *ResultSync) run(ctx context.Context, t models.LotteryType) (*SyncReport, error) {
	results, err := s.source.Fetch(ctx, t, s.limit)
	if err != nil {
		return nil, fmt.Errorf("fetch %s results: %w", t, err)
	}
	// an untagged result belongs to t; a result tagged with another lottery
	// means the upstream answered the wrong query, so nothing is stored
	batch := make([]*models.LotteryResult, 0, len(results))
	for i := range results {
		r := results[i]
		if r.LotteryType != "" && r.LotteryType != t {
			s.l.Warn("result sync type mismatch",
				applogger.String("lottery", string(t)),
				applogger.String("got", string(r.LotteryType)),
				applogger.String("draw_id", r.ID))
			return nil, models.NewValidationError("lotteryType",
				fmt.Sprintf("upstream returned %s draw %s for %s", r.LotteryType, r.ID, t))
		}
		r.LotteryType = t
		batch = append(batch, &r)
	}
	if err := s.proc.ProcessBatch(ctx, batch, SourceSync); err != nil {
		return nil, err
	}

	s.l.Info("result sync done",
		applogger.String("lottery", string(t)),
		applogger.Int("fetched", len(batch)),
		applogger.String("backend", s.proc.Backend()))
	return &SyncReport{
		LotteryType: t,
		Fetched:     len(batch),
		Backend:     s.proc.Backend(),
		RanAt:       time.Now().UTC(),
	}, nil
}
