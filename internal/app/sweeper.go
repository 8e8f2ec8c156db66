package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Sweeper is the external writer of the abandoned match status: it
// periodically abandons active matches left idle past the configured window,
// and deactivates expired subscriptions.
type Sweeper struct {
	matches  MatchRepository
	users    UserRepository
	idle     time.Duration
	interval time.Duration
	log      *slog.Logger
}

func NewSweeper(matches MatchRepository, users UserRepository, idle time.Duration, log *slog.Logger) *Sweeper {
	if idle <= 0 {
		idle = 24 * time.Hour
	}
	return &Sweeper{
		matches:  matches,
		users:    users,
		idle:     idle,
		interval: time.Minute,
		log:      log,
	}
}

// Start schedules the sweep. The returned scheduler must be shut down on exit.
func (s *Sweeper) Start(ctx context.Context) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.sweep(ctx) }),
	)
	if err != nil {
		return nil, err
	}
	sched.Start()
	return sched, nil
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := time.Now().UTC()

	abandoned, err := s.matches.MarkAbandoned(ctx, now.Add(-s.idle))
	if err != nil {
		s.log.Error("abandon sweep failed", "error", err)
	} else if abandoned > 0 {
		s.log.Info("abandoned stale matches", "count", abandoned)
	}

	expired, err := s.users.DeactivateExpiredSubscriptions(ctx, now)
	if err != nil {
		s.log.Error("subscription sweep failed", "error", err)
	} else if expired > 0 {
		s.log.Info("deactivated expired subscriptions", "count", expired)
	}
}
