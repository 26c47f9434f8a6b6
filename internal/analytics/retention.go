package analytics

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/suPer8Hu/recruiter-chat/internal/logger"
)

// Retention periodically deletes analytics events older than a fixed number of days.
type Retention struct {
	store     *Store
	days      int
	scheduler *gocron.Scheduler
}

func NewRetention(store *Store, days int) *Retention {
	return &Retention{store: store, days: days, scheduler: gocron.NewScheduler(time.UTC)}
}

// Start schedules a daily purge. A non-positive retention disables it.
func (r *Retention) Start() error {
	if r.days <= 0 {
		return nil
	}
	if _, err := r.scheduler.Every(1).Day().At("03:30").Do(r.RunOnce); err != nil {
		return err
	}
	r.scheduler.StartAsync()
	return nil
}

func (r *Retention) Stop() {
	r.scheduler.Stop()
}

func (r *Retention) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := r.store.now().AddDate(0, 0, -r.days)
	n, err := r.store.PurgeBefore(ctx, cutoff)
	if err != nil {
		logger.L.Errorw("analytics retention purge failed", "err", err)
		return
	}
	if n > 0 {
		logger.L.Infow("analytics retention purge", "deleted", n, "cutoff", cutoff)
	}
}
