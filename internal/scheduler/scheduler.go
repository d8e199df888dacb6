package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/solarcast/solarcast/internal/export"
)

// Janitor periodically sweeps expired exports out of the in-memory store.
// It runs outside the request/prediction path; the serving core itself has
// no background tasks.
type Janitor struct {
	scheduler *gocron.Scheduler
	store     *export.Store
	interval  time.Duration
}

// NewJanitor creates a Janitor sweeping the given store.
func NewJanitor(store *export.Store, interval time.Duration) *Janitor {
	s := gocron.NewScheduler(time.UTC)
	return &Janitor{
		scheduler: s,
		store:     store,
		interval:  interval,
	}
}

// Start schedules the periodic sweep and starts the underlying scheduler.
func (j *Janitor) Start() error {
	minutes := int(j.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := j.scheduler.Every(minutes).Minutes().Do(func() {
		if removed := j.store.Sweep(); removed > 0 {
			log.Printf("INFO: janitor: removed %d expired exports (%d retained)", removed, j.store.Len())
		}
	})
	if err != nil {
		return err
	}

	j.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future sweeps.
func (j *Janitor) Stop() {
	if j.scheduler != nil {
		j.scheduler.Stop()
	}
}
