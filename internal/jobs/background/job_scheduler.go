package background

import (
	"context"
	"log"
	"time"

	"signalgate/internal/jobs"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler owns the background schedule: currently a single hourly
// expiry sweep.
type JobScheduler struct {
	scheduler gocron.Scheduler
	sweeper   *jobs.ExpirySweeper
}

func NewJobScheduler(sweeper *jobs.ExpirySweeper) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler: scheduler,
		sweeper:   sweeper,
	}
	if err := js.registerJobs(); err != nil {
		return nil, err
	}
	return js, nil
}

func (js *JobScheduler) registerJobs() error {
	_, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			if err := js.sweeper.Sweep(context.Background()); err != nil {
				log.Printf("ERROR: expiry sweep: %v", err)
			}
		}),
		gocron.WithName("expiry-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}
