package store

import (
	"time"

	"github.com/go-co-op/gocron/v2"
)

const (
	PRUNE_TAG = "ARCHIVE|PRUNE"
)

type Scheduler struct {
	gocron.Scheduler
}

func NewScheduler() (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		Scheduler: scheduler,
	}, nil
}

// AddPruneJob deletes archived events older than retention every interval.
// onPrune, when set, receives the outcome of each run.
func (s *Scheduler) AddPruneJob(
	db Database,
	retention time.Duration,
	interval time.Duration,
	onPrune func(deleted int64, err error),
) error {
	_, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			deleted, err := db.Prune(time.Now().Add(-retention))
			if onPrune != nil {
				onPrune(deleted, err)
			}
		}),
		gocron.WithTags(PRUNE_TAG),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

func (s *Scheduler) CancelPruneJob() {
	s.RemoveByTags(PRUNE_TAG)
}
