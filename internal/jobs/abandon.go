package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/salesai/api-server-go/internal/repository"
)

// AbandonJob periodically marks sessions that were started but never ended.
// Abandoned sessions bill nothing; only an explicit end settles usage.
type AbandonJob struct {
	sessionRepo repository.SessionRepository
	maxAge      time.Duration
	interval    time.Duration
	done        chan struct{}
}

func NewAbandonJob(sessionRepo repository.SessionRepository, maxAge, interval time.Duration) *AbandonJob {
	return &AbandonJob{
		sessionRepo: sessionRepo,
		maxAge:      maxAge,
		interval:    interval,
		done:        make(chan struct{}),
	}
}

func (j *AbandonJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Dur("maxAge", j.maxAge).Msg("abandon job started")
}

func (j *AbandonJob) Stop() {
	close(j.done)
	log.Info().Msg("abandon job stopped")
}

func (j *AbandonJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *AbandonJob) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := j.sessionRepo.AbandonStale(ctx, time.Now().Add(-j.maxAge))
	if err != nil {
		log.Error().Err(err).Msg("failed to abandon stale sessions")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("abandoned stale sessions")
	}
}
