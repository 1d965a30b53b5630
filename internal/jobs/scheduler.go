package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"accounthub/api/internal/repository"
)

// Scheduler reaps expired session tokens so revocation checks stay cheap.
type Scheduler struct {
	cron   *cron.Cron
	tokens *repository.TokenRepository
	log    zerolog.Logger
}

func NewScheduler(tokens *repository.TokenRepository, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:   c,
		tokens: tokens,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if s.tokens == nil {
		return nil
	}

	if _, err := s.cron.AddFunc("0 0 3 * * *", s.purgeExpiredTokens); err != nil { // nightly
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() context.CancelFunc {
	_, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	go func() {
		s.cron.Stop()
		cancel()
	}()
	return cancel
}

func (s *Scheduler) purgeExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	purged, err := s.tokens.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("purge expired tokens failed")
		return
	}
	if purged > 0 {
		s.log.Info().Int64("purged", purged).Msg("expired tokens removed")
	}
}
