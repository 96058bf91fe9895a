package certificate

import (
	"context"
	"fmt"

	"go-permits/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper runs the certificate expiration pass on a cron schedule.
type Sweeper struct {
	service   CertificateService
	schedule  string
	logger    *zap.Logger
	scheduler *cron.Cron
}

func NewSweeper(service CertificateService, cfg *config.Config, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		service:  service,
		schedule: cfg.SweepSchedule,
		logger:   logger,
	}
}

func (s *Sweeper) Start(ctx context.Context) error {
	s.scheduler = cron.New()

	_, err := s.scheduler.AddFunc(s.schedule, func() {
		expired, err := s.service.SweepExpired(context.Background())
		if err != nil {
			s.logger.Error("expiration sweep failed", zap.Error(err))
			return
		}
		if expired > 0 {
			s.logger.Info("expiration sweep finished", zap.Int("expired", expired))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule expiration sweep: %w", err)
	}

	s.scheduler.Start()
	s.logger.Info("expiration sweep scheduled", zap.String("schedule", s.schedule))
	return nil
}

func (s *Sweeper) Stop() error {
	if s.scheduler != nil {
		ctx := s.scheduler.Stop()
		<-ctx.Done()
	}
	return nil
}
