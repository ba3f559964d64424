package scheduler

import (
	"context"
	"time"

	"github.com/halalverify/halal-backend/internal/app/service"
	"github.com/halalverify/halal-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const noticeJobTimeout = 5 * time.Minute

// ExpiryNoticeScheduler runs the expiring-certificate announcement on a
// cron spec.
type ExpiryNoticeScheduler struct {
	cron    *cron.Cron
	spec    string
	notices service.ExpiryNoticeService
}

func NewExpiryNoticeScheduler(spec string, notices service.ExpiryNoticeService) *ExpiryNoticeScheduler {
	return &ExpiryNoticeScheduler{
		cron:    cron.New(),
		spec:    spec,
		notices: notices,
	}
}

func (s *ExpiryNoticeScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		logger.Error("Failed to add cron job for expiry notices", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Expiry notice scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

func (s *ExpiryNoticeScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), noticeJobTimeout)
	defer cancel()

	logger.Info("Starting scheduled expiry notice run", nil)
	count, err := s.notices.NotifyExpiring(ctx)
	if err != nil {
		logger.Error("Scheduled expiry notice run failed", err)
		return
	}
	logger.Info("Scheduled expiry notice run finished", map[string]interface{}{
		"notified": count,
	})
}

// Stop waits for a running job to finish.
func (s *ExpiryNoticeScheduler) Stop() {
	logger.Info("Stopping expiry notice scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Expiry notice scheduler stopped", nil)
}
