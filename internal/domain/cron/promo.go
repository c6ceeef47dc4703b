package cron

import (
	"context"
	"time"

	"github.com/trixlive/backend/config"
	"github.com/trixlive/backend/internal/client"
	"github.com/trixlive/backend/pkg/crypto"
	"github.com/trixlive/backend/pkg/xcontext"
)

// PromoCronJob posts the promotional message to the community chat at a
// random interval between the configured bounds.
type PromoCronJob struct {
	notifier client.Notifier
	cfg      config.SchedulerConfigs
	now      func() time.Time
	randIntn func(n int) int
}

func NewPromoCronJob(notifier client.Notifier, cfg config.SchedulerConfigs) *PromoCronJob {
	return &PromoCronJob{
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
		randIntn: crypto.RandIntn,
	}
}

func (job *PromoCronJob) Do(ctx context.Context) {
	if !job.cfg.Enabled || job.cfg.ChatID == 0 || job.cfg.Message == "" {
		return
	}

	if _, err := job.notifier.SendText(ctx, job.cfg.ChatID, job.cfg.Message, nil); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot send promotional message: %v", err)
		return
	}

	xcontext.Logger(ctx).Infof("Promotional message sent to %d", job.cfg.ChatID)
}

func (job *PromoCronJob) RunNow() bool {
	return false
}

// Next picks a whole number of minutes in [MinInterval, MaxInterval].
func (job *PromoCronJob) Next() time.Time {
	low := int(job.cfg.MinInterval / time.Minute)
	high := int(job.cfg.MaxInterval / time.Minute)
	if low < 1 {
		low = 1
	}
	if high < low {
		high = low
	}

	minutes := low + job.randIntn(high-low+1)
	return job.now().Add(time.Duration(minutes) * time.Minute)
}
