// Package jobs holds the scheduled background work
package jobs

import (
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Pruner drops journal entries older than a retention window
type Pruner interface {
	PruneJournal(retention time.Duration) error
}

// NewJournalPruner returns a cron scheduler (not yet started) that prunes the
// journal on schedule. An empty schedule or non-positive retention disables it.
func NewJournalPruner(p Pruner, schedule string, retention time.Duration, log *zap.SugaredLogger) (*cron.Cron, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	c := cron.New()
	if schedule == "" || retention <= 0 {
		log.Info("Journal pruning is disabled")
		return c, nil
	}

	_, err := c.AddFunc(schedule, func() {
		if err := p.PruneJournal(retention); err != nil {
			log.Errorf("Scheduled journal pruning failed: %v", err)
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to set up cron job %q", schedule)
	}

	log.Infof("Journal pruning scheduled (%s, retention %s)", schedule, retention)
	return c, nil
}
