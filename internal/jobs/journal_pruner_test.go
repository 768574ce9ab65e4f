package jobs

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPruner struct {
	mu        sync.Mutex
	calls     int
	retention time.Duration
}

func (p *countingPruner) PruneJournal(retention time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.retention = retention
	return nil
}

func TestNewJournalPrunerRegistersJob(t *testing.T) {
	p := &countingPruner{}
	c, err := NewJournalPruner(p, "0 3 * * *", 24*time.Hour, nil)
	require.NoError(t, err)
	require.Len(t, c.Entries(), 1)

	c.Entries()[0].Job.Run()
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, 24*time.Hour, p.retention)
}

func TestNewJournalPrunerDisabled(t *testing.T) {
	for _, tc := range []struct {
		name      string
		schedule  string
		retention time.Duration
	}{
		{"no schedule", "", time.Hour},
		{"no retention", "0 3 * * *", 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewJournalPruner(&countingPruner{}, tc.schedule, tc.retention, nil)
			require.NoError(t, err)
			assert.Empty(t, c.Entries())
		})
	}
}

func TestNewJournalPrunerBadSchedule(t *testing.T) {
	_, err := NewJournalPruner(&countingPruner{}, "every tuesday", time.Hour, nil)
	assert.Error(t, err)
}
