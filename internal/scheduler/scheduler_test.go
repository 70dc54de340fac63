package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/bountyforge/bountyforge/internal/adapter"
)

func TestScheduler_AvailabilityRefreshRunsOnSchedule(t *testing.T) {
	registry := adapter.New(map[string]adapter.Factory{})
	s := New(arbor.NewLogger())

	require.NoError(t, s.ScheduleAvailabilityRefresh("@every 10ms", registry))
	s.Start()
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
}

func TestScheduler_RejectsInvalidSpec(t *testing.T) {
	registry := adapter.New(map[string]adapter.Factory{})
	s := New(arbor.NewLogger())

	err := s.ScheduleAvailabilityRefresh("not-a-cron-spec", registry)
	require.Error(t, err)
}
