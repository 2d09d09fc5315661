package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	calls []time.Duration
	n     int64
	err   error
}

func (p *fakePruner) PruneIdle(_ context.Context, olderThan time.Duration) (int64, error) {
	p.calls = append(p.calls, olderThan)
	return p.n, p.err
}

func TestPruneOnce_UsesTTL(t *testing.T) {
	p := &fakePruner{n: 3}
	s := New(p, 2*time.Hour)

	n, err := s.PruneOnce(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.Equal(t, []time.Duration{2 * time.Hour}, p.calls)
}

func TestPruneOnce_Error(t *testing.T) {
	p := &fakePruner{err: errors.New("disk full")}
	_, err := New(p, time.Hour).PruneOnce(context.Background())
	assert.Error(t, err)
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	s := New(&fakePruner{}, time.Hour)
	assert.Error(t, s.Start("every now and then"))
}

func TestStart_Twice(t *testing.T) {
	s := New(&fakePruner{}, time.Hour)
	require.NoError(t, s.Start("*/15 * * * *"))
	defer s.Stop()

	assert.Error(t, s.Start("*/15 * * * *"))
}
