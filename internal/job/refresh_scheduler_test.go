package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubRefresher struct {
	calls atomic.Int32
	err   error
}

func (s *stubRefresher) RefreshAll(ctx context.Context) (int, error) {
	s.calls.Add(1)
	return 1, s.err
}

func TestRefreshScheduler_RunsOnStartup(t *testing.T) {
	r := &stubRefresher{}
	s := NewRefreshScheduler(r, RefreshConfig{Interval: time.Hour}, zap.NewNop())

	s.Start(true)
	assert.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestRefreshScheduler_Ticks(t *testing.T) {
	r := &stubRefresher{err: errors.New("catalog unavailable")}
	s := NewRefreshScheduler(r, RefreshConfig{Interval: 10 * time.Millisecond}, zap.NewNop())

	s.Start(false)
	assert.Eventually(t, func() bool { return r.calls.Load() >= 3 }, time.Second, 5*time.Millisecond,
		"failures do not stop the loop")
	s.Stop()

	after := r.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, r.calls.Load(), "no refresh after Stop")
}

func TestRefreshScheduler_StopWithoutStart(t *testing.T) {
	s := NewRefreshScheduler(&stubRefresher{}, RefreshConfig{Interval: time.Second}, zap.NewNop())
	assert.NotPanics(t, s.Stop)
}

func TestRefreshScheduler_StopNil(t *testing.T) {
	var s *RefreshScheduler
	assert.NotPanics(t, s.Stop)
}
