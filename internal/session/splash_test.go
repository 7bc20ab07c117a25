package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vburojevic/mscope/internal/domain"
	"github.com/vburojevic/mscope/internal/history"
)

func waitDone(t *testing.T, s *Splash) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("splash never finished")
	}
}

func TestSplashFiresOnce(t *testing.T) {
	c, _, clk := newTestController(t, fixedSource(t))
	s := c.ScheduleLoading(DefaultSplashDuration)

	clk.Add(DefaultSplashDuration - time.Millisecond)
	assert.Equal(t, domain.PhaseLoading, c.View().Phase)

	clk.Add(time.Millisecond)
	waitDone(t, s)
	assert.True(t, s.Fired())
	assert.Equal(t, domain.PhaseReady, c.View().Phase)
	assert.False(t, s.Cancel())
}

func TestSplashCancel(t *testing.T) {
	c, _, clk := newTestController(t, fixedSource(t))
	s := c.ScheduleLoading(time.Second)

	assert.True(t, s.Cancel())
	waitDone(t, s)
	clk.Add(5 * time.Second)

	assert.False(t, s.Fired())
	assert.Equal(t, domain.PhaseLoading, c.View().Phase)
	assert.False(t, s.Cancel())
}

func TestSplashCancelledByClose(t *testing.T) {
	c, _, clk := newTestController(t, fixedSource(t))

	var views int
	c.Subscribe(func(View) { views++ })
	s := c.ScheduleLoading(time.Second)

	c.Close()
	waitDone(t, s)
	clk.Add(2 * time.Second)

	assert.False(t, s.Fired())
	assert.Equal(t, domain.PhaseLoading, c.View().Phase)
	assert.Zero(t, views)
}

func TestSplashAfterClose(t *testing.T) {
	c, _, _ := newTestController(t, fixedSource(t))
	c.Close()

	s := c.ScheduleLoading(time.Second)
	waitDone(t, s)
	assert.False(t, s.Fired())
}

func TestSplashReschedule(t *testing.T) {
	c, _, clk := newTestController(t, fixedSource(t))
	first := c.ScheduleLoading(time.Second)
	second := c.ScheduleLoading(3 * time.Second)

	waitDone(t, first)
	assert.False(t, first.Fired())

	clk.Add(time.Second)
	assert.Equal(t, domain.PhaseLoading, c.View().Phase)

	clk.Add(2 * time.Second)
	waitDone(t, second)
	assert.Equal(t, domain.PhaseReady, c.View().Phase)
}

func TestSplashRealClock(t *testing.T) {
	c := New(fixedSource(t), history.NewMemory())
	defer c.Close()

	s := c.ScheduleLoading(5 * time.Millisecond)
	waitDone(t, s)
	require.True(t, s.Fired())
	assert.Equal(t, domain.PhaseReady, c.View().Phase)
}
