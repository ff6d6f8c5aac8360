package sim

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trace is an append-only log shared by threads
type trace struct {
	mu    sync.Mutex
	steps []string
}

func (tr *trace) add(s string) {
	tr.mu.Lock()
	tr.steps = append(tr.steps, s)
	tr.mu.Unlock()
}

func (tr *trace) get() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.steps...)
}

func TestSchedulerYieldRoundRobin(t *testing.T) {
	s := NewScheduler(nil)
	var tr trace

	s.Spawn("root", func() {
		s.Spawn("a", func() {
			tr.add("a1")
			s.Yield()
			tr.add("a2")
		})
		s.Spawn("b", func() {
			tr.add("b1")
			s.Yield()
			tr.add("b2")
		})
	})
	s.Wait()

	assert.Equal(t, []string{"a1", "b1", "a2", "b2"}, tr.get())
	assert.Nil(t, s.Current())
}

func TestSchedulerBlockUnblock(t *testing.T) {
	s := NewScheduler(nil)
	var tr trace
	var a *Thread
	var statuses []ThreadStatus

	s.Spawn("root", func() {
		a = s.Spawn("a", func() {
			tr.add("a blocks")
			s.Block(s.Current())
			tr.add("a woken")
		})
		s.Spawn("b", func() {
			statuses = append(statuses, s.Status(a))
			s.Unblock(a)
			statuses = append(statuses, s.Status(a))
			tr.add("b unblocked a")
		})
	})
	s.Wait()

	assert.Equal(t, []string{"a blocks", "b unblocked a", "a woken"}, tr.get())
	assert.Equal(t, []ThreadStatus{StatusBlocked, StatusReady}, statuses)
	assert.Equal(t, StatusDying, s.Status(a))
}

func TestSchedulerEarlyUnblockNotLost(t *testing.T) {
	s := NewScheduler(nil)
	var tr trace

	s.Spawn("self", func() {
		self := s.Current()
		s.Unblock(self)
		s.Block(self)
		tr.add("returned")
	})
	s.Wait()

	assert.Equal(t, []string{"returned"}, tr.get())
}

func TestSchedulerBlockOtherThreadPanics(t *testing.T) {
	s := NewScheduler(nil)
	var panicked bool

	s.Spawn("root", func() {
		other := s.Spawn("other", func() {})
		func() {
			defer func() { panicked = recover() != nil }()
			s.Block(other)
		}()
	})
	s.Wait()

	assert.True(t, panicked)
}

func TestSchedulerThreadPanicReported(t *testing.T) {
	s := NewScheduler(nil)
	faults := make(chan any, 1)
	s.SetFaultHandler(func(r any) { faults <- r })
	var tr trace

	s.Spawn("root", func() {
		s.Spawn("after", func() { tr.add("after ran") })
		panic("boom")
	})
	s.Wait()

	require.Len(t, faults, 1)
	assert.Equal(t, "boom", <-faults)
	assert.Equal(t, []string{"after ran"}, tr.get(), "CPU passes on after a panic")
}

func TestSchedulerTickAccounting(t *testing.T) {
	s := NewScheduler(nil)
	s.Tick()
	s.Tick()
	assert.Equal(t, uint64(2), s.IdleTicks())

	var th *Thread
	s.Spawn("root", func() {
		th = s.Current().(*Thread)
		s.Tick()
	})
	s.Wait()

	assert.Equal(t, uint64(1), th.Ticks())
	assert.Equal(t, uint64(2), s.IdleTicks())
	assert.Equal(t, uint32(1), th.ID())
	assert.Equal(t, "root", th.Name())
}

func TestThreadStatusString(t *testing.T) {
	assert.Equal(t, "ready", StatusReady.String())
	assert.Equal(t, "running", StatusRunning.String())
	assert.Equal(t, "blocked", StatusBlocked.String())
	assert.Equal(t, "dying", StatusDying.String())
	assert.Equal(t, "unknown", ThreadStatus(9).String())
}
