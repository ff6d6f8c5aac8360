package core

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeTask struct {
	id   uint32
	name string
}

func (f *fakeTask) ID() uint32   { return f.id }
func (f *fakeTask) Name() string { return f.name }

// fakeSched records block and unblock calls. Block returns at once.
type fakeSched struct {
	mu      sync.Mutex
	current Task
	blocked []Task
	woken   []Task
	ticks   int
}

func (s *fakeSched) Current() Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *fakeSched) setCurrent(t Task) {
	s.mu.Lock()
	s.current = t
	s.mu.Unlock()
}

func (s *fakeSched) Block(t Task) {
	s.mu.Lock()
	s.blocked = append(s.blocked, t)
	s.mu.Unlock()
}

func (s *fakeSched) Unblock(t Task) {
	s.mu.Lock()
	s.woken = append(s.woken, t)
	s.mu.Unlock()
}

func (s *fakeSched) Tick() {
	s.mu.Lock()
	s.ticks++
	s.mu.Unlock()
}

func (s *fakeSched) wokenNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.woken))
	for _, t := range s.woken {
		names = append(names, t.Name())
	}
	return names
}

func (s *fakeSched) blockedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blocked)
}

// fakeIntr tracks the interrupt level and fires registered handlers on
// demand.
type fakeIntr struct {
	level    atomic.Uint32
	mu       sync.Mutex
	handlers map[uint8]Handler
	names    map[uint8]string
}

func newFakeIntr() *fakeIntr {
	f := &fakeIntr{
		handlers: make(map[uint8]Handler),
		names:    make(map[uint8]string),
	}
	f.level.Store(uint32(IntrOn))
	return f
}

func (f *fakeIntr) RegisterExt(vector uint8, name string, h Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[vector] = h
	f.names[vector] = name
}

func (f *fakeIntr) Disable() Level {
	return Level(f.level.Swap(uint32(IntrOff)))
}

func (f *fakeIntr) Restore(old Level) {
	f.level.Store(uint32(old))
}

func (f *fakeIntr) Level() Level {
	return Level(f.level.Load())
}

// fire delivers n timer interrupts
func (f *fakeIntr) fire(n int) {
	f.mu.Lock()
	h := f.handlers[TimerVector]
	f.mu.Unlock()
	for i := 0; i < n; i++ {
		h(&Frame{Vector: TimerVector})
	}
}

type fakeChip struct {
	channel, mode int
	freq          uint32
	err           error
}

func (c *fakeChip) Configure(channel, mode int, freq uint32) error {
	c.channel, c.mode, c.freq = channel, mode, freq
	return c.err
}

type fixture struct {
	timer *Timer
	sched *fakeSched
	intr  *fakeIntr
	chip  *fakeChip
	lines []string
}

// newFixture returns an initialized timer whose current task is "main"
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		sched: &fakeSched{current: &fakeTask{id: 1, name: "main"}},
		intr:  newFakeIntr(),
		chip:  &fakeChip{},
	}
	opts = append([]Option{WithDebugWriter(func(s string) { f.lines = append(f.lines, s) })}, opts...)
	f.timer = New(f.sched, f.intr, f.chip, opts...)
	f.timer.Init()
	return f
}

// sleepAs queues a sleep for a task named name
func (f *fixture) sleepAs(id uint32, name string, wakeTick int64) {
	f.sched.setCurrent(&fakeTask{id: id, name: name})
	f.timer.SleepUntil(wakeTick)
}

// markCalibrated skips the measurement and installs loopsPerTick
func (f *fixture) markCalibrated(loopsPerTick uint64) {
	f.timer.loopsPerTick.Store(loopsPerTick)
	f.timer.state.Store(stateCalibrated)
}

// requireHalt runs fn and asserts it halts the kernel with a message
// containing contains.
func requireHalt(t *testing.T, contains string, fn func()) *KernelPanic {
	t.Helper()

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		fn()
	}()

	require.NotNil(t, recovered, "expected kernel halt")
	kp, ok := recovered.(*KernelPanic)
	require.True(t, ok, "panic value %v is not a *KernelPanic", recovered)
	require.Contains(t, kp.Msg, contains)
	return kp
}
