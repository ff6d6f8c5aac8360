package sim

import (
	"fmt"
	"sync"
	"sync/atomic"

	"devtimer/core"

	"go.uber.org/zap"
)

// ThreadStatus is the scheduling state of a thread
type ThreadStatus uint8

const (
	StatusReady ThreadStatus = iota
	StatusRunning
	StatusBlocked
	StatusDying
)

func (s ThreadStatus) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusBlocked:
		return "blocked"
	case StatusDying:
		return "dying"
	default:
		return "unknown"
	}
}

// Thread is a kernel thread backed by a goroutine. It only executes while
// it holds the CPU, which is handed over through run.
type Thread struct {
	id   uint32
	name string
	fn   func()
	run  chan struct{} // Buffered 1: the CPU baton

	// Guarded by Scheduler.mu
	status      ThreadStatus
	wakePending bool

	ticks atomic.Uint64 // Timer ticks spent running
}

func (t *Thread) ID() uint32   { return t.id }
func (t *Thread) Name() string { return t.name }

// Ticks returns the number of timer interrupts that arrived while t ran.
func (t *Thread) Ticks() uint64 { return t.ticks.Load() }

// Scheduler is a round-robin uniprocessor scheduler. Preemption is
// cooperative: a thread keeps the CPU until it blocks, yields or exits.
type Scheduler struct {
	log *zap.Logger

	mu      sync.Mutex
	ready   []*Thread
	current *Thread
	nextID  uint32

	idleTicks atomic.Uint64
	wg        sync.WaitGroup
	fault     func(any)
}

// NewScheduler returns an idle scheduler.
func NewScheduler(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		log:    log.Named("sched"),
		nextID: 1,
		fault:  func(any) {},
	}
}

// SetFaultHandler sets the function called when a thread panics. The thread
// then exits and the CPU passes on.
func (s *Scheduler) SetFaultHandler(fn func(any)) {
	s.fault = fn
}

// Spawn creates a ready thread running fn. It runs once the CPU is free.
func (s *Scheduler) Spawn(name string, fn func()) *Thread {
	s.mu.Lock()
	t := &Thread{
		id:     s.nextID,
		name:   name,
		fn:     fn,
		run:    make(chan struct{}, 1),
		status: StatusReady,
	}
	s.nextID++
	s.wg.Add(1)
	go s.start(t)

	s.ready = append(s.ready, t)
	if s.current == nil {
		s.switchLocked()
	}
	s.mu.Unlock()

	s.log.Debug("thread created", zap.Uint32("tid", t.id), zap.String("name", name))
	return t
}

func (s *Scheduler) start(t *Thread) {
	<-t.run
	defer s.exit(t)
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("thread panic",
				zap.Uint32("tid", t.id),
				zap.String("name", t.name),
				zap.Any("panic", r))
			s.fault(r)
		}
	}()
	t.fn()
}

func (s *Scheduler) exit(t *Thread) {
	s.mu.Lock()
	t.status = StatusDying
	s.switchLocked()
	s.mu.Unlock()

	s.log.Debug("thread exited", zap.Uint32("tid", t.id), zap.String("name", t.name))
	s.wg.Done()
}

// switchLocked hands the CPU to the next ready thread, or leaves it idle.
func (s *Scheduler) switchLocked() {
	if len(s.ready) == 0 {
		s.current = nil
		return
	}
	next := s.ready[0]
	s.ready[0] = nil
	s.ready = s.ready[1:]
	next.status = StatusRunning
	s.current = next
	next.run <- struct{}{}
}

// Current returns the running thread, nil when idle.
func (s *Scheduler) Current() core.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.current
}

// Block parks task, which must be the running thread, until Unblock. A
// wakeup that arrived first is consumed and Block returns at once.
func (s *Scheduler) Block(task core.Task) {
	t := s.thread(task)

	s.mu.Lock()
	if t != s.current {
		s.mu.Unlock()
		panic(fmt.Sprintf("sim: block of thread %d (%s) which is not running", t.id, t.name))
	}
	if t.wakePending {
		t.wakePending = false
		s.mu.Unlock()
		return
	}
	t.status = StatusBlocked
	s.switchLocked()
	s.mu.Unlock()

	<-t.run
}

// Unblock makes task ready. It never blocks and never switches threads, so
// interrupt handlers may call it. If the CPU is idle the thread is
// dispatched, as the idle loop would on the next interrupt return.
func (s *Scheduler) Unblock(task core.Task) {
	t := s.thread(task)

	s.mu.Lock()
	defer s.mu.Unlock()
	switch t.status {
	case StatusBlocked:
		t.status = StatusReady
		s.ready = append(s.ready, t)
		if s.current == nil {
			s.switchLocked()
		}
	case StatusRunning, StatusReady:
		t.wakePending = true
	}
}

// Yield puts the running thread at the back of the ready queue.
func (s *Scheduler) Yield() {
	s.mu.Lock()
	t := s.current
	if t == nil || len(s.ready) == 0 {
		s.mu.Unlock()
		return
	}
	t.status = StatusReady
	s.ready = append(s.ready, t)
	s.switchLocked()
	s.mu.Unlock()

	<-t.run
}

// Tick charges one timer tick to the running thread or to idle time.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	t := s.current
	s.mu.Unlock()
	if t == nil {
		s.idleTicks.Add(1)
		return
	}
	t.ticks.Add(1)
}

// IdleTicks returns the ticks that arrived with no thread running.
func (s *Scheduler) IdleTicks() uint64 {
	return s.idleTicks.Load()
}

// Status returns the scheduling state of t.
func (s *Scheduler) Status(t *Thread) ThreadStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.status
}

// Wait returns once every spawned thread has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) thread(task core.Task) *Thread {
	t, ok := task.(*Thread)
	if !ok {
		panic(fmt.Sprintf("sim: task %T is not a sim thread", task))
	}
	return t
}
