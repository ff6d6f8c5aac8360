package core

// Task is an opaque handle to a schedulable thread of execution.
// The timer never owns a Task; it only keeps a reference while the task
// sleeps, and a blocked task cannot be destroyed.
type Task interface {
	ID() uint32
	Name() string
}

// Scheduler is the part of the thread scheduler the timer depends on.
type Scheduler interface {
	// Current returns the running task.
	Current() Task

	// Block removes t, which must be the running task, from the runnable
	// set and returns once t has been unblocked. An Unblock that arrives
	// after t was queued for wakeup but before Block is entered must not be
	// lost: Block then returns immediately.
	Block(t Task)

	// Unblock marks t runnable. It is called from interrupt context, so it
	// must not block and must not switch to t directly. The caller
	// guarantees at most one Unblock per Block.
	Unblock(t Task)

	// Tick is called once per timer interrupt for time slice accounting.
	Tick()
}
