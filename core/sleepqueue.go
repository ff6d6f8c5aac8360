package core

// sleepEntry is one task waiting for its wake tick.
type sleepEntry struct {
	task     Task
	wakeTick int64
	next     *sleepEntry
}

// sleepQueue keeps sleeping tasks in ascending wake tick order, with ties in
// insertion order, so the due entries are always a prefix. Entries come from
// a fixed pool: the dispatcher runs in interrupt context and must not touch
// the allocator. Every field is guarded by lock.
type sleepQueue struct {
	lock SpinLock
	head *sleepEntry
	tail *sleepEntry
	len  int
	free *sleepEntry
	pool []sleepEntry
}

// init allocates n entries and resets the queue. Not safe once tasks sleep.
func (q *sleepQueue) init(n int) {
	q.pool = make([]sleepEntry, n)
	q.head, q.tail, q.free, q.len = nil, nil, nil, 0
	for i := range q.pool {
		q.pool[i].next = q.free
		q.free = &q.pool[i]
	}
}

// alloc takes an entry from the pool, nil when exhausted.
func (q *sleepQueue) alloc() *sleepEntry {
	e := q.free
	if e == nil {
		return nil
	}
	q.free = e.next
	e.next = nil
	return e
}

// release returns e to the pool and drops its task reference.
func (q *sleepQueue) release(e *sleepEntry) {
	*e = sleepEntry{next: q.free}
	q.free = e
}

// insert adds e in wake tick order
func (q *sleepQueue) insert(e *sleepEntry) {
	q.len++

	// Empty queue, or not earlier than the latest deadline: append
	if q.head == nil {
		q.head, q.tail = e, e
		return
	}
	if e.wakeTick >= q.tail.wakeTick {
		q.tail.next = e
		q.tail = e
		return
	}

	if e.wakeTick < q.head.wakeTick {
		e.next = q.head
		q.head = e
		return
	}

	// e belongs strictly before tail, so the walk stops before running off
	// the end.
	current := q.head
	for current.next.wakeTick <= e.wakeTick {
		current = current.next
	}
	e.next = current.next
	current.next = e
}

// popDue unlinks and returns the front entry if its deadline is at or
// before now.
func (q *sleepQueue) popDue(now int64) *sleepEntry {
	e := q.head
	if e == nil || e.wakeTick > now {
		return nil
	}
	q.head = e.next
	if q.head == nil {
		q.tail = nil
	}
	e.next = nil
	q.len--
	return e
}

// wakeTicks lists the queued deadlines front to back.
func (q *sleepQueue) wakeTicks() []int64 {
	out := make([]int64, 0, q.len)
	for e := q.head; e != nil; e = e.next {
		out = append(out, e.wakeTick)
	}
	return out
}
