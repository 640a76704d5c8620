package main

import "container/heap"

// Task is one unit of deadline-bound work to place on a node (§3).
type Task struct {
	ID       int
	SizeMB   float64
	Deadline float64

	seq int
}

// TaskOutcome records the result of one allocation attempt, in
// insertion order per node (§3). FailureReason is nil on success and
// one of the sentinel allocator errors (wrapped) otherwise (§7).
type TaskOutcome struct {
	TaskID           int
	AssignTime       float64
	Success          bool
	TransferStart    float64
	TransferComplete float64
	FailureReason    error
}

// seedTasks is the fixed deterministic task set the queue starts with
// (§4.H).
func seedTasks() []Task {
	sizes := [5]float64{110, 300, 190, 750, 150}
	deadlines := [5]float64{10, 20, 15, 30, 12}
	tasks := make([]Task, 5)
	for i := range tasks {
		tasks[i] = Task{ID: i, SizeMB: sizes[i], Deadline: deadlines[i]}
	}
	return tasks
}

// taskHeap is a container/heap min-heap over (deadline, seq), giving
// deadline-priority ordering with insertion-order tie-breaks.
type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].Deadline != h[j].Deadline {
		return h[i].Deadline < h[j].Deadline
	}
	return h[i].seq < h[j].seq
}
func (h taskHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x interface{}) { *h = append(*h, x.(*Task)) }
func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	*h = old[:n-1]
	return t
}

// TaskQueue is the process-wide deadline-ordered priority queue (§4.H).
type TaskQueue struct {
	heap   taskHeap
	nextSeq int
}

// NewTaskQueue builds a queue seeded with the fixed deterministic task
// set.
func NewTaskQueue() *TaskQueue {
	q := &TaskQueue{}
	for _, t := range seedTasks() {
		q.Push(t)
	}
	return q
}

// Push adds a task to the queue, tagging it with an insertion sequence
// for tie-breaking.
func (q *TaskQueue) Push(t Task) {
	t.seq = q.nextSeq
	q.nextSeq++
	heap.Push(&q.heap, &t)
}

// Peek returns the earliest-deadline task without removing it.
func (q *TaskQueue) Peek() (Task, bool) {
	if q.heap.Len() == 0 {
		return Task{}, false
	}
	return *q.heap[0], true
}

// Pop removes and returns the earliest-deadline task.
func (q *TaskQueue) Pop() (Task, bool) {
	if q.heap.Len() == 0 {
		return Task{}, false
	}
	t := heap.Pop(&q.heap).(*Task)
	return *t, true
}

// Len returns the number of tasks still queued.
func (q *TaskQueue) Len() int { return q.heap.Len() }
