package main

import "testing"

func TestTaskQueue_SeededWithFixedTasks(t *testing.T) {
	q := NewTaskQueue()
	if q.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", q.Len())
	}
}

func TestTaskQueue_PopsByAscendingDeadline(t *testing.T) {
	q := NewTaskQueue()
	var deadlines []float64
	for q.Len() > 0 {
		task, ok := q.Pop()
		if !ok {
			t.Fatal("Pop() returned false with Len() > 0")
		}
		deadlines = append(deadlines, task.Deadline)
	}
	for i := 1; i < len(deadlines); i++ {
		if deadlines[i] < deadlines[i-1] {
			t.Fatalf("deadlines not ascending: %v", deadlines)
		}
	}
}

func TestTaskQueue_TiesBrokenByInsertionOrder(t *testing.T) {
	q := &TaskQueue{}
	q.Push(Task{ID: 1, Deadline: 5})
	q.Push(Task{ID: 2, Deadline: 5})
	first, _ := q.Pop()
	second, _ := q.Pop()
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("got %v then %v, want id 1 then id 2", first, second)
	}
}

func TestTaskQueue_PeekDoesNotRemove(t *testing.T) {
	q := NewTaskQueue()
	before := q.Len()
	if _, ok := q.Peek(); !ok {
		t.Fatal("Peek() on non-empty queue returned false")
	}
	if q.Len() != before {
		t.Fatalf("Peek() changed Len(): %d -> %d", before, q.Len())
	}
}
