package collections

import (
	"electionledger/contexts/election-operations/ballot-ledger/domain/entities"
	domainerrors "electionledger/contexts/election-operations/ballot-ledger/domain/errors"
)

const DefaultIntakeCapacity = 100

// IntakeQueue is a fixed-capacity circular FIFO buffer for voter-intake
// requests. Enqueue, Dequeue and Peek are O(1); advancement is modular
// arithmetic, never a shift. Size is tracked explicitly so front == rear is
// not ambiguous between empty and full.
type IntakeQueue struct {
	slots []entities.IntakeRequest
	front int
	rear  int
	size  int
	next  uint64
}

func NewIntakeQueue(capacity int) *IntakeQueue {
	if capacity <= 0 {
		capacity = DefaultIntakeCapacity
	}
	return &IntakeQueue{
		slots: make([]entities.IntakeRequest, capacity),
		front: 0,
		rear:  -1,
	}
}

func (q *IntakeQueue) IsEmpty() bool {
	return q.size == 0
}

func (q *IntakeQueue) IsFull() bool {
	return q.size == len(q.slots)
}

func (q *IntakeQueue) Len() int {
	return q.size
}

func (q *IntakeQueue) Cap() int {
	return len(q.slots)
}

// Enqueue appends at the rear. The queue stamps the request with a
// monotonically increasing enqueue order. A full queue is left untouched.
func (q *IntakeQueue) Enqueue(req entities.IntakeRequest) error {
	if q.IsFull() {
		return domainerrors.ErrCapacityExceeded
	}
	q.next++
	req.EnqueueOrder = q.next
	q.rear = (q.rear + 1) % len(q.slots)
	q.slots[q.rear] = req
	q.size++
	return nil
}

// Dequeue removes and returns the front request. The freed slot is cleared so
// it holds no stale reference and can be reused circularly.
func (q *IntakeQueue) Dequeue() (entities.IntakeRequest, error) {
	if q.IsEmpty() {
		return entities.IntakeRequest{}, domainerrors.ErrEmptyQueue
	}
	req := q.slots[q.front]
	q.slots[q.front] = entities.IntakeRequest{}
	q.front = (q.front + 1) % len(q.slots)
	q.size--
	return req, nil
}

// Peek returns the front request without removing it.
func (q *IntakeQueue) Peek() (entities.IntakeRequest, error) {
	if q.IsEmpty() {
		return entities.IntakeRequest{}, domainerrors.ErrEmptyQueue
	}
	return q.slots[q.front], nil
}

// Snapshot returns the pending requests in FIFO order. O(n), read-only.
func (q *IntakeQueue) Snapshot() []entities.IntakeRequest {
	items := make([]entities.IntakeRequest, 0, q.size)
	index := q.front
	for i := 0; i < q.size; i++ {
		items = append(items, q.slots[index])
		index = (index + 1) % len(q.slots)
	}
	return items
}
