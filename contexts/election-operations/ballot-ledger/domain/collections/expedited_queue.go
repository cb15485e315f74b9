package collections

import (
	"electionledger/contexts/election-operations/ballot-ledger/domain/entities"
	domainerrors "electionledger/contexts/election-operations/ballot-ledger/domain/errors"
)

type expeditedItem struct {
	request  entities.IntakeRequest
	priority int
}

// ExpeditedQueue is an array-backed priority queue for expedited voter
// requests. Higher priority dequeues first. Insertion scans for position, so
// it is linear in the current size; extraction is O(1). Equal priorities keep
// enqueue order: a new item is placed after every existing item of the same
// priority, which makes the ordering stable by construction.
type ExpeditedQueue struct {
	items []expeditedItem
	next  uint64
}

func NewExpeditedQueue() *ExpeditedQueue {
	return &ExpeditedQueue{}
}

func (q *ExpeditedQueue) IsEmpty() bool {
	return len(q.items) == 0
}

func (q *ExpeditedQueue) Len() int {
	return len(q.items)
}

func (q *ExpeditedQueue) Enqueue(req entities.IntakeRequest, priority int) {
	q.next++
	req.EnqueueOrder = q.next
	item := expeditedItem{request: req, priority: priority}

	at := len(q.items)
	for i := range q.items {
		if priority > q.items[i].priority {
			at = i
			break
		}
	}
	q.items = append(q.items, expeditedItem{})
	copy(q.items[at+1:], q.items[at:])
	q.items[at] = item
}

func (q *ExpeditedQueue) Dequeue() (entities.IntakeRequest, error) {
	if q.IsEmpty() {
		return entities.IntakeRequest{}, domainerrors.ErrEmptyQueue
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item.request, nil
}

func (q *ExpeditedQueue) Peek() (entities.IntakeRequest, error) {
	if q.IsEmpty() {
		return entities.IntakeRequest{}, domainerrors.ErrEmptyQueue
	}
	return q.items[0].request, nil
}
