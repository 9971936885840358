// Package degraded holds booking requests accepted while the database is
// unreachable. The queue is process-local and bounded; its contents are
// lost on restart, which callers are told up front via the QUEUED reply.
package degraded

import (
	"sync"
	"time"

	apperrors "district/internal/errors"
	"district/internal/models"
)

type Queue struct {
	mu       sync.Mutex
	capacity int
	order    []string
	requests map[string]*models.DegradedRequest
}

func NewQueue(capacity int) *Queue {
	return &Queue{
		capacity: capacity,
		requests: make(map[string]*models.DegradedRequest),
	}
}

// Enqueue parks a booking request for later retry. A request ID already in
// the queue is returned as-is so repeated submissions collapse into one
// pending entry.
func (q *Queue) Enqueue(req *models.DegradedRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.requests[req.RequestID]; ok {
		return nil
	}
	if len(q.order) >= q.capacity {
		return apperrors.ErrDegradedQueueFull
	}

	req.QueuedAt = time.Now().UTC()
	q.order = append(q.order, req.RequestID)
	q.requests[req.RequestID] = req
	return nil
}

func (q *Queue) Get(requestID string) (*models.DegradedRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	req, ok := q.requests[requestID]
	return req, ok
}

// IncrementRetry bumps the retry counter of a queued request and returns
// the new count, or 0 when the request is no longer queued.
func (q *Queue) IncrementRetry(requestID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	req, ok := q.requests[requestID]
	if !ok {
		return 0
	}
	req.RetryCount++
	return req.RetryCount
}

// Remove drops a request once it has been resolved, either committed or
// rejected for a business reason.
func (q *Queue) Remove(requestID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.requests[requestID]; !ok {
		return
	}
	delete(q.requests, requestID)
	for i, id := range q.order {
		if id == requestID {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

// List returns queued requests in arrival order.
func (q *Queue) List() []models.DegradedRequest {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]models.DegradedRequest, 0, len(q.order))
	for _, id := range q.order {
		out = append(out, *q.requests[id])
	}
	return out
}

func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}
