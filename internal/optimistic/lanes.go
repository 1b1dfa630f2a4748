package optimistic

import "sync"

// Lanes runs functions one at a time per key, in submission order.
// Different keys run concurrently.
type Lanes[K comparable] struct {
	mu     sync.Mutex
	queues map[K][]func()
	wg     sync.WaitGroup
}

// NewLanes creates an empty lane set
func NewLanes[K comparable]() *Lanes[K] {
	return &Lanes[K]{queues: make(map[K][]func())}
}

// Go queues fn behind every earlier function submitted for key
func (l *Lanes[K]) Go(key K, fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.wg.Add(1)
	queue, running := l.queues[key]
	l.queues[key] = append(queue, fn)
	if !running {
		go l.drain(key)
	}
}

// Wait blocks until every queued function has returned
func (l *Lanes[K]) Wait() {
	l.wg.Wait()
}

func (l *Lanes[K]) drain(key K) {
	for {
		l.mu.Lock()
		queue := l.queues[key]
		if len(queue) == 0 {
			delete(l.queues, key)
			l.mu.Unlock()
			return
		}
		fn := queue[0]
		l.queues[key] = queue[1:]
		l.mu.Unlock()

		fn()
		l.wg.Done()
	}
}
