package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidTriggerTime = errors.New("scheduler: invalid trigger time")
	ErrEngineStopped      = errors.New("scheduler: engine stopped")
	ErrUnknownHandle      = errors.New("scheduler: unknown notification handle")
)

// Handle identifies one registered notification. Handles are not persisted.
type Handle string

// Payload is what a notification shows when it fires. RepeatEveryDays > 0
// re-arms the notification that many days after each firing.
type Payload struct {
	RuleID          string
	Title           string
	Body            string
	RepeatEveryDays int
}

// Arrival is a delivered notification.
type Arrival struct {
	Handle      Handle
	Payload     Payload
	ScheduledAt time.Time
	DeliveredAt time.Time
}

// Scheduled is a pending registration as reported by Pending.
type Scheduled struct {
	Handle  Handle
	At      time.Time
	Payload Payload
}

type queueItem struct {
	handle  Handle
	at      time.Time
	payload Payload
}

type priorityQueue []queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].at.Before(pq[j].at)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(queueItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

// Engine is the in-process device notification service. It keeps pending
// registrations in a min-heap keyed by trigger time and emits arrivals on C.
type Engine struct {
	mu        sync.Mutex
	queue     priorityQueue
	delivered map[Handle]Arrival
	out       chan Arrival
	taps      chan Arrival
	wakeup    chan struct{}
	stopCh    chan struct{}
	doneCh    chan struct{}
	started   bool
	stopped   bool
	dropped   uint64
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		queue:     make(priorityQueue, 0),
		delivered: make(map[Handle]Arrival),
		out:       make(chan Arrival, bufferSize),
		taps:      make(chan Arrival, bufferSize),
		wakeup:    make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// C delivers fired notifications.
func (e *Engine) C() <-chan Arrival {
	return e.out
}

// Taps delivers notifications the user opened.
func (e *Engine) Taps() <-chan Arrival {
	return e.taps
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.stopped = true
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

// ScheduleAt registers a notification firing at the given instant.
func (e *Engine) ScheduleAt(ctx context.Context, at time.Time, payload Payload) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if at.IsZero() {
		return "", ErrInvalidTriggerTime
	}
	if payload.RepeatEveryDays < 0 {
		payload.RepeatEveryDays = 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return "", ErrEngineStopped
	}

	h := Handle(uuid.NewString())
	heap.Push(&e.queue, queueItem{handle: h, at: at, payload: payload})
	e.signalWakeup()
	return h, nil
}

// CancelAll removes every pending registration, repeating ones included.
func (e *Engine) CancelAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrEngineStopped
	}
	e.queue = e.queue[:0]
	clear(e.delivered)
	e.signalWakeup()
	return nil
}

// Pending returns the registrations that have not fired yet, soonest first.
func (e *Engine) Pending() []Scheduled {
	e.mu.Lock()
	out := make([]Scheduled, 0, len(e.queue))
	for _, item := range e.queue {
		out = append(out, Scheduled{Handle: item.handle, At: item.at, Payload: item.payload})
	}
	e.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

// Open reports that the user tapped a delivered notification.
func (e *Engine) Open(h Handle) error {
	e.mu.Lock()
	a, ok := e.delivered[h]
	e.mu.Unlock()
	if !ok {
		return ErrUnknownHandle
	}
	select {
	case e.taps <- a:
	default:
		atomic.AddUint64(&e.dropped, 1)
	}
	return nil
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			due := e.popDue(time.Now())
			for _, a := range due {
				select {
				case e.out <- a:
				default:
					atomic.AddUint64(&e.dropped, 1)
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			if timer != nil {
				stopTimer(timer)
			}
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return time.Time{}, false
	}
	return e.queue[0].at, true
}

// popDue removes every registration due at now and re-arms repeating ones
// at their next period after now.
func (e *Engine) popDue(now time.Time) []Arrival {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Arrival, 0)
	var rearm []queueItem
	for len(e.queue) > 0 {
		if e.queue[0].at.After(now) {
			break
		}
		item := heap.Pop(&e.queue).(queueItem)
		a := Arrival{Handle: item.handle, Payload: item.payload, ScheduledAt: item.at, DeliveredAt: now}
		e.delivered[item.handle] = a
		out = append(out, a)

		if n := item.payload.RepeatEveryDays; n > 0 {
			next := item.at
			for !next.After(now) {
				next = next.AddDate(0, 0, n)
			}
			item.at = next
			rearm = append(rearm, item)
		}
	}
	for _, item := range rearm {
		heap.Push(&e.queue, item)
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
