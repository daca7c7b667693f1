package cropimage

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// looper runs posted functions one at a time on a dedicated goroutine. All
// session state is owned by that goroutine.
type looper struct {
	tasks    chan func()
	quitCh   chan struct{}
	exited   chan struct{}
	quitOnce sync.Once
}

func newLooper() *looper {
	l := &looper{
		tasks:  make(chan func(), 16),
		quitCh: make(chan struct{}),
		exited: make(chan struct{}),
	}
	go l.loop()
	return l
}

func (l *looper) loop() {
	defer close(l.exited)
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-l.quitCh:
			return
		}
	}
}

// post queues fn. It reports false once the looper has quit.
func (l *looper) post(fn func()) bool {
	select {
	case <-l.quitCh:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.quitCh:
		return false
	}
}

// call runs fn on the loop and waits for it. Must not be used from the
// loop goroutine itself.
func (l *looper) call(fn func()) bool {
	ran := make(chan struct{})
	if !l.post(func() {
		defer close(ran)
		fn()
	}) {
		return false
	}
	select {
	case <-ran:
		return true
	case <-l.quitCh:
		return false
	}
}

func (l *looper) quit() {
	l.quitOnce.Do(func() { close(l.quitCh) })
	<-l.exited
}

// worker runs background jobs strictly one after another. Jobs that have
// not started when the worker stops are skipped and their skip callback
// runs instead; a running job always completes.
type worker struct {
	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newWorker() *worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &worker{sem: semaphore.NewWeighted(1), ctx: ctx, cancel: cancel}
}

func (w *worker) start(job, skip func()) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.sem.Acquire(w.ctx, 1); err != nil {
			if skip != nil {
				skip()
			}
			return
		}
		defer w.sem.Release(1)
		job()
	}()
}

func (w *worker) stop() {
	w.cancel()
	w.wg.Wait()
}
