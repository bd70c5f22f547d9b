package timeline

import (
	"sync"
	"time"
)

// Loop 真实时钟调度器，单个 goroutine 按到期顺序串行执行回调
type Loop struct {
	mu     sync.Mutex
	q      queue
	closed bool

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewLoop 创建并启动调度循环
func NewLoop() *Loop {
	l := &Loop{
		q:    newQueue(),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

// Now 返回当前时间
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Schedule 在 d 之后执行一次 fn
func (l *Loop) Schedule(d time.Duration, fn func()) Handle {
	return l.add(d, 0, fn)
}

// Every 每隔 d 执行一次 fn
func (l *Loop) Every(d time.Duration, fn func()) Handle {
	d = clampPeriod(d)
	return l.add(d, d, fn)
}

func (l *Loop) add(d, every time.Duration, fn func()) Handle {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return 0
	}
	h := l.q.push(time.Now().Add(d), every, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return h
}

// Cancel 取消任务
func (l *Loop) Cancel(h Handle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.q.cancel(h)
}

// Close 停止调度循环，可重复调用，也可在回调中调用
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.q.clear()
	l.mu.Unlock()
	l.closeOnce.Do(func() { close(l.done) })
}

func (l *Loop) run() {
	for {
		l.mu.Lock()
		fn, ok := l.q.popDue(time.Now())
		wait := time.Duration(-1)
		if !ok {
			if next := l.q.peek(); next != nil {
				wait = time.Until(next.due)
			}
		}
		l.mu.Unlock()

		if ok {
			fn()
			continue
		}

		var timer *time.Timer
		var fire <-chan time.Time
		if wait >= 0 {
			timer = time.NewTimer(wait)
			fire = timer.C
		}
		select {
		case <-l.wake:
		case <-fire:
		case <-l.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
		if timer != nil {
			timer.Stop()
		}
	}
}
