package timeline

import (
	"sync"
	"time"
)

// Manual 手动推进的调度器，用于确定性测试
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	q      queue
	closed bool
}

// NewManual 创建从 start 开始的手动调度器
func NewManual(start time.Time) *Manual {
	return &Manual{now: start, q: newQueue()}
}

// Now 返回当前模拟时间
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Schedule 在 d 之后执行一次 fn
func (m *Manual) Schedule(d time.Duration, fn func()) Handle {
	return m.add(d, 0, fn)
}

// Every 每隔 d 执行一次 fn
func (m *Manual) Every(d time.Duration, fn func()) Handle {
	d = clampPeriod(d)
	return m.add(d, d, fn)
}

func (m *Manual) add(d, every time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0
	}
	return m.q.push(m.now.Add(d), every, fn)
}

// Cancel 取消任务
func (m *Manual) Cancel(h Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q.cancel(h)
}

// Close 丢弃所有任务
func (m *Manual) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.q.clear()
}

// Pending 未执行的任务数
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q.len()
}

// Advance 推进模拟时间 d，按顺序执行期间到期的回调（包括回调中新调度的任务）
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.q.peek()
		if next == nil || next.due.After(target) {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.due
		fn, _ := m.q.popDue(m.now)
		m.mu.Unlock()
		fn()
	}
}
