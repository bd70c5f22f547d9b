package timeline

import (
	"container/heap"
	"time"
)

type task struct {
	id    Handle
	due   time.Time
	seq   uint64 // 同一时刻按调度顺序执行
	every time.Duration
	fn    func()
	index int
}

type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// queue 按到期时间排序的任务队列，调用方负责加锁
type queue struct {
	tasks  taskHeap
	byID   map[Handle]*task
	nextID Handle
	seq    uint64
}

func newQueue() queue {
	return queue{byID: make(map[Handle]*task)}
}

func (q *queue) push(due time.Time, every time.Duration, fn func()) Handle {
	q.nextID++
	q.seq++
	t := &task{id: q.nextID, due: due, seq: q.seq, every: every, fn: fn}
	heap.Push(&q.tasks, t)
	q.byID[t.id] = t
	return t.id
}

func (q *queue) cancel(h Handle) bool {
	t, ok := q.byID[h]
	if !ok {
		return false
	}
	heap.Remove(&q.tasks, t.index)
	delete(q.byID, h)
	return true
}

func (q *queue) peek() *task {
	if len(q.tasks) == 0 {
		return nil
	}
	return q.tasks[0]
}

// popDue 取出一个已到期的任务并返回其回调，周期任务重新入队
func (q *queue) popDue(now time.Time) (func(), bool) {
	t := q.peek()
	if t == nil || t.due.After(now) {
		return nil, false
	}
	if t.every > 0 {
		q.seq++
		t.due = t.due.Add(t.every)
		t.seq = q.seq
		heap.Fix(&q.tasks, t.index)
		return t.fn, true
	}
	heap.Pop(&q.tasks)
	delete(q.byID, t.id)
	return t.fn, true
}

func (q *queue) clear() {
	q.tasks = nil
	q.byID = make(map[Handle]*task)
}

func (q *queue) len() int {
	return len(q.tasks)
}

func clampPeriod(d time.Duration) time.Duration {
	if d < minPeriod {
		return minPeriod
	}
	return d
}
