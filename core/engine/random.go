package engine

import (
	"math/rand/v2"
	"sync"
)

// Random 可替换的随机源，测试中可注入固定序列
type Random interface {
	// IntRange 返回 [lo, hi] 闭区间内的均匀整数
	IntRange(lo, hi int) int
	// Index 返回 [0, n) 内的均匀下标
	Index(n int) int
}

// Pick 从集合中均匀选取一个元素，items 不能为空
func Pick[T any](r Random, items []T) T {
	return items[r.Index(len(items))]
}

// lockedRandom 带锁的 PCG 随机源，可被多个会话并发调用
type lockedRandom struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandom 创建随机源，相同的 seed 产生相同的序列
func NewRandom(seed uint64) Random {
	return &lockedRandom{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *lockedRandom) IntRange(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return lo + l.r.IntN(hi-lo+1)
}

func (l *lockedRandom) Index(n int) int {
	if n <= 1 {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}
