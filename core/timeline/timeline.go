// Package timeline 提供游戏运行时使用的时钟与可取消的定时调度
package timeline

import "time"

// Clock 时间源
type Clock interface {
	Now() time.Time
}

// Handle 定时任务句柄，0 表示无效
type Handle uint64

// Scheduler 可取消的调度器，回调串行执行
type Scheduler interface {
	Clock
	// Schedule 在 d 之后执行一次 fn
	Schedule(d time.Duration, fn func()) Handle
	// Every 每隔 d 执行一次 fn，直到被取消
	Every(d time.Duration, fn func()) Handle
	// Cancel 取消任务，任务不存在或已执行返回 false
	Cancel(h Handle) bool
	// Close 丢弃所有未执行的任务并停止调度
	Close()
}

// 周期任务的最小间隔
const minPeriod = time.Millisecond
