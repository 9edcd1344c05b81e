package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Muse_MCP/internal/upstream"
)

// 默认轮询参数: 固定 10 秒间隔、最多 30 次尝试，
// 总等待上限约 5 分钟。
const (
	DefaultInterval    = 10 * time.Second
	DefaultMaxAttempts = 30
)

// ErrBudgetExhausted 表示轮询预算耗尽而任务仍未完成。
// 它不是失败: 上游任务仍在运行，操作标识随错误返回，
// 调用方可以稍后自行查询。
type ErrBudgetExhausted struct {
	OperationID string
	Attempts    int
}

func (e *ErrBudgetExhausted) Error() string {
	return fmt.Sprintf("operation %s did not complete within %d poll attempts; the job may still be running", e.OperationID, e.Attempts)
}

// PollFunc 查询一次任务状态。
type PollFunc func(ctx context.Context, handle *upstream.OperationHandle) (*upstream.PollOutcome, error)

// Poller 是通用的有界轮询循环。
type Poller struct {
	Interval    time.Duration
	MaxAttempts int
}

// New 返回使用默认参数的 Poller。
func New() *Poller {
	return &Poller{Interval: DefaultInterval, MaxAttempts: DefaultMaxAttempts}
}

// Wait 以固定间隔轮询直到任务完成或预算耗尽，返回完成任务的文件引用。
//
// 每次尝试先等待一个间隔再查询。Pending 和传输层错误都只消耗一次
// 预算然后继续: 上游的状态接口偶发失败是正常现象，不值得中止整个
// 任务。只有上游显式报告的生成失败 (GenerationError) 才立即中止。
// 预算耗尽不取消上游任务，ErrBudgetExhausted 仅作通知。
func (p *Poller) Wait(ctx context.Context, handle *upstream.OperationHandle, poll PollFunc) (string, error) {
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.Interval):
		}

		outcome, err := poll(ctx, handle)
		if err != nil {
			var genErr *upstream.GenerationError
			if errors.As(err, &genErr) {
				return "", err
			}
			// 传输层缺失，当作一次未完成继续轮询。
			continue
		}

		if outcome.Done && outcome.FileRef != "" {
			return outcome.FileRef, nil
		}
	}

	return "", &ErrBudgetExhausted{OperationID: handle.ID, Attempts: p.MaxAttempts}
}
