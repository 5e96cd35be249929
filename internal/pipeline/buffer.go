package pipeline

import (
	"sync"
	"time"

	"go-link-tracker/internal/ledger"
	"go-link-tracker/internal/model"
)

// Buffer 在 dry-run 模式下收集台账记录，不写文件。
type Buffer struct {
	mu       sync.Mutex
	now      func() time.Time
	accepted []model.AcceptRecord
	skipped  []model.SkipRecord
	failures []model.FailureRecord
}

var _ ledger.Sink = (*Buffer)(nil)

func NewBuffer() *Buffer { return &Buffer{now: time.Now} }

func (b *Buffer) Skip(id model.PostID, reason string) error {
	b.mu.Lock()
	b.skipped = append(b.skipped, model.SkipRecord{At: b.now(), PostID: id, Reason: reason})
	b.mu.Unlock()
	return nil
}

func (b *Buffer) Accept(url string, p model.Post) error {
	b.mu.Lock()
	b.accepted = append(b.accepted, ledger.NewAccept(b.now(), url, p))
	b.mu.Unlock()
	return nil
}

func (b *Buffer) Failure(id model.PostID, url, message string) error {
	b.mu.Lock()
	b.failures = append(b.failures, model.FailureRecord{At: b.now(), PostID: id, URL: url, Message: message})
	b.mu.Unlock()
	return nil
}

func (b *Buffer) Close() error { return nil }

// Lines 按台账格式返回缓冲内容（跳过、接受、失败）。
func (b *Buffer) Lines() (skipped, accepted, failed []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.skipped {
		skipped = append(skipped, ledger.SkipLine(r))
	}
	for _, r := range b.accepted {
		accepted = append(accepted, ledger.AcceptLine(r))
	}
	for _, r := range b.failures {
		failed = append(failed, ledger.FailureLine(r))
	}
	return skipped, accepted, failed
}

// Report 返回副本，记录保持写入顺序。
func (b *Buffer) Report(st model.Stats) model.Report {
	b.mu.Lock()
	defer b.mu.Unlock()
	return model.Report{
		Stats:    st,
		Accepted: append([]model.AcceptRecord{}, b.accepted...),
		Skipped:  append([]model.SkipRecord{}, b.skipped...),
		Failures: append([]model.FailureRecord{}, b.failures...),
	}
}
