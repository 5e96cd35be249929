// 包 ledger 负责追加写入三本台账（纯文本，每条记录一行）：
// - 跳过台账：<时间> <帖子ID>:<原因>
// - 接受台账：<时间> <URL>\t<帖子ID>\t@<作者>\t<正文>
// - 失败台账：<时间> <帖子ID>\t<URL>\t<错误信息>
// 文件以追加方式打开，从不截断；每行立即写入，不做缓冲。
package ledger

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go-link-tracker/internal/model"
)

// TimeLayout 为台账行首时间戳格式（本地时间）。
const TimeLayout = "2006-01-02 15:04:05"

// Sink 为台账写入目标：文件台账或 dry-run 内存缓冲。
type Sink interface {
	Skip(id model.PostID, reason string) error
	Accept(url string, p model.Post) error
	Failure(id model.PostID, url, message string) error
	Close() error
}

// Paths 为三本台账的文件路径。
type Paths struct {
	Skipped  string
	Accepted string
	Failed   string
}

// Files 为基于文件的台账写入器，按顺序使用。
type Files struct {
	mu       sync.Mutex
	skipped  *os.File
	accepted *os.File
	failed   *os.File
	now      func() time.Time
}

// Open 以追加模式打开（必要时创建）三本台账。
func Open(p Paths) (*Files, error) {
	var opened []*os.File
	open := func(path string) (*os.File, error) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			for _, o := range opened {
				_ = o.Close()
			}
			return nil, fmt.Errorf("open ledger %s: %w", path, err)
		}
		opened = append(opened, f)
		return f, nil
	}
	s, err := open(p.Skipped)
	if err != nil {
		return nil, err
	}
	a, err := open(p.Accepted)
	if err != nil {
		return nil, err
	}
	fl, err := open(p.Failed)
	if err != nil {
		return nil, err
	}
	return &Files{skipped: s, accepted: a, failed: fl, now: time.Now}, nil
}

// WithClock 替换时钟，测试用。
func (f *Files) WithClock(now func() time.Time) *Files {
	f.now = now
	return f
}

func (f *Files) Skip(id model.PostID, reason string) error {
	return f.write(f.skipped, SkipLine(model.SkipRecord{At: f.now(), PostID: id, Reason: reason}))
}

func (f *Files) Accept(url string, p model.Post) error {
	return f.write(f.accepted, AcceptLine(NewAccept(f.now(), url, p)))
}

func (f *Files) Failure(id model.PostID, url, message string) error {
	return f.write(f.failed, FailureLine(model.FailureRecord{At: f.now(), PostID: id, URL: url, Message: message}))
}

func (f *Files) write(w *os.File, line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := w.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write ledger %s: %w", w.Name(), err)
	}
	return nil
}

// Close 关闭全部台账文件。
func (f *Files) Close() error {
	return errors.Join(f.skipped.Close(), f.accepted.Close(), f.failed.Close())
}

// NewAccept 由帖子构造接受记录。
func NewAccept(at time.Time, url string, p model.Post) model.AcceptRecord {
	return model.AcceptRecord{At: at, URL: url, PostID: p.ID, Handle: p.Handle, Text: p.Text}
}

// SkipLine 格式化跳过台账行（不含换行）。
func SkipLine(r model.SkipRecord) string {
	return fmt.Sprintf("%s %d:%s", r.At.Format(TimeLayout), r.PostID, r.Reason)
}

// AcceptLine 格式化接受台账行，正文中的换行替换为单个空格。
func AcceptLine(r model.AcceptRecord) string {
	return fmt.Sprintf("%s %s\t%d\t@%s\t%s", r.At.Format(TimeLayout), r.URL, r.PostID, r.Handle, flatten(r.Text))
}

// FailureLine 格式化失败台账行。
func FailureLine(r model.FailureRecord) string {
	return fmt.Sprintf("%s %d\t%s\t%s", r.At.Format(TimeLayout), r.PostID, r.URL, flatten(r.Message))
}

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func flatten(s string) string { return newlines.Replace(s) }
