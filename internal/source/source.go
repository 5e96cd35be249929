// 包 source 提供帖子来源：
// - Feed：在线拉取搜索订阅（RSS/Atom/JSON Feed），并覆盖写入原始批次文件
// - Replay：无查询时从原始批次文件重放，便于离线重新处理
package source

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go-link-tracker/internal/model"
	"go-link-tracker/internal/rules"
)

// ErrNothingToDo 表示既没有查询也没有可重放的原始批次。
var ErrNothingToDo = errors.New("nothing to do: no query and no stored batch")

// Fetcher 返回 stopAt 之后的帖子（最新在前）；stopAt 为 0 表示没有边界。
type Fetcher interface {
	Fetch(ctx context.Context, stopAt model.PostID) ([]model.Post, error)
}

// Options 为来源选择参数。
type Options struct {
	Query    string
	Template string
	Rules    rules.PostRules
	Max      int
	RawPath  string
	// DryRun 时不覆盖原始批次
	DryRun bool
	// 翻页：从响应头 CursorHeader 取游标，作为 CursorParam 参数请求下一页，最多 MaxPages 页
	CursorHeader string
	CursorParam  string
	MaxPages     int
}

// Open 按配置选择来源：有查询走在线拉取；否则原始批次存在则重放；都没有返回 ErrNothingToDo。
func Open(cl Getter, opts Options) (Fetcher, error) {
	if opts.Query != "" {
		if opts.Template == "" {
			return nil, errors.New("SOURCE.url is required for a live query")
		}
		return NewFeed(cl, opts), nil
	}
	if opts.RawPath != "" {
		if _, err := os.Stat(opts.RawPath); err == nil {
			return NewReplay(opts.RawPath), nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat raw batch %s: %w", opts.RawPath, err)
		}
	}
	return nil, ErrNothingToDo
}
