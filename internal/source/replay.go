package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go-link-tracker/internal/logx"
	"go-link-tracker/internal/model"
)

// Replay 从原始批次文件读取帖子。
type Replay struct {
	path string
}

func NewReplay(path string) *Replay { return &Replay{path: path} }

// Fetch 逐行解码，跳过损坏的记录，遇到 stopAt 停止。
func (r *Replay) Fetch(ctx context.Context, stopAt model.PostID) ([]model.Post, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open raw batch %s: %w", r.path, err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64<<10), 4<<20)
	var posts []model.Post
	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var p model.Post
		if err := json.Unmarshal(b, &p); err != nil {
			logx.Warnf("原始批次第 %d 行损坏，已跳过：%v", line, err)
			continue
		}
		if p.ID <= 0 {
			logx.Warnf("原始批次第 %d 行缺少帖子 ID，已跳过", line)
			continue
		}
		if stopAt > 0 && p.ID <= stopAt {
			break
		}
		posts = append(posts, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read raw batch %s: %w", r.path, err)
	}
	logx.Infof("重放 %s：%d", r.path, len(posts))
	return posts, nil
}
