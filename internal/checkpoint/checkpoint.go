// 包 checkpoint 读写"最后处理的帖子 ID"，用于区分新帖与已处理的帖子。
package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go-link-tracker/internal/model"
)

// ErrMalformed 表示检查点文件内容不是合法的正整数。
var ErrMalformed = errors.New("malformed checkpoint")

// Store 以单行十进制整数的文件形式保存检查点。
type Store struct {
	path string
}

// New 创建指向 path 的检查点存储。
func New(path string) *Store { return &Store{path: path} }

// Path 返回检查点文件路径。
func (s *Store) Path() string { return s.path }

// Load 读取检查点；文件不存在时返回 ok=false。
// 内容非法时返回 ErrMalformed，调用方应中止运行，避免全量重处理。
func (s *Store) Load() (model.PostID, bool, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read checkpoint %s: %w", s.path, err)
	}
	raw := strings.TrimSpace(string(b))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, fmt.Errorf("%w: %s: %q", ErrMalformed, s.path, raw)
	}
	return model.PostID(id), true, nil
}

// Save 以临时文件 + rename 的方式整体替换检查点。
func (s *Store) Save(id model.PostID) error {
	if id <= 0 {
		return fmt.Errorf("save checkpoint: invalid id %d", id)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(strconv.FormatInt(int64(id), 10)); err != nil {
		tmp.Close()
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close checkpoint: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace checkpoint %s: %w", s.path, err)
	}
	return nil
}
