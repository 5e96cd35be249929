// 包 exclusion 从按行存储的文本文件加载排除集合（账号/主机名/词条）。
package exclusion

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Set 为大小写折叠后的字符串集合，加载后只读。
type Set map[string]struct{}

// Normalize 去除首尾空白并做 Unicode 大小写折叠。
func Normalize(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// New 由给定条目构造集合（同样做规范化）。
func New(items ...string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		if n := Normalize(it); n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

// Load 读取排除文件并在加载时规范化；文件不存在时返回空集合。
func Load(path string) (Set, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	return New(lines...), nil
}

// LoadTerms 读取词条文件，保留原文（作为正则片段使用），去重并排序以保证结果确定。
func LoadTerms(path string) ([]string, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out, nil
}

// Contains 判断 v 是否在集合中；查询侧同样规范化。
func (s Set) Contains(v string) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[Normalize(v)]
	return ok
}

// Len 返回条目数量。
func (s Set) Len() int { return len(s) }

// Items 返回排序后的条目。
func (s Set) Items() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// readLines 逐行读取，去掉行尾空白并忽略空行。
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open exclusions %s: %w", path, err)
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read exclusions %s: %w", path, err)
	}
	return out, nil
}
