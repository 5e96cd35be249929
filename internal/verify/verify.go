// 包 verify 重新检查接受台账：逐行重新解析链接并在最终页面中查找关键词，
// 结果写入校验文件，失败写入错误文件（原始行 + 错误信息）。
package verify

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go-link-tracker/internal/ledger"
	"go-link-tracker/internal/logx"
	"go-link-tracker/internal/resolve"
)

// Resolver 解析单个链接。
type Resolver interface {
	Resolve(ctx context.Context, raw string) resolve.Outcome
}

// Options 为校验参数。
type Options struct {
	// Limit 为最多处理的行数，0 表示全部
	Limit int
	// PostURL 为帖子地址模板，{id} 替换为帖子 ID
	PostURL string
}

// Summary 为校验统计。
type Summary struct {
	Lines   int
	Matched int
	Missing int
	Errors  int
}

var errMalformed = errors.New("malformed accept line")

// Run 逐行处理接受台账。输出行格式：
//
//	<时间>\t<原始URL>\t<最终URL>\tKeywordMatch|KeywordMissing\t<帖子ID>\t<帖子地址>\t@<作者>\t<正文>
func Run(ctx context.Context, res Resolver, in io.Reader, out, errOut io.Writer, opts Options) (Summary, error) {
	var sum Summary
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64<<10), 1<<20)
	for sc.Scan() {
		if opts.Limit > 0 && sum.Lines >= opts.Limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		sum.Lines++
		ts, orig, id, rest, err := parseLine(line)
		if err != nil {
			sum.Errors++
			if werr := writeError(errOut, line, err.Error()); werr != nil {
				return sum, werr
			}
			continue
		}
		logx.Infof("校验：%s", orig)
		o := res.Resolve(ctx, orig)
		switch o.Kind {
		case resolve.Failed:
			sum.Errors++
			logx.Errorf("  校验失败 %s：%v", orig, o.Err)
			if err := writeError(errOut, line, o.Err.Error()); err != nil {
				return sum, err
			}
			continue
		case resolve.ExcludedHost:
			sum.Errors++
			if err := writeError(errOut, line, o.SkipReason()); err != nil {
				return sum, err
			}
			continue
		}
		mark := "KeywordMissing"
		if o.KeywordFound {
			mark = "KeywordMatch"
			sum.Matched++
		} else {
			sum.Missing++
			logx.Infof("  未找到关键词")
		}
		fields := []string{ts, orig, o.URL, mark, id, strings.ReplaceAll(opts.PostURL, "{id}", id)}
		fields = append(fields, rest...)
		if _, err := fmt.Fprintln(out, strings.Join(fields, "\t")); err != nil {
			return sum, fmt.Errorf("write verified line: %w", err)
		}
	}
	if err := sc.Err(); err != nil {
		return sum, fmt.Errorf("read accept ledger: %w", err)
	}
	return sum, nil
}

// parseLine 拆分接受台账行：首个字段为 "<时间> <URL>"，其后为帖子 ID 及其余字段。
func parseLine(line string) (ts, url, id string, rest []string, err error) {
	parts := strings.Split(line, "\t")
	if len(parts) < 2 || len(parts[0]) <= len(ledger.TimeLayout) {
		return "", "", "", nil, errMalformed
	}
	ts = parts[0][:len(ledger.TimeLayout)]
	url = strings.TrimSpace(parts[0][len(ledger.TimeLayout):])
	id = strings.TrimSpace(parts[1])
	if url == "" || id == "" {
		return "", "", "", nil, errMalformed
	}
	return ts, url, id, parts[2:], nil
}

func writeError(w io.Writer, line, msg string) error {
	if _, err := fmt.Fprintf(w, "%s\t%s\n", line, msg); err != nil {
		return fmt.Errorf("write verify error: %w", err)
	}
	return nil
}
