package resolve

import (
	"bufio"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html/charset"

	"go-link-tracker/internal/logx"
)

const maxContentBytes = 8 << 20

// scanKeywords 仅处理 text/html 响应：按声明或嗅探到的字符集解码后逐行小写匹配，
// 返回首个命中的关键词。这里只做行内子串查找，不解析 HTML 结构。
func scanKeywords(resp *http.Response, keywords []string) (string, bool, error) {
	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(ct), "text/html") {
		logx.Debugf("    跳过关键词检查（Content-Type=%q）", ct)
		return "", false, nil
	}
	var body io.Reader = io.LimitReader(resp.Body, maxContentBytes)
	if rd, err := charset.NewReader(body, ct); err == nil {
		body = rd
	}
	// 按行读取且不限制单行长度（压缩过的页面常常只有一行），总量受 maxContentBytes 约束
	rd := bufio.NewReader(body)
	for {
		line, err := rd.ReadString('\n')
		if line != "" {
			line = strings.TrimRight(line, "\r\n")
			lower := strings.ToLower(line)
			for _, kw := range keywords {
				pos := strings.Index(lower, kw)
				if pos < 0 {
					continue
				}
				logx.Debugf("    命中关键词 '%s'：%s", kw, annotate(line, lower, pos, len(kw)))
				return kw, true, nil
			}
		}
		if err == io.EOF {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
	}
}

// annotate 用 [[[ ]]] 标出命中位置；大小写转换改变了字节长度时原样返回小写行。
func annotate(line, lower string, pos, n int) string {
	src := line
	if len(line) != len(lower) {
		src = lower
	}
	return src[:pos] + "[[[" + src[pos:pos+n] + "]]]" + src[pos+n:]
}
