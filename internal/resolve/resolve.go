// 包 resolve 负责链接规范化：
// - 手动逐跳跟随 HTTP 重定向，每一跳都检查排除主机
// - 去除 utm_ 跟踪参数，保留其余参数顺序
// - 可选：在最终 HTML 页面中逐行查找关键词
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go-link-tracker/internal/exclusion"
	"go-link-tracker/internal/logx"
)

// DefaultMaxHops 为默认的最大重定向次数。
const DefaultMaxHops = 10

var (
	// ErrTooManyRedirects 表示重定向链超过上限（包括循环重定向）。
	ErrTooManyRedirects = errors.New("too many redirects")
	// ErrUnsupportedURL 表示链接不是绝对的 http/https 地址。
	ErrUnsupportedURL = errors.New("unsupported URL")
)

// Kind 为解析结果的类型。
type Kind int

const (
	Resolved Kind = iota
	ExcludedHost
	Failed
)

func (k Kind) String() string {
	switch k {
	case Resolved:
		return "resolved"
	case ExcludedHost:
		return "excluded_host"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome 为单个链接的解析结果：
// Resolved 携带规范化后的最终 URL；ExcludedHost 携带主机名与所在跳数；Failed 携带错误。
type Outcome struct {
	Kind   Kind
	URL    string
	Host   string
	Hop    int
	Status int
	// 仅在配置了关键词时有效
	Keyword      string
	KeywordFound bool
	Err          error
}

// SkipReason 返回 ExcludedHost 写入跳过台账的原因文本。
func (o Outcome) SkipReason() string {
	return fmt.Sprintf("excluded host '%s' (hop %d)", o.Host, o.Hop)
}

// Doer 执行单次不跟随重定向的请求。
type Doer interface {
	Hop(ctx context.Context, url string) (*http.Response, error)
}

// Options 为解析器参数。
type Options struct {
	MaxHops  int
	Keywords []string
}

// Resolver 逐跳解析链接。非并发安全，按顺序使用。
type Resolver struct {
	client   Doer
	hosts    exclusion.Set
	maxHops  int
	keywords []string
}

// New 创建解析器；hosts 为排除主机集合，可以为 nil。
func New(client Doer, hosts exclusion.Set, opts Options) *Resolver {
	if opts.MaxHops <= 0 {
		opts.MaxHops = DefaultMaxHops
	}
	kws := make([]string, 0, len(opts.Keywords))
	for _, k := range opts.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			kws = append(kws, k)
		}
	}
	return &Resolver{client: client, hosts: hosts, maxHops: opts.MaxHops, keywords: kws}
}

// VerifiesKeywords 表示是否配置了关键词校验。
func (r *Resolver) VerifiesKeywords() bool { return len(r.keywords) > 0 }

// Resolve 解析单个链接：
//
//	Following(url, hop) -> Terminal(url) | Excluded(host) | Failed(err)
//
// 初始链接在发起请求前先检查主机（hop 0）；每个重定向目标在跟随前检查。
// 非重定向响应或缺少 Location 的重定向视为终点。
func (r *Resolver) Resolve(ctx context.Context, raw string) Outcome {
	cur, err := parseTarget(raw)
	if err != nil {
		return failed(raw, 0, err)
	}
	if h := cur.Hostname(); r.hosts.Contains(h) {
		return Outcome{Kind: ExcludedHost, URL: cur.String(), Host: strings.ToLower(h), Hop: 0}
	}
	for hop := 0; ; {
		resp, err := r.client.Hop(ctx, cur.String())
		if err != nil {
			return failed(cur.String(), hop, err)
		}
		loc := resp.Header.Get("Location")
		if !isRedirect(resp.StatusCode) || loc == "" {
			return r.terminal(cur, hop, resp)
		}
		drain(resp)

		next, err := cur.Parse(loc)
		if err != nil {
			return failed(cur.String(), hop, fmt.Errorf("parse location %q: %w", loc, err))
		}
		if !supported(next) {
			return failed(next.String(), hop, fmt.Errorf("%w: %s", ErrUnsupportedURL, next))
		}
		hop++
		logx.Debugf("    重定向[%d]：%s", hop, next)
		if h := next.Hostname(); r.hosts.Contains(h) {
			return Outcome{Kind: ExcludedHost, URL: next.String(), Host: strings.ToLower(h), Hop: hop}
		}
		if hop > r.maxHops {
			return failed(next.String(), hop, fmt.Errorf("%w: stopped after %d", ErrTooManyRedirects, r.maxHops))
		}
		cur = next
	}
}

// terminal 处理终点响应：可选关键词校验，然后去除跟踪参数。
func (r *Resolver) terminal(cur *url.URL, hop int, resp *http.Response) Outcome {
	defer drain(resp)
	out := Outcome{Kind: Resolved, Hop: hop, Status: resp.StatusCode}
	if r.VerifiesKeywords() {
		kw, found, err := scanKeywords(resp, r.keywords)
		if err != nil {
			return failed(cur.String(), hop, fmt.Errorf("read content: %w", err))
		}
		out.Keyword, out.KeywordFound = kw, found
	}
	out.URL = stripURL(cur)
	return out
}

// StripTrackingParams 去除名称以 utm_ 开头的查询参数，其余参数保持原顺序与原值。
func StripTrackingParams(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	return stripURL(u), nil
}

func stripURL(u *url.URL) string {
	cp := *u
	cp.RawQuery = stripQuery(cp.RawQuery)
	if cp.RawQuery == "" {
		cp.ForceQuery = false
	}
	return cp.String()
}

func stripQuery(q string) string {
	if q == "" {
		return ""
	}
	parts := strings.Split(q, "&")
	kept := parts[:0]
	for _, p := range parts {
		if p == "" {
			continue
		}
		name, _, _ := strings.Cut(p, "=")
		if n, err := url.QueryUnescape(name); err == nil {
			name = n
		}
		if strings.HasPrefix(name, "utm_") {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, "&")
}

func parseTarget(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", raw, err)
	}
	if !supported(u) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, raw)
	}
	return u, nil
}

func supported(u *url.URL) bool {
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func failed(u string, hop int, err error) Outcome {
	return Outcome{Kind: Failed, URL: u, Hop: hop, Err: err}
}

// drain 读尽少量剩余内容后关闭，便于连接复用。
func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
