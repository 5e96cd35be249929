package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"go-link-tracker/internal/logx"
	"go-link-tracker/internal/model"
	"go-link-tracker/internal/rules"
)

// Getter 为带重试的 GET 请求（fetch.Client）。
type Getter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Feed 从搜索订阅拉取帖子，可按游标翻页。
type Feed struct {
	cl           Getter
	url          string
	rules        rules.PostRules
	max          int
	raw          string
	dryRun       bool
	cursorHeader string
	cursorParam  string
	maxPages     int
}

// NewFeed 创建在线来源；模板中的 {query} 替换为转义后的查询。
func NewFeed(cl Getter, opts Options) *Feed {
	u := strings.ReplaceAll(opts.Template, "{query}", url.QueryEscape(opts.Query))
	if opts.MaxPages <= 0 {
		opts.MaxPages = 1
	}
	return &Feed{
		cl:           cl,
		url:          u,
		rules:        opts.Rules,
		max:          opts.Max,
		raw:          opts.RawPath,
		dryRun:       opts.DryRun,
		cursorHeader: opts.CursorHeader,
		cursorParam:  opts.CursorParam,
		maxPages:     opts.MaxPages,
	}
}

// URL 返回实际请求的订阅地址。
func (f *Feed) URL() string { return f.url }

// Fetch 拉取并解析订阅：最新在前逐页读取，遇到 stopAt、达到上限、
// 没有下一页游标或页数用尽即停止，然后覆盖写入原始批次（dry-run 时不写）。
// 任一页失败都视为整批失败，避免检查点越过未读取的帖子。
func (f *Feed) Fetch(ctx context.Context, stopAt model.PostID) ([]model.Post, error) {
	var posts []model.Post
	seen := map[model.PostID]bool{}
	next := f.url
	for page := 1; next != ""; page++ {
		items, cursor, err := f.page(ctx, next)
		if err != nil {
			return nil, err
		}
		done, added := false, 0
		for _, it := range items {
			p, err := f.toPost(it)
			if err != nil {
				logx.Warnf("跳过无法解析的条目：%v", err)
				continue
			}
			if stopAt > 0 && p.ID <= stopAt {
				logx.Debugf("到达检查点 %d，停止", stopAt)
				done = true
				break
			}
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			posts = append(posts, p)
			added++
			if f.max > 0 && len(posts) >= f.max {
				done = true
				break
			}
		}
		logx.Debugf("第 %d 页：新增 %d", page, added)
		if done || added == 0 || page >= f.maxPages {
			break
		}
		next = f.nextURL(cursor)
	}
	logx.Infof("订阅 %s 解析完成：%d", f.url, len(posts))
	if f.raw != "" && !f.dryRun {
		if err := writeBatch(f.raw, posts); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

// page 拉取单页，返回条目与下一页游标（来自响应头）。
func (f *Feed) page(ctx context.Context, pageURL string) ([]*gofeed.Item, string, error) {
	resp, err := f.cl.Get(ctx, pageURL)
	if err != nil {
		return nil, "", fmt.Errorf("GET feed %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("parse feed %s: %w", pageURL, err)
	}
	var cursor string
	if f.cursorHeader != "" {
		cursor = strings.TrimSpace(resp.Header.Get(f.cursorHeader))
	}
	return feed.Items, cursor, nil
}

// nextURL 在首页地址上设置游标参数；没有游标时返回空串。
func (f *Feed) nextURL(cursor string) string {
	if cursor == "" || f.cursorParam == "" {
		return ""
	}
	u, err := url.Parse(f.url)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set(f.cursorParam, cursor)
	u.RawQuery = q.Encode()
	return u.String()
}

var (
	statusID = regexp.MustCompile(`/status(?:es)?/(\d+)`)
	digits   = regexp.MustCompile(`\d+`)
)

// toPost 将订阅条目映射为帖子：ID 取自 guid/link，作者取自 author 或链接首段路径。
func (f *Feed) toPost(it *gofeed.Item) (model.Post, error) {
	id := parseID(it.GUID)
	if id == 0 {
		id = parseID(it.Link)
	}
	if id == 0 {
		return model.Post{}, fmt.Errorf("no post id in guid=%q link=%q", it.GUID, it.Link)
	}
	p := model.Post{
		ID:     id,
		Handle: handleOf(it),
		Repost: f.rules.RepostPrefix != "" && strings.HasPrefix(strings.TrimSpace(it.Title), f.rules.RepostPrefix),
	}
	if it.PublishedParsed != nil {
		p.Created = *it.PublishedParsed
	}
	body := it.Description
	if body == "" {
		body = it.Content
	}
	if strings.TrimSpace(body) == "" {
		p.Text = strings.TrimSpace(it.Title)
		return p, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return model.Post{}, fmt.Errorf("parse item %d html: %w", id, err)
	}
	f.extract(doc.Selection, &p)
	return p, nil
}

// extract 从条目 HTML 中抽取正文、提及与外部链接（按出现顺序去重）。
func (f *Feed) extract(doc *goquery.Selection, p *model.Post) {
	base, _ := url.Parse(f.url)
	seenMention := map[string]bool{}
	seenURL := map[string]bool{}
	doc.Find(f.rules.Anchor).Each(func(_ int, s *goquery.Selection) {
		label := getVal(s, f.rules.Label)
		if f.rules.MentionPrefix != "" && strings.HasPrefix(label, f.rules.MentionPrefix) {
			h := strings.TrimPrefix(label, f.rules.MentionPrefix)
			if h != "" && !seenMention[strings.ToLower(h)] {
				seenMention[strings.ToLower(h)] = true
				p.Mentions = append(p.Mentions, h)
			}
			return
		}
		if f.rules.HashtagPrefix != "" && strings.HasPrefix(label, f.rules.HashtagPrefix) {
			return
		}
		href := abs(f.url, getVal(s, f.rules.Href))
		u, err := url.Parse(href)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return
		}
		// 订阅站点自身的链接（个人页、搜索页）不是嵌入链接
		if base != nil && strings.EqualFold(u.Host, base.Host) {
			return
		}
		if !seenURL[href] {
			seenURL[href] = true
			p.URLs = append(p.URLs, model.URLEntity{URL: label, Expanded: href})
		}
	})
	doc.Find("br").ReplaceWithHtml("\n")
	p.Text = strings.TrimSpace(doc.Text())
}

func parseID(s string) model.PostID {
	if m := statusID.FindStringSubmatch(s); m != nil {
		if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return model.PostID(n)
		}
	}
	// 绝对链接只看路径部分，避免把端口或域名中的数字当作 ID
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		s = u.Path
	}
	all := digits.FindAllString(s, -1)
	if len(all) == 0 {
		return 0
	}
	n, err := strconv.ParseInt(all[len(all)-1], 10, 64)
	if err != nil || n <= 0 {
		return 0
	}
	return model.PostID(n)
}

func handleOf(it *gofeed.Item) string {
	for _, a := range append([]*gofeed.Person{it.Author}, it.Authors...) {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			return strings.TrimPrefix(strings.TrimSpace(a.Name), "@")
		}
	}
	if u, err := url.Parse(it.Link); err == nil {
		if seg, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/"); seg != "" {
			return seg
		}
	}
	return ""
}

// writeBatch 覆盖写入原始批次（每行一个 JSON 帖子）。
func writeBatch(path string, posts []model.Post) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".rawbatch-*")
	if err != nil {
		return fmt.Errorf("create raw batch: %w", err)
	}
	enc := json.NewEncoder(tmp)
	for _, p := range posts {
		if err := enc.Encode(p); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
			return fmt.Errorf("encode raw batch: %w", err)
		}
	}
	if err := errors.Join(tmp.Sync(), tmp.Close()); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write raw batch: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace raw batch %s: %w", path, err)
	}
	return nil
}
