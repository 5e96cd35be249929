// 包 pipeline 负责主流程编排：
// - 读取检查点，拉取（或重放）检查点之后的新帖子
// - 逐条过滤帖子，逐个解析帖子中的链接
// - 写入台账，最后推进检查点
// 整个流程严格顺序执行，不做并发。
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go-link-tracker/internal/filter"
	"go-link-tracker/internal/ledger"
	"go-link-tracker/internal/logx"
	"go-link-tracker/internal/metrics"
	"go-link-tracker/internal/model"
	"go-link-tracker/internal/resolve"
)

// Checkpointer 读写检查点。
type Checkpointer interface {
	Load() (model.PostID, bool, error)
	Save(id model.PostID) error
}

// Source 返回检查点之后的帖子（最新在前）；stopAt 为 0 表示没有边界。
type Source interface {
	Fetch(ctx context.Context, stopAt model.PostID) ([]model.Post, error)
}

// URLResolver 解析单个链接。
type URLResolver interface {
	Resolve(ctx context.Context, raw string) resolve.Outcome
	VerifiesKeywords() bool
}

// Options 为运行参数。
type Options struct {
	RunID string
	// DryRun 时不保存检查点
	DryRun bool
	// RequireKeywords 时未命中关键词的链接记为跳过
	RequireKeywords bool
}

// Runner 流程执行器，持有本次运行的全部协作者。
type Runner struct {
	cp      Checkpointer
	src     Source
	filter  *filter.Filter
	res     URLResolver
	sink    ledger.Sink
	metrics *metrics.Recorder
	opts    Options
}

// New 创建 Runner；metrics 可以为 nil。
func New(cp Checkpointer, src Source, f *filter.Filter, res URLResolver, sink ledger.Sink, m *metrics.Recorder, opts Options) *Runner {
	return &Runner{cp: cp, src: src, filter: f, res: res, sink: sink, metrics: m, opts: opts}
}

// Run 执行一轮：读取检查点→拉取→过滤→解析→写台账→推进检查点。
// 没有新帖子时不写检查点；任一帖子被处理后，检查点推进到本批最大的帖子 ID，
// 与帖子是否被接受无关。
func (r *Runner) Run(ctx context.Context) (model.Stats, error) {
	st := model.Stats{RunID: r.opts.RunID}
	last, ok, err := r.cp.Load()
	if err != nil {
		return st, fmt.Errorf("load checkpoint: %w", err)
	}
	if ok {
		logx.Infof("上次检查点：%d", last)
	} else {
		logx.Infof("未发现检查点，处理全部帖子")
	}
	st.Checkpoint = last

	posts, err := r.src.Fetch(ctx, last)
	if err != nil {
		return st, fmt.Errorf("fetch posts: %w", err)
	}
	if len(posts) == 0 {
		logx.Infof("没有新帖子")
		st.UpdatedAt = time.Now()
		return st, nil
	}
	logx.Infof("新帖子=%d", len(posts))

	var newest model.PostID
	for _, p := range posts {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		if p.ID > newest {
			newest = p.ID
		}
		if err := r.processPost(ctx, p, &st); err != nil {
			return st, err
		}
	}
	st.PostsTotal = len(posts)

	if r.opts.DryRun {
		logx.Infof("dry-run：检查点保持不变（本批最新=%d）", newest)
	} else {
		if err := r.cp.Save(newest); err != nil {
			return st, fmt.Errorf("save checkpoint: %w", err)
		}
		st.Checkpoint = newest
		logx.Infof("检查点已推进到 %d", newest)
	}
	r.metrics.Checkpoint(int64(st.Checkpoint))
	st.UpdatedAt = time.Now()
	return st, nil
}

// processPost 过滤单条帖子；接受后按原顺序逐个解析其中的链接。
func (r *Runner) processPost(ctx context.Context, p model.Post, st *model.Stats) error {
	d := r.filter.Decide(p)
	if !d.Accepted() {
		logx.Debugf("跳过 %d @%s：%s", p.ID, p.Handle, d)
		st.PostsSkipped++
		r.metrics.Post("skipped")
		r.metrics.Skip(d.Reason.Label())
		return r.sink.Skip(p.ID, d.String())
	}
	st.PostsAccepted++
	r.metrics.Post("accepted")
	logx.Debugf("接受 %d @%s，链接=%d", p.ID, p.Handle, len(p.URLs))
	for _, u := range p.URLs {
		raw := u.Expanded
		if raw == "" {
			raw = u.URL
		}
		if err := r.processURL(ctx, p, raw, st); err != nil {
			return err
		}
	}
	return nil
}

// processURL 解析单个链接；排除或失败只影响该链接本身。
func (r *Runner) processURL(ctx context.Context, p model.Post, raw string, st *model.Stats) error {
	out := r.res.Resolve(ctx, raw)
	r.metrics.URL(out.Kind.String(), out.Hop)
	switch out.Kind {
	case resolve.ExcludedHost:
		st.URLsExcluded++
		r.metrics.Skip("excluded_host")
		logx.Debugf("  排除链接 %s：%s", raw, out.SkipReason())
		return r.sink.Skip(p.ID, out.SkipReason())
	case resolve.Failed:
		st.URLsFailed++
		logx.Errorf("  解析失败 %d %s：%v", p.ID, raw, out.Err)
		return r.sink.Failure(p.ID, raw, out.Err.Error())
	}
	if r.opts.RequireKeywords && r.res.VerifiesKeywords() && !out.KeywordFound {
		st.URLsExcluded++
		r.metrics.Skip("missing_keywords")
		return r.sink.Skip(p.ID, fmt.Sprintf("missing keywords at '%s'", out.URL))
	}
	st.URLsAccepted++
	logx.Infof("  接受 %d：%s", p.ID, out.URL)
	return r.sink.Accept(out.URL, p)
}
