package filter

import (
	"fmt"
	"regexp"

	"go-link-tracker/internal/exclusion"
	"go-link-tracker/internal/model"
)

// Reason 为帖子判定结果的类型。
type Reason int

const (
	Accept Reason = iota
	Repost
	ExcludedHandle
	ExcludedMention
	MissingTerms
	ForbiddenTerm
)

// Label 返回用于指标标签的短名称。
func (r Reason) Label() string {
	switch r {
	case Accept:
		return "accepted"
	case Repost:
		return "repost"
	case ExcludedHandle:
		return "excluded_handle"
	case ExcludedMention:
		return "excluded_mention"
	case MissingTerms:
		return "missing_required_terms"
	case ForbiddenTerm:
		return "forbidden_term"
	default:
		return "unknown"
	}
}

// Decision 为单个帖子的判定：接受，或带原因（及细节）的跳过。
type Decision struct {
	Reason Reason
	Detail string
}

// Accepted 表示帖子进入 URL 解析阶段。
func (d Decision) Accepted() bool { return d.Reason == Accept }

// String 返回写入跳过台账的原因文本。
func (d Decision) String() string {
	switch d.Reason {
	case Accept:
		return "accepted"
	case Repost:
		return "repost"
	case ExcludedHandle:
		return fmt.Sprintf("excluded handle '%s'", d.Detail)
	case ExcludedMention:
		return fmt.Sprintf("excluded mention '%s'", d.Detail)
	case MissingTerms:
		return "missing required terms"
	case ForbiddenTerm:
		return fmt.Sprintf("forbidden term '%s'", d.Detail)
	default:
		return "unknown"
	}
}

// check 为单条规则：命中时返回跳过判定与 true。
type check func(p model.Post) (Decision, bool)

// Filter 组合排除账号集合与包含/排除正则，按固定顺序判定帖子。
type Filter struct {
	handles exclusion.Set
	include *regexp.Regexp
	exclude *regexp.Regexp
	checks  []check
}

// New 创建过滤器；include/exclude 可以为 nil（表示不约束）。
func New(handles exclusion.Set, include, exclude *regexp.Regexp) *Filter {
	f := &Filter{handles: handles, include: include, exclude: exclude}
	f.checks = []check{f.repost, f.author, f.mentions, f.required, f.forbidden}
	return f
}

// Decide 依次执行规则，首个命中者决定跳过原因；全部未命中则接受。
// 没有嵌入链接的帖子同样被接受。
func (f *Filter) Decide(p model.Post) Decision {
	for _, c := range f.checks {
		if d, hit := c(p); hit {
			return d
		}
	}
	return Decision{Reason: Accept}
}

func (f *Filter) repost(p model.Post) (Decision, bool) {
	return Decision{Reason: Repost}, p.Repost
}

func (f *Filter) author(p model.Post) (Decision, bool) {
	if f.handles.Contains(p.Handle) {
		return Decision{Reason: ExcludedHandle, Detail: p.Handle}, true
	}
	return Decision{}, false
}

// mentions 按原始顺序检查，报告首个命中的账号。
func (f *Filter) mentions(p model.Post) (Decision, bool) {
	for _, m := range p.Mentions {
		if f.handles.Contains(m) {
			return Decision{Reason: ExcludedMention, Detail: m}, true
		}
	}
	return Decision{}, false
}

func (f *Filter) required(p model.Post) (Decision, bool) {
	if f.include != nil && !Matches(f.include, p.Text) {
		return Decision{Reason: MissingTerms}, true
	}
	return Decision{}, false
}

func (f *Filter) forbidden(p model.Post) (Decision, bool) {
	if m, ok := FindMatch(f.exclude, p.Text); ok {
		return Decision{Reason: ForbiddenTerm, Detail: m}, true
	}
	return Decision{}, false
}
