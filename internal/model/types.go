// 包 model 定义帖子、台账记录与运行统计等数据模型。
package model

import "time"

// PostID 为帖子标识：单调递增，同时用作检查点与排序键。
type PostID int64

// URLEntity 为帖子中嵌入的链接；Expanded 为展开后的长链接。
type URLEntity struct {
	URL      string `json:"url"`
	Expanded string `json:"expanded_url"`
}

// Post 为一条抓取到的帖子，抓取后不再修改。
type Post struct {
	ID       PostID      `json:"id"`
	Handle   string      `json:"handle"`
	Text     string      `json:"text"`
	Repost   bool        `json:"repost"`
	Mentions []string    `json:"mentions,omitempty"`
	URLs     []URLEntity `json:"urls,omitempty"`
	Created  time.Time   `json:"created,omitempty"`
}

// SkipRecord 对应跳过台账中的一行。
type SkipRecord struct {
	At     time.Time `json:"at"`
	PostID PostID    `json:"post_id"`
	Reason string    `json:"reason"`
}

// AcceptRecord 对应接受台账中的一行：规范化后的 URL 及帖子信息。
type AcceptRecord struct {
	At     time.Time `json:"at"`
	URL    string    `json:"url"`
	PostID PostID    `json:"post_id"`
	Handle string    `json:"handle"`
	Text   string    `json:"text"`
}

// FailureRecord 记录单个 URL 解析失败（错误通道）。
type FailureRecord struct {
	At      time.Time `json:"at"`
	PostID  PostID    `json:"post_id"`
	URL     string    `json:"url"`
	Message string    `json:"message"`
}

// Stats 为单次运行的统计信息。
type Stats struct {
	RunID         string    `json:"run_id"`
	PostsTotal    int       `json:"posts_total"`
	PostsAccepted int       `json:"posts_accepted"`
	PostsSkipped  int       `json:"posts_skipped"`
	URLsAccepted  int       `json:"urls_accepted"`
	URLsExcluded  int       `json:"urls_excluded"`
	URLsFailed    int       `json:"urls_failed"`
	Checkpoint    PostID    `json:"checkpoint"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Report 为 dry-run 模式导出的 JSON 顶层结构。
type Report struct {
	Stats    Stats           `json:"stats"`
	Accepted []AcceptRecord  `json:"accepted"`
	Skipped  []SkipRecord    `json:"skipped"`
	Failures []FailureRecord `json:"failures"`
}
