// 包 metrics 维护单次运行的 Prometheus 指标，并在运行结束时写入 textfile
// （node-exporter textfile collector 格式，适合批处理任务）。
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder 持有独立的注册表，避免与全局默认注册表冲突。
type Recorder struct {
	reg        *prometheus.Registry
	posts      *prometheus.CounterVec
	skips      *prometheus.CounterVec
	urls       *prometheus.CounterVec
	hops       prometheus.Histogram
	checkpoint prometheus.Gauge
}

// New 创建并注册全部指标。
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		posts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_posts_total",
			Help: "Processed posts by outcome (accepted|skipped).",
		}, []string{"outcome"}),
		skips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_skips_total",
			Help: "Skip ledger lines by reason.",
		}, []string{"reason"}),
		urls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_urls_total",
			Help: "Resolved URL entities by outcome.",
		}, []string{"outcome"}),
		hops: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_redirect_hops",
			Help:    "Redirect hops followed per URL entity.",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 10},
		}),
		checkpoint: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_checkpoint",
			Help: "Checkpoint post id after the run.",
		}),
	}
	r.reg.MustRegister(r.posts, r.skips, r.urls, r.hops, r.checkpoint)
	return r
}

// Registry 返回内部注册表。
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Post 记录单条帖子的处理结果。
func (r *Recorder) Post(outcome string) {
	if r == nil {
		return
	}
	r.posts.WithLabelValues(outcome).Inc()
}

// Skip 记录一条跳过台账行，reason 为低基数标签（如 repost/excluded_host）。
func (r *Recorder) Skip(reason string) {
	if r == nil {
		return
	}
	r.skips.WithLabelValues(reason).Inc()
}

// URL 记录单个链接的解析结果与跳数。
func (r *Recorder) URL(outcome string, hops int) {
	if r == nil {
		return
	}
	r.urls.WithLabelValues(outcome).Inc()
	r.hops.Observe(float64(hops))
}

// Checkpoint 设置检查点值。
func (r *Recorder) Checkpoint(id int64) {
	if r == nil {
		return
	}
	r.checkpoint.Set(float64(id))
}

// WriteTextfile 原子写入 textfile。
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
