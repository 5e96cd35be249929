package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"go-link-tracker/internal/metrics"
)

func TestRecorder_Counters(t *testing.T) {
	r := metrics.New()
	r.Post("accepted")
	r.Post("skipped")
	r.Post("skipped")
	r.Skip("repost")
	r.URL("resolved", 2)
	r.URL("excluded_host", 1)
	r.Checkpoint(12345)

	reg := r.Registry()
	n, err := testutil.GatherAndCount(reg, "tracker_posts_total")
	if err != nil || n != 2 {
		t.Fatalf("posts series=%d err=%v", n, err)
	}
	expected := `
# HELP tracker_checkpoint Checkpoint post id after the run.
# TYPE tracker_checkpoint gauge
tracker_checkpoint 12345
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "tracker_checkpoint"); err != nil {
		t.Fatalf("checkpoint gauge: %v", err)
	}
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *metrics.Recorder
	r.Post("accepted")
	r.Skip("repost")
	r.URL("failed", 0)
	r.Checkpoint(1)
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := metrics.New()
	r.URL("failed", 0)
	path := filepath.Join(t.TempDir(), "tracker.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), `tracker_urls_total{outcome="failed"} 1`) {
		t.Fatalf("unexpected textfile:\n%s", b)
	}
}
