package export_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-link-tracker/internal/export"
	"go-link-tracker/internal/model"
)

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	rep := model.Report{
		Stats:    model.Stats{RunID: "run-1", PostsTotal: 2, PostsAccepted: 1, PostsSkipped: 1, URLsAccepted: 1, UpdatedAt: time.Now()},
		Accepted: []model.AcceptRecord{{URL: "https://ex.com/a", PostID: 2, Handle: "alice", Text: "hi"}},
	}
	if err := export.ToJSON(rep, path); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	stats, _ := got["stats"].(map[string]any)
	if stats["run_id"] != "run-1" || stats["posts_total"] != float64(2) {
		t.Fatalf("stats: %v", stats)
	}
	if acc, _ := got["accepted"].([]any); len(acc) != 1 {
		t.Fatalf("accepted: %v", got["accepted"])
	}
	// 空集合导出为 []，便于下游直接遍历
	if sk, ok := got["skipped"].([]any); !ok || len(sk) != 0 {
		t.Fatalf("skipped should be empty array, got %v", got["skipped"])
	}
}

func TestToJSON_BadPath(t *testing.T) {
	if err := export.ToJSON(model.Report{}, filepath.Join(t.TempDir(), "no", "such", "r.json")); err == nil {
		t.Fatalf("expected create error")
	}
}
