package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-link-tracker/internal/config"
)

func write(t *testing.T, body string) string {
	t.Helper()
	f := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(f, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return f
}

func TestConfig_DefaultsAndValidate(t *testing.T) {
	c, err := config.Load(write(t, "QUERY: \"golang lang:en\"\nDRY_RUN: true\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.MaxPosts != 60 || c.Files.Checkpoint != "lastID.txt" || c.Files.Accepted != "posts-accepted.txt" {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if c.Resolver.MaxHops != 10 || c.Source.Timeout != 25*time.Second || c.Verify.Input != "posts-accepted.txt" {
		t.Fatalf("nested defaults not applied: %+v %+v", c.Resolver, c.Source)
	}
	if c.LogFormat == "" || c.LogLocale == "" || c.LogColor == "" {
		t.Fatalf("log defaults missing")
	}
	if c.Source.Retry != 2 || c.Source.MaxPages != 10 || c.Source.CursorHeader != "Min-Id" || c.Source.CursorParam != "cursor" {
		t.Fatalf("source defaults not applied: %+v", c.Source)
	}

	if _, err := config.Load(write(t, "MAX_POSTS: -1\n")); err == nil {
		t.Fatalf("expect error for negative MAX_POSTS")
	}
	if _, err := config.Load(write(t, "RESOLVER:\n  max_hops: 99\n")); err == nil {
		t.Fatalf("expect error for max_hops out of range")
	}
	if _, err := config.Load(write(t, "LOG_FORMAT: xml\n")); err == nil {
		t.Fatalf("expect error for unknown LOG_FORMAT")
	}
}

func TestConfig_EnvOverlay(t *testing.T) {
	t.Setenv("TRACKER_QUERY", "from env")
	t.Setenv("TRACKER_RESOLVER_MAX_HOPS", "4")
	t.Setenv("TRACKER_RESOLVER_KEYWORDS", "solr,lucene")
	t.Setenv("TRACKER_SOURCE_TIMEOUT", "5s")
	c, err := config.Load(write(t, "QUERY: from file\nMAX_POSTS: 10\nRESOLVER:\n  max_hops: 7\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Query != "from env" || c.Resolver.MaxHops != 4 || c.Source.Timeout != 5*time.Second {
		t.Fatalf("env did not override: %+v", c)
	}
	if c.MaxPosts != 10 {
		t.Fatalf("unset env must keep yaml value, got %d", c.MaxPosts)
	}
	if len(c.Resolver.Keywords) != 2 || c.Resolver.Keywords[1] != "lucene" {
		t.Fatalf("keywords: %v", c.Resolver.Keywords)
	}
}

func TestConfig_LoadOrDefault(t *testing.T) {
	c, err := config.LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	if c.MaxPosts != 60 || c.Files.RawBatch != "rawposts.jsonl" {
		t.Fatalf("defaults: %+v", c)
	}
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("explicit Load must fail on missing file")
	}
}

func TestConfig_File(t *testing.T) {
	c := &config.Config{Workdir: "/data/run"}
	if got := c.File("lastID.txt"); got != filepath.Join("/data/run", "lastID.txt") {
		t.Fatalf("relative: %s", got)
	}
	if got := c.File("/abs/x.txt"); got != "/abs/x.txt" {
		t.Fatalf("absolute: %s", got)
	}
}

func TestConfig_SourceRetry(t *testing.T) {
	c, err := config.Load(write(t, "SOURCE:\n  retry: 0\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Source.Retry != 0 {
		t.Fatalf("explicit retry 0 must be kept, got %d", c.Source.Retry)
	}
	if _, err := config.Load(write(t, "SOURCE:\n  retry: -1\n")); err == nil {
		t.Fatalf("expect error for negative SOURCE.retry")
	}
	d, err := config.LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	if d.Source.Retry != 2 {
		t.Fatalf("unset retry should default to 2, got %d", d.Source.Retry)
	}
}
