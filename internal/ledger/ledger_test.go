package ledger_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-link-tracker/internal/ledger"
	"go-link-tracker/internal/model"
)

var fixed = time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)

func clock() time.Time { return fixed }

func paths(dir string) ledger.Paths {
	return ledger.Paths{
		Skipped:  filepath.Join(dir, "posts-skipped.txt"),
		Accepted: filepath.Join(dir, "posts-accepted.txt"),
		Failed:   filepath.Join(dir, "urls-failed.txt"),
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	s := strings.TrimSuffix(string(b), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestFormatters(t *testing.T) {
	if got := ledger.SkipLine(model.SkipRecord{At: fixed, PostID: 42, Reason: "repost"}); got != "2024-03-09 14:05:07 42:repost" {
		t.Fatalf("skip line: %q", got)
	}
	p := model.Post{ID: 7, Handle: "alice", Text: "line1\r\nline2\nline3"}
	got := ledger.AcceptLine(ledger.NewAccept(fixed, "https://ex.com/a", p))
	if want := "2024-03-09 14:05:07 https://ex.com/a\t7\t@alice\tline1 line2 line3"; got != want {
		t.Fatalf("accept line:\n got %q\nwant %q", got, want)
	}
	got = ledger.FailureLine(model.FailureRecord{At: fixed, PostID: 9, URL: "https://x.y/z", Message: "dial tcp: refused"})
	if want := "2024-03-09 14:05:07 9\thttps://x.y/z\tdial tcp: refused"; got != want {
		t.Fatalf("failure line: %q", got)
	}
}

func TestFiles_AppendAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	p := paths(dir)
	for run := 0; run < 2; run++ {
		f, err := ledger.Open(p)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		f.WithClock(clock)
		if err := f.Skip(100, "excluded handle 'spammer'"); err != nil {
			t.Fatalf("skip: %v", err)
		}
		if err := f.Accept("https://ex.com/a", model.Post{ID: 101, Handle: "bob", Text: "hi"}); err != nil {
			t.Fatalf("accept: %v", err)
		}
		if err := f.Failure(102, "https://down.example", "timeout"); err != nil {
			t.Fatalf("failure: %v", err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	sk := readLines(t, p.Skipped)
	if len(sk) != 2 || sk[0] != "2024-03-09 14:05:07 100:excluded handle 'spammer'" || sk[0] != sk[1] {
		t.Fatalf("skipped ledger: %q", sk)
	}
	if ac := readLines(t, p.Accepted); len(ac) != 2 || ac[1] != "2024-03-09 14:05:07 https://ex.com/a\t101\t@bob\thi" {
		t.Fatalf("accepted ledger: %q", ac)
	}
	if fl := readLines(t, p.Failed); len(fl) != 2 {
		t.Fatalf("failed ledger: %q", fl)
	}
}

func TestFiles_OpenFailsOnMissingDir(t *testing.T) {
	p := paths(filepath.Join(t.TempDir(), "nope"))
	if _, err := ledger.Open(p); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
