package verify_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-link-tracker/internal/fetch"
	"go-link-tracker/internal/resolve"
	"go-link-tracker/internal/verify"
)

func TestRun_WritesVerifiedAndErrorLines(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/article?utm_campaign=x&id=1", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>\n<h1>Lucene tips</h1>\n</html>"))
	})
	mux.HandleFunc("/plain", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>cats</html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cl, err := fetch.New(fetch.Options{Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	res := resolve.New(cl, nil, resolve.Options{Keywords: []string{"lucene"}})

	in := strings.Join([]string{
		"2024-03-09 14:05:07 " + srv.URL + "/short\t11\t@alice\tread this",
		"2024-03-09 14:05:08 " + srv.URL + "/plain\t12\t@bob\tcats",
		"garbage",
		"2024-03-09 14:05:09 ftp://nope\t13\t@carol\tx",
		"2024-03-09 14:05:10 " + srv.URL + "/never\t14\t@dan\tlimit",
	}, "\n")
	var out, errOut bytes.Buffer
	sum, err := verify.Run(context.Background(), res, strings.NewReader(in), &out, &errOut,
		verify.Options{Limit: 4, PostURL: "https://twitter.com/i/status/{id}"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Lines != 4 || sum.Matched != 1 || sum.Missing != 1 || sum.Errors != 2 {
		t.Fatalf("summary: %+v", sum)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	want0 := "2024-03-09 14:05:07\t" + srv.URL + "/short\t" + srv.URL + "/article?id=1\tKeywordMatch\t11\thttps://twitter.com/i/status/11\t@alice\tread this"
	if len(lines) != 2 || lines[0] != want0 {
		t.Fatalf("verified:\n got %q\nwant %q", lines, want0)
	}
	if !strings.Contains(lines[1], "\tKeywordMissing\t12\t") {
		t.Fatalf("second line: %q", lines[1])
	}
	errs := strings.Split(strings.TrimSpace(errOut.String()), "\n")
	if len(errs) != 2 || errs[0] != "garbage\tmalformed accept line" || !strings.HasPrefix(errs[1], "2024-03-09 14:05:09 ftp://nope\t13\t@carol\tx\t") {
		t.Fatalf("errors: %q", errs)
	}
}

type cancelResolver struct{}

func (cancelResolver) Resolve(context.Context, string) resolve.Outcome {
	return resolve.Outcome{Kind: resolve.Failed, Err: errors.New("unreachable")}
}

func TestRun_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out, errOut bytes.Buffer
	_, err := verify.Run(ctx, cancelResolver{}, strings.NewReader("2024-03-09 14:05:07 https://a.example\t1\t@a\tt\n"), &out, &errOut, verify.Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
