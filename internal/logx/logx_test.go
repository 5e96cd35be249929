package logx_test

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"go-link-tracker/internal/logx"
)

// captureStdout runs fn while capturing os.Stdout output and returns it as string.
func captureStdout(fn func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = old }()
	fn()
	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	_ = r.Close()
	return buf.String()
}

func TestLogx_PrettyZH_Info(t *testing.T) {
	out := captureStdout(func() {
		logx.Init("debug", "pretty", "zh-CN", "never")
		logx.Infof("hello %s", "world")
	})
	if !strings.Contains(out, "[信息]") {
		t.Fatalf("expect zh label [信息], got: %q", out)
	}
	if !strings.Contains(out, "hello world") {
		t.Fatalf("message missing: %q", out)
	}
}

func TestLogx_LevelFiltering(t *testing.T) {
	out := captureStdout(func() {
		logx.Init("warn", "pretty", "zh-CN", "never")
		logx.Infof("should not print")
		logx.Warnf("warn on")
	})
	if strings.Contains(out, "should not print") {
		t.Fatalf("info should be filtered when level=warn")
	}
	if !strings.Contains(out, "[警告]") {
		t.Fatalf("expect warn label present, got: %q", out)
	}
}

func TestLogx_EnglishLabels(t *testing.T) {
	var buf bytes.Buffer
	logx.InitWriter(&buf, "info", "pretty", "en", "never")
	logx.Errorf("boom")
	if !strings.Contains(buf.String(), "[ERROR]") {
		t.Fatalf("expect en label [ERROR], got: %q", buf.String())
	}
}

func TestLogx_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logx.InitWriter(&buf, "debug", "json", "", "")
	logx.Debugf("n=%d", 3)
	var m map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m); err != nil {
		t.Fatalf("json line expected: %v (%q)", err, buf.String())
	}
	if m["message"] != "n=3" || m["level"] != "debug" {
		t.Fatalf("unexpected fields: %v", m)
	}
}

func TestLogx_Silent(t *testing.T) {
	var buf bytes.Buffer
	logx.InitWriter(&buf, "none", "pretty", "en", "never")
	logx.Errorf("nothing")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}
