package rules_test

import (
	"os"
	"path/filepath"
	"testing"

	"go-link-tracker/internal/rules"
)

func TestRules_GetPreset(t *testing.T) {
	r := &rules.Rules{Presets: map[string]rules.Preset{
		"default": {Post: &rules.PostRules{Anchor: ".tweet-content a"}},
		"Nitter":  {Post: &rules.PostRules{RepostPrefix: "RT "}},
	}}
	p, ok := r.GetPreset("")
	if !ok || p.Post == nil || p.Post.Anchor != ".tweet-content a" {
		t.Fatalf("default fallback failed: %+v", p)
	}
	p2, ok := r.GetPreset("NITTER")
	if !ok || p2.Post.RepostPrefix != "RT " {
		t.Fatalf("case-insensitive lookup failed: %+v", p2)
	}
	if p3, ok := r.GetPreset("missing"); !ok || p3.Post.Anchor != ".tweet-content a" {
		t.Fatalf("unknown name should fall back to default")
	}
}

func TestRules_PostRulesDefaults(t *testing.T) {
	var r *rules.Rules
	if got := r.PostRules("x"); got != rules.Default() {
		t.Fatalf("nil rules should yield built-in defaults: %+v", got)
	}
	r = &rules.Rules{Presets: map[string]rules.Preset{"default": {Post: &rules.PostRules{Href: "a@href"}}}}
	got := r.PostRules("")
	if got.Href != "a@href" || got.Anchor != "a" || got.MentionPrefix != "@" || got.RepostPrefix != "RT by " {
		t.Fatalf("partial override not merged: %+v", got)
	}
}

func TestRules_Load(t *testing.T) {
	f := filepath.Join(t.TempDir(), "rules.yaml")
	_ = os.WriteFile(f, []byte("default:\n  post:\n    anchor: \"p a\"\n    repost_prefix: \"RT by \"\n"), 0o644)
	r, err := rules.Load(f)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := r.PostRules(""); got.Anchor != "p a" {
		t.Fatalf("unexpected: %+v", got)
	}
	if _, err := rules.Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
