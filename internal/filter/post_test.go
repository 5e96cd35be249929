package filter_test

import (
	"testing"

	"go-link-tracker/internal/exclusion"
	"go-link-tracker/internal/filter"
	"go-link-tracker/internal/model"
)

func newFilter(t *testing.T, query string, terms ...string) *filter.Filter {
	t.Helper()
	inc, err := filter.CompileInclude(query)
	if err != nil {
		t.Fatalf("include: %v", err)
	}
	exc, err := filter.CompileExclude(terms)
	if err != nil {
		t.Fatalf("exclude: %v", err)
	}
	return filter.New(exclusion.New("spammer", "noisy"), inc, exc)
}

func TestDecide_OrderAndReasons(t *testing.T) {
	f := newFilter(t, "solr OR lucene", "giveaway")
	cases := []struct {
		name   string
		post   model.Post
		reason filter.Reason
		text   string
	}{
		{"repost wins over everything", model.Post{Repost: true, Handle: "spammer", Text: "giveaway"}, filter.Repost, "repost"},
		{"author excluded", model.Post{Handle: "Spammer", Mentions: []string{"noisy"}, Text: "solr"}, filter.ExcludedHandle, "excluded handle 'Spammer'"},
		{"first excluded mention", model.Post{Handle: "ok", Mentions: []string{"fine", "NOISY", "spammer"}, Text: "solr"}, filter.ExcludedMention, "excluded mention 'NOISY'"},
		{"missing terms", model.Post{Handle: "ok", Text: "elasticsearch"}, filter.MissingTerms, "missing required terms"},
		{"forbidden term", model.Post{Handle: "ok", Text: "Solr GiveAway now"}, filter.ForbiddenTerm, "forbidden term 'GiveAway'"},
		{"accepted", model.Post{Handle: "ok", Text: "Lucene 10 released"}, filter.Accept, "accepted"},
	}
	for _, tc := range cases {
		d := f.Decide(tc.post)
		if d.Reason != tc.reason || d.String() != tc.text {
			t.Fatalf("%s: got %v %q, want %v %q", tc.name, d.Reason, d.String(), tc.reason, tc.text)
		}
	}
}

func TestDecide_NoConstraints(t *testing.T) {
	f := filter.New(nil, nil, nil)
	d := f.Decide(model.Post{Handle: "anyone", Text: "anything"})
	if !d.Accepted() {
		t.Fatalf("expected accept, got %s", d)
	}
}

func TestDecide_ZeroURLsStillAccepted(t *testing.T) {
	f := newFilter(t, "")
	d := f.Decide(model.Post{ID: 1, Handle: "ok", Text: "no links here"})
	if !d.Accepted() {
		t.Fatalf("post without URLs must be accepted, got %s", d)
	}
}
