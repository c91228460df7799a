package intent

import (
	"slices"
	"testing"

	"chatminer/internal/core/lexicon"
	"chatminer/internal/core/normalize"
)

func defaultScorer(t *testing.T) *Scorer {
	t.Helper()
	lex, err := lexicon.Load()
	if err != nil {
		t.Fatalf("load lexicon: %v", err)
	}
	return New(lex.Intent)
}

func TestScore_Labels(t *testing.T) {
	s := defaultScorer(t)

	cases := []struct {
		in      string
		label   string
		score   int
		problem int
		update  int
	}{
		{"Pak, minta update ya", "update", 4, 0, 4},  // "minta update" + "update"
		{"ada kendala di jalan", "problem", 5, 5, 0}, // "ada kendala" + "kendala"
		{"halo selamat pagi", LabelUnknown, 0, 0, 0},
		{"", LabelUnknown, 0, 0, 0},
		{"kenapa posisi", LabelMixed, 2, 2, 2},
	}
	for _, c := range cases {
		r := s.Score(normalize.Text(c.in))
		if r.Label != c.label {
			t.Fatalf("%q: label = %q, want %q (%+v)", c.in, r.Label, c.label, r)
		}
		if r.Scores["problem"] != c.problem || r.Scores["update"] != c.update {
			t.Fatalf("%q: scores = %v", c.in, r.Scores)
		}
		if c.label != LabelMixed && r.Score != c.score {
			t.Fatalf("%q: winner score = %d", c.in, r.Score)
		}
		if c.label == LabelMixed && (r.Score != c.score || !slices.Equal(r.Tied, []string{"problem", "update"})) {
			t.Fatalf("%q: mixed score/tied = %d/%v", c.in, r.Score, r.Tied)
		}
		if c.label == LabelUnknown && (r.Score != 0 || len(r.Matched) != 0) {
			t.Fatalf("%q: unknown should carry nothing: %+v", c.in, r)
		}
	}
}

func TestScore_MintaUpdateOnly(t *testing.T) {
	s := New([]lexicon.Category{
		{Name: "problem", Keywords: []lexicon.Keyword{{Phrase: "ada kendala", Weight: 3, Type: lexicon.TypeStrong}}},
		{Name: "update", Keywords: []lexicon.Keyword{{Phrase: "minta update", Weight: 3, Type: lexicon.TypeStrong}}},
	})
	r := s.Score("tolong minta update posisi unit")
	if r.Scores["update"] != 3 || r.Scores["problem"] != 0 || r.Label != "update" || r.Score != 3 {
		t.Fatalf("unexpected result %+v", r)
	}
	if !r.IsCategory() {
		t.Fatalf("update should be a category label")
	}
}

func TestScore_SubstringNotTokenAware(t *testing.T) {
	s := defaultScorer(t)
	// "telat" inside "telatnya", "cek" inside "dicek"
	r := s.Score("unit telatnya sudah dicek")
	var phrases []string
	for _, m := range r.Matched {
		phrases = append(phrases, m.Phrase)
	}
	if !slices.Contains(phrases, "telat") || !slices.Contains(phrases, "cek") {
		t.Fatalf("matched = %v", phrases)
	}
}

func TestScore_MatchedInDeclarationOrder(t *testing.T) {
	s := defaultScorer(t)
	r := s.Score("cek status posisi masalah delay")
	var got []string
	for _, m := range r.Matched {
		got = append(got, m.Category+":"+m.Phrase)
	}
	want := []string{"problem:delay", "problem:masalah", "update:posisi", "update:status", "update:cek"}
	if !slices.Equal(got, want) {
		t.Fatalf("matched = %v, want %v", got, want)
	}
}

func TestScore_ThreeWayTie(t *testing.T) {
	kw := func(p string) []lexicon.Keyword { return []lexicon.Keyword{{Phrase: p, Weight: 2, Type: lexicon.TypeMedium}} }
	s := New([]lexicon.Category{
		{Name: "billing", Keywords: kw("tagihan")},
		{Name: "problem", Keywords: kw("kendala")},
		{Name: "update", Keywords: kw("posisi")},
	})

	r := s.Score("posisi dan kendala tagihan")
	if r.Label != LabelMixed || r.Score != 2 || !slices.Equal(r.Tied, []string{"billing", "problem", "update"}) {
		t.Fatalf("three-way tie = %+v", r)
	}

	r = s.Score("posisi kendala")
	if r.Label != LabelMixed || !slices.Equal(r.Tied, []string{"problem", "update"}) {
		t.Fatalf("two of three tie = %+v", r)
	}

	if got := s.Categories(); !slices.Equal(got, []string{"billing", "problem", "update"}) {
		t.Fatalf("categories = %v", got)
	}
}
