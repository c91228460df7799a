package severity

import (
	"slices"
	"testing"

	"chatminer/internal/core/lexicon"
	perr "chatminer/internal/platform/errors"
)

func defaultCats(t *testing.T) []lexicon.SeverityCategory {
	t.Helper()
	lex, err := lexicon.Load()
	if err != nil {
		t.Fatalf("load lexicon: %v", err)
	}
	return lex.Severity
}

func TestLevelFor(t *testing.T) {
	cases := map[int]Level{
		0: LevelNone, 1: LevelLow, 2: LevelMedium, 3: LevelMedium,
		4: LevelHigh, 6: LevelHigh, 7: LevelCritical, 15: LevelCritical, -1: LevelNone,
	}
	for score, want := range cases {
		if got := LevelFor(score); got != want {
			t.Fatalf("LevelFor(%d) = %s, want %s", score, got, want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if l, err := ParseLevel(" High "); err != nil || l != LevelHigh {
		t.Fatalf("ParseLevel High = %q, %v", l, err)
	}
	if l, err := ParseLevel(""); err != nil || l != LevelNone {
		t.Fatalf("ParseLevel empty = %q, %v", l, err)
	}
	if _, err := ParseLevel("extreme"); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("ParseLevel extreme err = %v", err)
	}
	if !LevelCritical.AtLeast(LevelHigh) || LevelLow.AtLeast(LevelMedium) || !LevelNone.AtLeast(LevelNone) {
		t.Fatalf("AtLeast ordering broken")
	}
}

func TestScore_PerPhraseByDefault(t *testing.T) {
	s := New(defaultCats(t), Options{})

	r := s.Score("dasar goblok tolol")
	if r.Score != 10 || r.Level != LevelCritical {
		t.Fatalf("two hard phrases = %d/%s, want 10/critical", r.Score, r.Level)
	}
	if !slices.Equal(r.Categories, []string{"hard"}) {
		t.Fatalf("categories = %v", r.Categories)
	}
	if !slices.Equal(r.Phrases, []string{"goblok", "tolol"}) {
		t.Fatalf("phrases = %v", r.Phrases)
	}

	per := New(defaultCats(t), Options{AccumulatePerCategory: true})
	if r := per.Score("dasar goblok tolol"); r.Score != 5 || r.Level != LevelHigh {
		t.Fatalf("per-category = %d/%s, want 5/high", r.Score, r.Level)
	}
}

func TestScore_CategoriesInFirstMatchOrder(t *testing.T) {
	s := New(defaultCats(t), Options{})
	r := s.Score("kami laporkan, driver tidak datang dan saya kecewa")
	if !slices.Equal(r.Categories, []string{"soft", "operational", "escalation"}) {
		t.Fatalf("categories = %v", r.Categories)
	}
	if r.Score != 1+2+3 || r.Level != LevelHigh {
		t.Fatalf("score = %d/%s", r.Score, r.Level)
	}
}

func TestScore_Caps(t *testing.T) {
	s := New(defaultCats(t), Options{})

	// 11 runes, all upper, no pattern
	r := s.Score("HALO SEMUA!")
	if r.Score != 2 || !r.Caps || r.Level != LevelMedium {
		t.Fatalf("caps 11 = %+v", r)
	}
	// exactly 10 characters does not count
	if r := s.Score("HALO SEMUA"); r.Score != 0 || r.Caps || r.Level != LevelNone {
		t.Fatalf("caps 10 = %+v", r)
	}
	if r := s.Score("Halo semua ya"); r.Caps {
		t.Fatalf("mixed case counted as caps")
	}
}

func TestScore_Exclaim(t *testing.T) {
	s := New(defaultCats(t), Options{})
	if r := s.Score("cepat!!"); r.Score != 1 || !r.Exclaim || r.Level != LevelLow {
		t.Fatalf("exclaim = %+v", r)
	}
	if r := s.Score("cepat! ya!"); r.Exclaim {
		t.Fatalf("single marks counted")
	}
	// caps + exclaim + hard
	r := s.Score("GOBLOK SEKALI KALIAN!!!")
	if r.Score != 5+2+1 || r.Level != LevelCritical {
		t.Fatalf("combined = %+v", r)
	}
}

func TestScore_Empty(t *testing.T) {
	s := New(nil, Options{})
	if r := s.Score(""); r.Score != 0 || r.Level != LevelNone || r.Categories != nil {
		t.Fatalf("empty = %+v", r)
	}
}
