package normalize

import (
	"strings"
	"testing"
)

func TestText_Table(t *testing.T) {
	n := New()

	tests := []struct {
		name string
		in   string
		out  string
	}{
		{"identity ascii", "ada kendala", "ada kendala"},
		{"lower case", "MINTA Update", "minta update"},
		{"punctuation to space", "truk B-1234-CD, sudah sampai?", "truk b 1234 cd sudah sampai"},
		{"collapse whitespace", "a\t\tb\nc   d", "a b c d"},
		{"trim edges", "   !!halo!!   ", "halo"},
		{"accents are not ascii", "café", "caf"},
		{"emoji", "delay 😡😡 lagi", "delay lagi"},
		{"invalid utf8 dropped", string([]byte{0xff, 'o', 'k', 0x80}), "ok"},
		{"empty", "", ""},
		{"only symbols", "?!.,", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Text(tt.in); got != tt.out {
				t.Fatalf("Text(%q) = %q, want %q", tt.in, got, tt.out)
			}
		})
	}
}

func TestText_OutputAlphabet(t *testing.T) {
	inputs := []string{
		"Halo Pak!! Posisi truk B 9876 XYZ dimana?? \n\n",
		"  ＦＵＬＬＷＩＤＴＨ  text​ with zero width ",
		"ÇA VA? straße İstanbul",
		"\t\r\n",
		"123 -- 456",
	}
	for _, in := range inputs {
		got := Text(in)
		if strings.HasPrefix(got, " ") || strings.HasSuffix(got, " ") {
			t.Fatalf("Text(%q) = %q has edge spaces", in, got)
		}
		if strings.Contains(got, "  ") {
			t.Fatalf("Text(%q) = %q has a double space", in, got)
		}
		for _, r := range got {
			if !(r == ' ' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
				t.Fatalf("Text(%q) = %q contains %q", in, got, r)
			}
		}
		if Text(got) != got {
			t.Fatalf("Text not stable on its own output: %q", got)
		}
	}
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"0812-3456-789", "628123456789", true},
		{"+62 812 3456 789", "628123456789", true},
		{"8123456789", "628123456789", true},
		{"628123456789", "628123456789", true},
		{"00812", "62" + "0812", true},
		{"", "", false},
		{"abc", "", false},
	}
	for _, tt := range tests {
		got, ok := Identifier(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("Identifier(%q) = (%q,%v), want (%q,%v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIdentifier_IdempotentAndPrefixed(t *testing.T) {
	inputs := []string{"0812 1", "62", "6", "0", "00", "+1 (555) 010-9999", "081-xyz-22", "620812", "0062811"}
	for _, in := range inputs {
		once, ok := Identifier(in)
		if !ok {
			t.Fatalf("Identifier(%q) unexpectedly not ok", in)
		}
		twice, ok2 := Identifier(once)
		if !ok2 || twice != once {
			t.Fatalf("not idempotent: %q -> %q -> %q", in, once, twice)
		}
		if !strings.HasPrefix(once, DefaultCountryCode) {
			t.Fatalf("Identifier(%q) = %q lacks country code", in, once)
		}
		for _, c := range once {
			if c < '0' || c > '9' {
				t.Fatalf("Identifier(%q) = %q not digit-only", in, once)
			}
		}
	}
}

func TestAuthor_StripsJID(t *testing.T) {
	got, ok := Author("08123456789@c.us")
	if !ok || got != "628123456789" {
		t.Fatalf("Author = (%q,%v)", got, ok)
	}
	if _, ok := Author("@g.us"); ok {
		t.Fatalf("empty local part should not be ok")
	}
}

func TestCustomCountryCode(t *testing.T) {
	n := &Normalizer{CountryCode: "60", TrunkPrefix: "0"}
	got, ok := n.Identifier("012-345 6789")
	if !ok || got != "60123456789" {
		t.Fatalf("custom code = (%q,%v)", got, ok)
	}

	blank := &Normalizer{}
	if got, _ := blank.Identifier("812"); got != "62812" {
		t.Fatalf("blank normalizer should fall back to default code, got %q", got)
	}
}
