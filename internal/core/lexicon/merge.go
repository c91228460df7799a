package lexicon

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	perr "chatminer/internal/platform/errors"

	"gopkg.in/yaml.v3"
)

// Fragment is a partial lexicon. Every field is optional; fragments are folded
// together in order by Merge
type Fragment struct {
	Version         int                `yaml:"version,omitempty"`
	CountryCode     string             `yaml:"country_code,omitempty"`
	TrunkPrefix     string             `yaml:"trunk_prefix,omitempty"`
	Intent          []Category         `yaml:"intent,omitempty"`
	Severity        []SeverityCategory `yaml:"severity,omitempty"`
	Stopwords       []string           `yaml:"stopwords,omitempty"`
	Blocklist       Blocklist          `yaml:"blocklist,omitempty"`
	IndonesianHints []string           `yaml:"indonesian_hints,omitempty"`
	SeedPhrases     []string           `yaml:"complain_seed_phrases,omitempty"`
}

// ParseFragment decodes one fragment strictly. An empty document is an empty fragment
func ParseFragment(b []byte) (Fragment, error) {
	var f Fragment
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return Fragment{}, perr.Wrap(err, perr.ErrorCodeConfig, "lexicon: decode fragment")
	}
	return f, nil
}

// MergeReport counts what Merge dropped as duplicates
type MergeReport struct {
	Fragments         int
	DuplicateKeywords []string
	DuplicatePhrases  int
}

// Merge folds fragments in order into one validated Lexicon.
// Categories with the same name are joined; the first occurrence of a keyword
// phrase wins; list entries are deduplicated keeping first-seen order.
// Conflicting scalars or severity weights are errors
func Merge(frags ...Fragment) (*Lexicon, MergeReport, error) {
	var (
		out Lexicon
		rep MergeReport
	)
	intentIdx := map[string]int{}
	kwSeen := map[string]bool{}
	sevIdx := map[string]int{}
	sevSeen := map[string]map[string]bool{}

	setScalar := func(dst *string, v, name string) error {
		if v == "" {
			return nil
		}
		if *dst != "" && *dst != v {
			return perr.Validationf("lexicon: conflicting %s %q vs %q", name, *dst, v)
		}
		*dst = v
		return nil
	}

	for _, f := range frags {
		rep.Fragments++
		if f.Version > out.Version {
			out.Version = f.Version
		}
		if err := setScalar(&out.CountryCode, f.CountryCode, "country_code"); err != nil {
			return nil, rep, err
		}
		if err := setScalar(&out.TrunkPrefix, f.TrunkPrefix, "trunk_prefix"); err != nil {
			return nil, rep, err
		}

		for _, c := range f.Intent {
			i, ok := intentIdx[c.Name]
			if !ok {
				i = len(out.Intent)
				intentIdx[c.Name] = i
				out.Intent = append(out.Intent, Category{Name: c.Name})
			}
			for _, k := range c.Keywords {
				if kwSeen[k.Phrase] {
					rep.DuplicateKeywords = append(rep.DuplicateKeywords, k.Phrase)
					continue
				}
				kwSeen[k.Phrase] = true
				out.Intent[i].Keywords = append(out.Intent[i].Keywords, k)
			}
		}

		for _, c := range f.Severity {
			i, ok := sevIdx[c.Name]
			if !ok {
				i = len(out.Severity)
				sevIdx[c.Name] = i
				sevSeen[c.Name] = map[string]bool{}
				out.Severity = append(out.Severity, SeverityCategory{Name: c.Name, Weight: c.Weight})
			} else if c.Weight != 0 && c.Weight != out.Severity[i].Weight {
				return nil, rep, perr.Validationf("lexicon: severity %q weight %d conflicts with %d", c.Name, c.Weight, out.Severity[i].Weight)
			}
			for _, p := range c.Phrases {
				if sevSeen[c.Name][p] {
					rep.DuplicatePhrases++
					continue
				}
				sevSeen[c.Name][p] = true
				out.Severity[i].Phrases = append(out.Severity[i].Phrases, p)
			}
		}

		out.Stopwords = appendUnique(out.Stopwords, f.Stopwords, &rep)
		out.Blocklist.Tokens = appendUnique(out.Blocklist.Tokens, f.Blocklist.Tokens, &rep)
		out.Blocklist.Phrases = appendUnique(out.Blocklist.Phrases, f.Blocklist.Phrases, &rep)
		out.IndonesianHints = appendUnique(out.IndonesianHints, f.IndonesianHints, &rep)
		out.SeedPhrases = appendUnique(out.SeedPhrases, f.SeedPhrases, &rep)
	}

	if out.Version == 0 {
		out.Version = 1
	}
	if err := out.Validate(); err != nil {
		return nil, rep, err
	}
	return &out, rep, nil
}

func appendUnique(dst, src []string, rep *MergeReport) []string {
	if len(src) == 0 {
		return dst
	}
	seen := make(map[string]bool, len(dst)+len(src))
	for _, s := range dst {
		seen[s] = true
	}
	for _, s := range src {
		if seen[s] {
			rep.DuplicatePhrases++
			continue
		}
		seen[s] = true
		dst = append(dst, s)
	}
	return dst
}

// FragmentFiles lists the *.yaml and *.yml files directly under dir in name order
func FragmentFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "lexicon: read dir %s", dir)
	}
	var files []string
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(files)
	if len(files) == 0 {
		return nil, perr.Configf("lexicon: no fragments in %s", dir)
	}
	return files, nil
}

// LoadDir merges every fragment file in dir, in file name order
func LoadDir(dir string) (*Lexicon, MergeReport, error) {
	files, err := FragmentFiles(dir)
	if err != nil {
		return nil, MergeReport{}, err
	}
	frags := make([]Fragment, 0, len(files))
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, MergeReport{}, perr.Wrapf(err, perr.ErrorCodeConfig, "lexicon: read %s", f)
		}
		frag, err := ParseFragment(b)
		if err != nil {
			return nil, MergeReport{}, perr.WithOp(err, f)
		}
		frags = append(frags, frag)
	}
	return Merge(frags...)
}

// LoadPath loads a lexicon file, or merges a fragment directory. Empty path
// means the embedded lexicon
func LoadPath(path string) (*Lexicon, error) {
	if path == "" {
		return Load()
	}
	st, err := os.Stat(path)
	if err == nil && st.IsDir() {
		lex, _, err := LoadDir(path)
		return lex, err
	}
	return LoadFile(path)
}
