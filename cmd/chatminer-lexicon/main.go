// Command chatminer-lexicon merges lexicon YAML fragments into one lexicon file
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"chatminer/internal/core/lexicon"
)

func must(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// resolveDir tries, in order: flag, env, common locations.
// Returns chosen dir and the attempts (for error messages)
func resolveDir(flagDir string) (string, []string, error) {
	var attempts []string
	try := func(p string) bool {
		if p == "" {
			return false
		}
		attempts = append(attempts, p)
		_, err := lexicon.FragmentFiles(p)
		return err == nil
	}

	if try(flagDir) {
		return flagDir, attempts, nil
	}
	if env := strings.TrimSpace(os.Getenv("CHATMINER_LEXICON_DIR")); try(env) {
		return env, attempts, nil
	}
	for _, c := range []string{"./lexicon", "/app/lexicon"} {
		if try(c) {
			return c, attempts, nil
		}
	}
	return "", attempts, errors.New("no lexicon fragments found in any known location")
}

// assemble merges dir and returns the encoded lexicon
func assemble(dir string, verbose io.Writer) ([]byte, error) {
	lex, rep, err := lexicon.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	if verbose != nil {
		_, _ = fmt.Fprintf(verbose, "merged %d fragments from %s\n", rep.Fragments, dir)
		for _, k := range rep.DuplicateKeywords {
			_, _ = fmt.Fprintf(verbose, "warning: duplicate keyword %q skipped\n", k)
		}
		if rep.DuplicatePhrases > 0 {
			_, _ = fmt.Fprintf(verbose, "warning: %d duplicate list entries dropped\n", rep.DuplicatePhrases)
		}
		_, _ = fmt.Fprintln(verbose, lex.String())
	}
	var buf bytes.Buffer
	if err := lexicon.Encode(&buf, lex); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// check loads path (file or fragment dir) and prints its summary
func check(path string, w io.Writer) error {
	lex, err := lexicon.LoadPath(path)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "ok: %s\n", lex)
	return err
}

func main() {
	var (
		flagDir = flag.String("dir", "", "fragment directory (e.g., ./lexicon). If empty, auto-discover")
		out     = flag.String("out", "./internal/core/lexicon/lexicon.yaml", "output path or '-' for stdout")
		chk     = flag.String("check", "", "validate a lexicon file or fragment directory and exit")
		verbose = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	if *chk != "" {
		must(check(*chk, os.Stdout))
		return
	}

	dir, attempts, err := resolveDir(strings.TrimSpace(*flagDir))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to locate lexicon fragments (looked in):\n")
		for _, a := range attempts {
			_, _ = fmt.Fprintf(os.Stderr, "  - %s\n", a)
		}
		_, _ = fmt.Fprintf(os.Stderr, "hint: pass -dir or set CHATMINER_LEXICON_DIR\n")
		must(err)
	}

	var vw io.Writer
	if *verbose {
		vw = os.Stderr
	}
	enc, err := assemble(dir, vw)
	must(err)

	if *out == "-" {
		_, err := os.Stdout.Write(enc)
		must(err)
		return
	}
	must(os.MkdirAll(filepath.Dir(*out), 0o755))
	must(os.WriteFile(*out, enc, 0o644))
	if *verbose {
		_, _ = fmt.Fprintf(os.Stderr, "wrote %s (%d bytes)\n", *out, len(enc))
	}
}
