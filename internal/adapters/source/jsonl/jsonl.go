// Package jsonl streams chat messages from newline-delimited JSON exports, optionally gzip compressed
package jsonl

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	perr "chatminer/internal/platform/errors"
	"chatminer/internal/platform/logger"
	pstrings "chatminer/internal/platform/strings"
	ptime "chatminer/internal/platform/time"
	"chatminer/internal/services/mining/domain"
)

const (
	maxLineSize  = 16 * 1024 * 1024
	sampleRawMax = 512
)

// record mirrors one exported message; ids and dates arrive as strings or numbers
type record struct {
	ID          any    `json:"id"`
	MongoID     any    `json:"_id"`
	ChatID      string `json:"chat_id"`
	Author      string `json:"author"`
	Body        string `json:"body"`
	IsForwarded bool   `json:"is_forwarded"`
	Timestamp   any    `json:"timestamp"`
	CreatedAt   any    `json:"created_at"`
	Time        any    `json:"time"`
}

// Source opens a file path; a ".gz" suffix selects gzip decoding
type Source struct {
	Path string
}

// New returns a Source for path
func New(path string) *Source { return &Source{Path: path} }

// Open starts a cursor that applies f while reading
func (s *Source) Open(_ context.Context, f domain.Filter) (domain.Cursor, error) {
	fh, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "jsonl: %s not found", s.Path)
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "jsonl: open %s", s.Path)
	}
	return NewCursor(fh, strings.HasSuffix(s.Path, ".gz"), f)
}

// Cursor streams messages from one reader
type Cursor struct {
	r       io.ReadCloser
	gz      *gzip.Reader
	sc      *bufio.Scanner
	filter  domain.Filter
	err     error
	lines   int
	skipped int
	sampled bool
}

// NewCursor wraps r. The cursor owns r and closes it on Close
func NewCursor(r io.ReadCloser, gzipped bool, f domain.Filter) (*Cursor, error) {
	c := &Cursor{r: r, filter: f}
	var src io.Reader = r
	if gzipped {
		gz, err := gzip.NewReader(r)
		if err != nil {
			if cerr := r.Close(); cerr != nil {
				return nil, perr.Wrap(errors.Join(err, cerr), perr.ErrorCodeSource, "jsonl: gzip header")
			}
			return nil, perr.Wrap(err, perr.ErrorCodeSource, "jsonl: gzip header")
		}
		c.gz = gz
		src = gz
	}
	c.sc = bufio.NewScanner(src)
	c.sc.Buffer(make([]byte, 64*1024), maxLineSize)
	return c, nil
}

// Next returns the next message passing the filter, or io.EOF.
// Lines that are not JSON objects are skipped and counted
func (c *Cursor) Next(ctx context.Context) (domain.Message, error) {
	if c.err != nil {
		return domain.Message{}, c.err
	}
	for {
		if err := ctx.Err(); err != nil {
			return domain.Message{}, err
		}
		if !c.sc.Scan() {
			if err := c.sc.Err(); err != nil {
				c.err = perr.Wrapf(err, perr.ErrorCodeUnavailable, "jsonl: read line %d", c.lines+1)
				return domain.Message{}, c.err
			}
			c.err = io.EOF
			return domain.Message{}, io.EOF
		}
		c.lines++
		line := bytes.TrimSpace(c.sc.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec record
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		if err := dec.Decode(&rec); err != nil {
			c.skipped++
			continue
		}
		if !c.sampled {
			c.sampled = true
			logger.Named("jsonl").Debug().
				Int("line", c.lines).
				Str("sample_raw", pstrings.Truncate(string(line), sampleRawMax)).
				Msg("jsonl: sample raw line")
		}

		if c.filter.ChatID != "" && rec.ChatID != c.filter.ChatID {
			continue
		}
		if c.filter.ExcludeForwarded && rec.IsForwarded {
			continue
		}
		return rec.message(), nil
	}
}

// Skipped returns the number of malformed lines seen so far
func (c *Cursor) Skipped() int { return c.skipped }

// Lines returns the number of lines read so far
func (c *Cursor) Lines() int { return c.lines }

// Close closes the gzip stream and the underlying reader
func (c *Cursor) Close() error {
	var first error
	if c.gz != nil {
		if err := c.gz.Close(); err != nil {
			first = err
		}
	}
	if c.r != nil {
		if err := c.r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (r record) message() domain.Message {
	m := domain.Message{
		ID:        idString(r.ID, r.MongoID),
		ChatID:    r.ChatID,
		Author:    r.Author,
		Body:      r.Body,
		Forwarded: r.IsForwarded,
	}
	for _, v := range []any{r.Timestamp, r.CreatedAt, r.Time} {
		if t, ok := parseDate(v); ok {
			m.Timestamp = &t
			break
		}
	}
	return m
}

// parseDate also unwraps extended JSON dates ({"$date": ...})
func parseDate(v any) (time.Time, bool) {
	if obj, ok := v.(map[string]any); ok {
		v = obj["$date"]
		if inner, ok := v.(map[string]any); ok {
			v = inner["$numberLong"]
		}
	}
	if v == nil {
		return time.Time{}, false
	}
	return ptime.ParseAny(v)
}

func idString(vals ...any) string {
	for _, v := range vals {
		switch x := v.(type) {
		case nil:
			continue
		case string:
			if x != "" {
				return x
			}
		case map[string]any:
			if oid, ok := x["$oid"].(string); ok {
				return oid
			}
		default:
			return fmt.Sprint(x)
		}
	}
	return ""
}
