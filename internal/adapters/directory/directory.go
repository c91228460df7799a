// Package directory loads the internal staff identifier set from a user admin JSON export
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"chatminer/internal/core/normalize"
	perr "chatminer/internal/platform/errors"
	"chatminer/internal/platform/logger"
	"chatminer/internal/services/mining/domain"
)

// activeStatus marks an enabled staff account
const activeStatus = 1

type row struct {
	Phone  json.RawMessage `json:"phone"`
	Status json.RawMessage `json:"status"`
}

// Loader reads the export once per Load call
type Loader struct {
	Path string
	Norm *normalize.Normalizer
}

// New returns a Loader for path; a nil norm uses normalize.Default
func New(path string, norm *normalize.Normalizer) *Loader {
	if norm == nil {
		norm = normalize.Default
	}
	return &Loader{Path: path, Norm: norm}
}

// Load accepts either a JSON array of rows or an object with a user_admin array.
// Rows with status 1 and a phone are normalized into the set.
// A missing or malformed file is a config error
func (l *Loader) Load(_ context.Context) (domain.IdentifierSet, error) {
	b, err := os.ReadFile(l.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "user admin json not found: %s", l.Path)
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "read user admin json %s", l.Path)
	}
	rows, err := decodeRows(b)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "parse user admin json %s", l.Path)
	}

	set := make(domain.IdentifierSet, len(rows))
	inactive := 0
	for _, r := range rows {
		if n, ok := number(r.Status); !ok || n != activeStatus {
			inactive++
			continue
		}
		phone := scalar(r.Phone)
		if phone == "" {
			continue
		}
		if id, ok := l.Norm.Identifier(phone); ok {
			set[id] = struct{}{}
		}
	}
	logger.Named("directory").Debug().
		Str("path", l.Path).
		Int("rows", len(rows)).
		Int("inactive", inactive).
		Int("identifiers", len(set)).
		Msg("user admin loaded")
	return set, nil
}

func decodeRows(b []byte) ([]row, error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var rows []row
		err := json.Unmarshal(b, &rows)
		return rows, err
	}
	var wrapped struct {
		UserAdmin json.RawMessage `json:"user_admin"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return nil, err
	}
	var rows []row
	if len(wrapped.UserAdmin) > 0 && wrapped.UserAdmin[0] == '[' {
		if err := json.Unmarshal(wrapped.UserAdmin, &rows); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// scalar renders a JSON string or number as text; anything else is ""
func scalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	if raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9') {
		return string(raw)
	}
	return ""
}

// number reads a JSON number, numeric string or boolean
func number(raw json.RawMessage) (float64, bool) {
	switch s := string(bytes.TrimSpace(raw)); s {
	case "true":
		return 1, true
	case "false":
		return 0, true
	}
	f, err := strconv.ParseFloat(scalar(raw), 64)
	return f, err == nil
}
