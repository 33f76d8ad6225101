// Package logstore provides byte-level streaming access to the CSV log
// file: schema discovery and the streaming substring/regex search that
// backs grep_logs and friends.
//
// The scan itself never materializes more than one row at a time (a
// pull loop over an encoding/csv Reader); only the bounded result set
// is held in memory, and only small result sets are cached.
package logstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ilkoid/logwright/internal/logmodel"
	"github.com/ilkoid/logwright/pkg/obslog"
)

// cacheableRowLimit is the largest result set the small-result cache will
// hold; larger results are recomputed on every call rather than pinning
// large working sets in memory indefinitely.
const cacheableRowLimit = 50

// Store exposes one CSV log file for streaming search and header
// discovery. A Store is read-only after Open and safe for concurrent use
// by multiple queries.
type Store struct {
	path          string
	header        []string
	payloadColumn string
	cache         *lru.Cache[string, *logmodel.WorkingSet]
}

// Open reads the CSV header from path and prepares a Store. payloadColumn
// names the column holding the embedded-JSON event payload; if it is not
// found in the header, the store still opens (payload-aware tools degrade
// gracefully rather than failing at startup).
func Open(path, payloadColumn string, cacheSize int) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrLogFile, path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header of %s: %w", ErrLogFile, path, err)
	}

	if cacheSize <= 0 {
		cacheSize = 256
	}
	cache, err := lru.New[string, *logmodel.WorkingSet](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}

	return &Store{path: path, header: header, payloadColumn: payloadColumn, cache: cache}, nil
}

// Header returns the ordered column names discovered from the CSV header.
func (s *Store) Header() []string {
	out := make([]string, len(s.header))
	copy(out, s.header)
	return out
}

// PayloadColumn returns the configured payload column name.
func (s *Store) PayloadColumn() string {
	return s.payloadColumn
}

// SearchParams configures a Search/CountMatches invocation.
type SearchParams struct {
	Pattern       string
	Columns       []string // empty means "all columns"
	CaseSensitive bool
	Regex         bool
	MaxMatches    int // 0 means unbounded
}

func (p SearchParams) cacheKey() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s|%v|%t|%t|%d", p.Pattern, p.Columns, p.CaseSensitive, p.Regex, p.MaxMatches)
	return sb.String()
}

// SearchResult is the outcome of a successful Search: the matching rows
// in file order, plus the number of lines scanned to produce them (0 when
// the result is served from the small-result cache).
type SearchResult struct {
	WorkingSet   *logmodel.WorkingSet
	LinesScanned int
}

// Search streams the file once, returning rows whose selected columns
// match pattern. Memory use during the scan is O(one row); only the
// bounded set of matches is retained.
func (s *Store) Search(ctx context.Context, p SearchParams) (SearchResult, error) {
	matcher, err := newMatcher(p.Pattern, p.CaseSensitive, p.Regex)
	if err != nil {
		return SearchResult{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if cached, ok := s.cache.Get(p.cacheKey()); ok {
		return SearchResult{WorkingSet: cached, LinesScanned: 0}, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return SearchResult{}, fmt.Errorf("%w: open %s: %w", ErrLogFile, s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	if _, err := r.Read(); err != nil && err != io.EOF {
		return SearchResult{}, fmt.Errorf("%w: re-read header: %w", ErrLogFile, err)
	}

	colIdx := s.columnIndices(p.Columns)
	ws := &logmodel.WorkingSet{Header: s.Header()}
	scanned := 0

	for {
		if ctx.Err() != nil {
			return SearchResult{}, ctx.Err()
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Skip malformed rows rather than aborting the whole scan.
			obslog.Debug("logstore: skipping malformed row", "err", err)
			continue
		}
		scanned++

		if matcher(candidateText(record, colIdx)) {
			ws.Rows = append(ws.Rows, logmodel.LogRow{Header: ws.Header, Values: record})
			if p.MaxMatches > 0 && len(ws.Rows) >= p.MaxMatches {
				break
			}
		}
	}

	if len(ws.Rows) <= cacheableRowLimit {
		s.cache.Add(p.cacheKey(), ws)
	}

	return SearchResult{WorkingSet: ws, LinesScanned: scanned}, nil
}

// CountMatches streams the file once and returns the number of rows
// whose selected columns match pattern, without materializing any rows.
func (s *Store) CountMatches(ctx context.Context, pattern string, columns []string, caseSensitive bool) (int, error) {
	matcher, err := newMatcher(pattern, caseSensitive, false)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	f, err := os.Open(s.path)
	if err != nil {
		return 0, fmt.Errorf("%w: open %s: %w", ErrLogFile, s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	if _, err := r.Read(); err != nil && err != io.EOF {
		return 0, fmt.Errorf("%w: re-read header: %w", ErrLogFile, err)
	}

	colIdx := s.columnIndices(columns)
	count := 0
	for {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if matcher(candidateText(record, colIdx)) {
			count++
		}
	}
	return count, nil
}

func (s *Store) columnIndices(columns []string) []int {
	if len(columns) == 0 {
		return nil
	}
	wanted := make(map[string]bool, len(columns))
	for _, c := range columns {
		wanted[strings.ToLower(c)] = true
	}
	var idx []int
	for i, h := range s.header {
		if wanted[strings.ToLower(h)] {
			idx = append(idx, i)
		}
	}
	return idx
}

func candidateText(record []string, colIdx []int) string {
	if colIdx == nil {
		return strings.Join(record, "\x1f")
	}
	parts := make([]string, 0, len(colIdx))
	for _, i := range colIdx {
		if i < len(record) {
			parts = append(parts, record[i])
		}
	}
	return strings.Join(parts, "\x1f")
}

func newMatcher(pattern string, caseSensitive, isRegex bool) (func(string) bool, error) {
	if isRegex {
		prefix := "(?i)"
		if caseSensitive {
			prefix = ""
		}
		re, err := regexp.Compile(prefix + pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
		}
		return re.MatchString, nil
	}

	needle := pattern
	if !caseSensitive {
		needle = strings.ToLower(needle)
	}
	return func(s string) bool {
		if !caseSensitive {
			s = strings.ToLower(s)
		}
		return strings.Contains(s, needle)
	}, nil
}
