package importer

// csv.go turns raw upload bytes into a header row and ordered raw rows.
//
// CSV files arrive from spreadsheets, so cells get the usual cleanup: BOM
// and Excel formula prefixes are stripped, invalid UTF-8 is replaced, fully
// blank lines are skipped. Structural problems (unreadable or empty file)
// are the only errors this layer reports.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrEmptyFile is returned for files with no parseable content.
var ErrEmptyFile = errors.New("empty file")

// ErrNoDataRows is returned for files that contain a header but no data.
var ErrNoDataRows = errors.New("no data rows after header")

// ParsedFile is a tokenized CSV upload: the detected headers and every
// non-blank data row keyed by header.
type ParsedFile struct {
	Headers []string `json:"headers"`
	Rows    []RawRow `json:"-"`
}

// Parse tokenizes a CSV upload. The first row is the header; blank lines are
// skipped and do not count as data rows.
func Parse(data []byte) (*ParsedFile, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	data = sanitizeUTF8(data)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = CleanCell(h)
	}

	var rows []RawRow
	for _, record := range records[1:] {
		if isEmptyRow(record) {
			continue
		}
		raw := make(RawRow, len(headers))
		for i, h := range headers {
			if i < len(record) {
				raw[h] = CleanCell(record[i])
			}
		}
		rows = append(rows, raw)
	}

	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}

	return &ParsedFile{Headers: headers, Rows: rows}, nil
}

// CleanCell removes common CSV artifacts from a cell value: surrounding
// whitespace, Excel formula prefixes (="value"), and stray quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// isEmptyRow reports whether every cell is blank or whitespace-only.
func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// sanitizeUTF8 replaces invalid byte sequences with the Unicode replacement
// character so the csv reader never chokes on mixed encodings.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
