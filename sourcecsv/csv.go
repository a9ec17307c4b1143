package sourcecsv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hackmonkey/praline-config"
)

// DefaultKeyDelimiter joins key field values when Options.Delimiter is empty.
const DefaultKeyDelimiter = ","

// Options configures the CSV source.
type Options struct {
	// Root nests the table under this key. Empty puts rows at the top level.
	Root string

	// KeyFields are the columns whose values, joined, key each row. Required.
	KeyFields []string

	// Delimiter joins key field values (default ",").
	Delimiter string

	// Required: if true, a missing file is an error. Default: false (empty map).
	Required bool
}

type csvSource struct {
	path string
	opts Options
}

// New creates a source reading a CSV table with a header row. Each row
// becomes a mapping of column name to cell text, keyed by its key fields.
func New(path string, opts Options) praline.Source {
	return &csvSource{path: path, opts: opts}
}

func (c *csvSource) Load(ctx context.Context) (map[string]any, error) {
	f, err := os.Open(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !c.opts.Required {
			return make(map[string]any), nil
		}
		return nil, fmt.Errorf("open csv file %s: %w", c.path, err)
	}
	defer f.Close()

	rows, err := NestedDict(f, c.opts.KeyFields, c.opts.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("parse csv file %s: %w", c.path, err)
	}

	table := make(map[string]any, len(rows))
	for key, row := range rows {
		record := make(map[string]any, len(row))
		for column, cell := range row {
			record[column] = cell
		}
		table[key] = record
	}

	if c.opts.Root == "" {
		return table, nil
	}
	return map[string]any{c.opts.Root: table}, nil
}

func (c *csvSource) Watch(ctx context.Context) (<-chan praline.ChangeEvent, error) {
	return nil, praline.ErrWatchNotSupported
}

func (c *csvSource) Name() string {
	return "csv:" + filepath.Base(c.path)
}

// NestedDict reads a CSV table with a header row and keys every row by the
// values of keyFields joined with delimiter ("," when empty). Later rows
// replace earlier rows with the same key.
func NestedDict(r io.Reader, keyFields []string, delimiter string) (map[string]map[string]string, error) {
	if len(keyFields) == 0 {
		return nil, errors.New("no key fields")
	}
	if delimiter == "" {
		delimiter = DefaultKeyDelimiter
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return make(map[string]map[string]string), nil
	}
	if err != nil {
		return nil, err
	}

	for _, field := range keyFields {
		if !contains(header, field) {
			return nil, fmt.Errorf("key field %q not in header", field)
		}
	}

	out := make(map[string]map[string]string)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		row := make(map[string]string, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = record[i]
			} else {
				row[column] = ""
			}
		}

		parts := make([]string, len(keyFields))
		for i, field := range keyFields {
			parts[i] = row[field]
		}
		out[strings.Join(parts, delimiter)] = row
	}
	return out, nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
