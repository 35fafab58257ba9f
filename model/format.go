package model

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/jmorganca/subword/tokenizer"
)

const textMagic = "#subword"

// WriteTo writes the model as text: a header line followed by one
// "left right" rule per line in learned order.
func (m *Model) WriteTo(w io.Writer) (int64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}

	bw := bufio.NewWriter(w)
	var n int64
	c, err := fmt.Fprintf(bw, "%s v1 marker=%s\n", textMagic, m.Marker)
	n += int64(c)
	if err != nil {
		return n, err
	}

	for _, pair := range m.Merges {
		c, err := fmt.Fprintf(bw, "%s %s\n", pair.Left, pair.Right)
		n += int64(c)
		if err != nil {
			return n, err
		}
	}

	return n, bw.Flush()
}

// ReadModel reads the text format. The header is optional; without it the
// default marker is assumed.
func ReadModel(r io.Reader) (*Model, error) {
	m := New(nil, tokenizer.DefaultMarker)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var line, nonEmpty int
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		// only the first non-empty line may be a header
		nonEmpty++
		switch {
		case nonEmpty == 1 && len(fields) == 3 && fields[0] == textMagic:
			if fields[1] != "v1" {
				return nil, fmt.Errorf("%w: unsupported version %q", ErrMalformed, fields[1])
			}

			marker, ok := strings.CutPrefix(fields[2], "marker=")
			if !ok || marker == "" {
				return nil, fmt.Errorf("%w: line %d: bad header", ErrMalformed, line)
			}
			m.Marker = marker
		case len(fields) == 2:
			m.Merges = append(m.Merges, tokenizer.Pair{Left: fields[0], Right: fields[1]})
		default:
			return nil, fmt.Errorf("%w: line %d: expected 2 symbols, got %d", ErrMalformed, line, len(fields))
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return m, nil
}

type jsonModel struct {
	Marker string      `json:"marker"`
	Merges [][2]string `json:"merges"`
}

func (m *Model) MarshalJSON() ([]byte, error) {
	merges := make([][2]string, len(m.Merges))
	for i, pair := range m.Merges {
		merges[i] = [2]string{pair.Left, pair.Right}
	}

	return json.Marshal(jsonModel{Marker: m.Marker, Merges: merges})
}

func (m *Model) UnmarshalJSON(b []byte) error {
	var jm jsonModel
	if err := json.Unmarshal(b, &jm); err != nil {
		return err
	}

	m.Marker = jm.Marker
	if m.Marker == "" {
		m.Marker = tokenizer.DefaultMarker
	}

	m.Merges = make(tokenizer.Merges, len(jm.Merges))
	for i, pair := range jm.Merges {
		m.Merges[i] = tokenizer.Pair{Left: pair[0], Right: pair[1]}
	}

	return m.Validate()
}

// Save writes the model to path. Paths ending in .json are written as JSON,
// anything else as text; a trailing .gz or .zst compresses the file.
func (m *Model) Save(path string) error {
	if err := m.Validate(); err != nil {
		return err
	}

	w, err := Create(path)
	if err != nil {
		return err
	}

	if isJSON(path) {
		err = json.NewEncoder(w).Encode(m)
	} else {
		_, err = m.WriteTo(w)
	}

	if cerr := w.Close(); err == nil {
		err = cerr
	}

	return err
}

func Load(path string) (*Model, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if isJSON(path) {
		var m Model
		if err := json.NewDecoder(r).Decode(&m); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &m, nil
	}

	m, err := ReadModel(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return m, nil
}

func isJSON(path string) bool {
	ext := filepath.Ext(path)
	switch ext {
	case ".gz", ".zst":
		ext = filepath.Ext(strings.TrimSuffix(path, ext))
	}

	return ext == ".json"
}

// Open opens path for reading, decompressing .gz and .zst files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch filepath.Ext(path) {
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &readCloser{Reader: gz, close: func() error { gz.Close(); return f.Close() }}, nil
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &readCloser{Reader: zr, close: func() error { zr.Close(); return f.Close() }}, nil
	default:
		return f, nil
	}
}

// Create creates path for writing, compressing .gz and .zst files.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	switch filepath.Ext(path) {
	case ".gz":
		gz := gzip.NewWriter(f)
		return &writeCloser{Writer: gz, close: func() error { return closeBoth(gz, f) }}, nil
	case ".zst":
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &writeCloser{Writer: zw, close: func() error { return closeBoth(zw, f) }}, nil
	default:
		return f, nil
	}
}

func closeBoth(inner io.Closer, f *os.File) error {
	err := inner.Close()
	if ferr := f.Close(); err == nil {
		err = ferr
	}

	return err
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r *readCloser) Close() error {
	return r.close()
}

type writeCloser struct {
	io.Writer
	close func() error
}

func (w *writeCloser) Close() error {
	return w.close()
}
