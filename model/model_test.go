package model

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmorganca/subword/tokenizer"
)

func trained(t *testing.T) *Model {
	t.Helper()
	merges, err := tokenizer.Train(context.Background(),
		"low low low low low lowest lowest newer newer newer newer newer newer wider wider wider new new",
		tokenizer.Config{Rounds: 10, Marker: "_"})
	require.NoError(t, err)
	return New(merges, "_")
}

func TestWriteTo(t *testing.T) {
	m := New(tokenizer.Merges{{Left: "e", Right: "r"}, {Left: "er", Right: "_"}}, "_")

	var b bytes.Buffer
	n, err := m.WriteTo(&b)
	require.NoError(t, err)
	assert.Equal(t, int64(b.Len()), n)

	if diff := cmp.Diff("#subword v1 marker=_\ne r\ner _\n", b.String()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestReadModel(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		marker string
		merges tokenizer.Merges
		err    error
	}{
		{"header", "#subword v1 marker=</w>\ne r\ner </w>\n", "</w>", tokenizer.Merges{{Left: "e", Right: "r"}, {Left: "er", Right: "</w>"}}, nil},
		{"no header", "l o\n\nlo w\n", "_", tokenizer.Merges{{Left: "l", Right: "o"}, {Left: "lo", Right: "w"}}, nil},
		{"hash symbol", "#subword v1 marker=_\n# a\n", "_", tokenizer.Merges{{Left: "#", Right: "a"}}, nil},
		{"blank lines before header", "\n  \n#subword v1 marker=</w>\ne r\n", "</w>", tokenizer.Merges{{Left: "e", Right: "r"}}, nil},
		{"header after rule", "e r\n#subword v1 marker=</w>\n", "", nil, ErrMalformed},
		{"empty", "", "_", nil, nil},
		{"three fields", "a b c\n", "", nil, ErrMalformed},
		{"one field", "ab\n", "", nil, ErrMalformed},
		{"bad version", "#subword v9 marker=_\n", "", nil, ErrMalformed},
		{"bad header", "#subword v1 mark=_\n", "", nil, ErrMalformed},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ReadModel(strings.NewReader(tt.input))
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.marker, m.Marker)
			if diff := cmp.Diff(tt.merges, m.Merges); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestJSON(t *testing.T) {
	m := New(tokenizer.Merges{{Left: "n", Right: "e"}, {Left: "ne", Right: "w"}}, "_")

	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"marker":"_","merges":[["n","e"],["ne","w"]]}`, string(b))

	var decoded Model
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, m.Merges, decoded.Merges)
	assert.Equal(t, "_", decoded.Marker)

	require.ErrorIs(t, json.Unmarshal([]byte(`{"merges":[["a b","c"]]}`), &decoded), ErrMalformed)
	require.ErrorIs(t, json.Unmarshal([]byte(`{"marker":" ","merges":[]}`), &decoded), ErrInvalidMarker)
}

func TestSaveLoad(t *testing.T) {
	m := trained(t)

	for _, name := range []string{"merges.txt", "merges.json", "merges.txt.gz", "merges.json.zst", "merges"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, m.Save(path))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, m.Marker, loaded.Marker)
			if diff := cmp.Diff(m.Merges, loaded.Merges); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}

			assert.Equal(t, []string{"low", "e", "s", "t", "_"}, loaded.Segmenter().Segment("lowest"))
		})
	}
}

func TestSaveCompressed(t *testing.T) {
	m := trained(t)
	dir := t.TempDir()

	require.NoError(t, m.Save(filepath.Join(dir, "merges.txt.zst")))
	raw, err := os.ReadFile(filepath.Join(dir, "merges.txt.zst"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, raw[:4], "zstd magic")

	require.NoError(t, m.Save(filepath.Join(dir, "merges.txt.gz")))
	raw, err = os.ReadFile(filepath.Join(dir, "merges.txt.gz"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1f, 0x8b}, raw[:2], "gzip magic")
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("a b c\n"), 0o600))
	_, err = Load(bad)
	require.ErrorIs(t, err, ErrMalformed)

	notgz := filepath.Join(dir, "plain.txt.gz")
	require.NoError(t, os.WriteFile(notgz, []byte("a b\n"), 0o600))
	_, err = Load(notgz)
	require.Error(t, err)

	require.ErrorIs(t, New(nil, "a b").Save(filepath.Join(dir, "x.txt")), ErrInvalidMarker)
}

func TestRank(t *testing.T) {
	m := trained(t)
	assert.Equal(t, 0, m.Rank("e", "r"))
	assert.Equal(t, 9, m.Rank("wi", "d"))
	assert.Equal(t, -1, m.Rank("r", "e"))

	m = New(tokenizer.Merges{{Left: "a", Right: "b"}, {Left: "c", Right: "d"}, {Left: "a", Right: "b"}}, "")
	assert.Equal(t, 0, m.Rank("a", "b"))
	assert.Equal(t, "_", m.Marker)
}

func TestRankAfterAppend(t *testing.T) {
	m := New(tokenizer.Merges{{Left: "a", Right: "b"}}, "_")
	assert.Equal(t, -1, m.Rank("ab", "c"))

	m.Merges = append(m.Merges, tokenizer.Pair{Left: "ab", Right: "c"}, tokenizer.Pair{Left: "a", Right: "b"})
	assert.Equal(t, 1, m.Rank("ab", "c"))
	assert.Equal(t, 0, m.Rank("a", "b"))

	m.Merges = tokenizer.Merges{{Left: "x", Right: "y"}}
	assert.Equal(t, 0, m.Rank("x", "y"))
	assert.Equal(t, -1, m.Rank("ab", "c"))
}

func TestSymbols(t *testing.T) {
	m := trained(t)
	assert.Equal(t, []string{"er", "er_", "ne", "new", "lo", "low", "newer_", "low_", "wi", "wid"}, m.Symbols())
}
