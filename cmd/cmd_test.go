package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmorganca/subword/model"
	"github.com/jmorganca/subword/server"
	"github.com/jmorganca/subword/tokenizer"
)

const lowCorpus = "low low low low low lowest lowest newer newer newer newer newer newer wider wider wider new new"

const lowMerges = `#subword v1 marker=_
e r
er _
n e
ne w
l o
lo w
new er_
low _
w i
wi d
`

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cli := NewCLI()
	cli.SetArgs(args)
	cli.SetIn(strings.NewReader(stdin))
	cli.SetOut(&stdout)
	cli.SetErr(&stderr)

	err := cli.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestTrainHandler(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		stdout, _, err := run(t, "", "train", "--text", lowCorpus, "-n", "10", "--marker", "_")
		require.NoError(t, err)
		if diff := cmp.Diff(lowMerges, stdout); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("stdin", func(t *testing.T) {
		stdout, _, err := run(t, lowCorpus+"\n", "train", "-n", "10", "--marker", "_")
		require.NoError(t, err)
		assert.Equal(t, lowMerges, stdout)
	})

	t.Run("verbose", func(t *testing.T) {
		_, stderr, err := run(t, "", "train", "--text", lowCorpus, "-n", "2", "--marker", "_", "--verbose")
		require.NoError(t, err)
		assert.Contains(t, stderr, "ROUND")
		assert.Contains(t, stderr, "er_")
	})

	t.Run("negative rounds", func(t *testing.T) {
		_, _, err := run(t, "", "train", "--text", lowCorpus, "-n", "-1")
		assert.True(t, errors.Is(err, tokenizer.ErrInvalidConfiguration), err)
	})

	t.Run("whitespace marker", func(t *testing.T) {
		output := filepath.Join(t.TempDir(), "merges.txt")
		_, _, err := run(t, "", "train", "--text", lowCorpus, "--marker", " ", "-o", output)
		assert.True(t, errors.Is(err, tokenizer.ErrInvalidConfiguration), err)
		assert.NoFileExists(t, output)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := run(t, "", "train", filepath.Join(t.TempDir(), "missing.txt"))
		assert.True(t, errors.Is(err, os.ErrNotExist), err)
	})
}

func TestTrainAndSegmentFiles(t *testing.T) {
	dir := t.TempDir()

	corpus := filepath.Join(dir, "corpus.txt.gz")
	w, err := model.Create(corpus)
	require.NoError(t, err)
	_, err = w.Write([]byte(lowCorpus))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	merges := filepath.Join(dir, "merges.json.zst")
	_, stderr, err := run(t, "", "train", corpus, "-n", "10", "--marker", "_", "-o", merges)
	require.NoError(t, err)
	assert.Contains(t, stderr, "wrote 10 merges")

	stdout, _, err := run(t, "", "segment", "-m", merges, "lowest", "newer", "wider")
	require.NoError(t, err)
	assert.Equal(t, "low e s t _\nnewer_\nwid er_\n", stdout)

	stdout, _, err = run(t, "widest\n", "segment", "-m", merges)
	require.NoError(t, err)
	assert.Equal(t, "wid e s t _\n", stdout)

	_, _, err = run(t, "", "segment", "-m", merges)
	assert.EqualError(t, err, "no words to segment")
}

func TestSegmentHost(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m, err := model.ReadModel(strings.NewReader(lowMerges))
	require.NoError(t, err)

	ts := httptest.NewServer(server.NewServer(m).GenerateRoutes())
	defer ts.Close()

	stdout, _, err := run(t, "", "segment", "-m", "", "--host", ts.URL, "lowest", "new")
	require.NoError(t, err)
	assert.Equal(t, "low e s t _\nnew _\n", stdout)

	empty := httptest.NewServer(server.NewServer(nil).GenerateRoutes())
	defer empty.Close()

	_, _, err = run(t, "", "segment", "-m", "", "--host", strings.TrimPrefix(empty.URL, "http://"), "low")
	assert.ErrorContains(t, err, "no model loaded")
}

func TestVocabHandler(t *testing.T) {
	stdout, _, err := run(t, "", "vocab", "--text", lowCorpus, "-n", "2", "--top", "2", "--marker", "_", "--symbols")
	require.NoError(t, err)

	assert.Contains(t, stdout, "CANDIDATES")
	assert.Contains(t, stdout, "e+r=9 r+_=9")
	assert.Contains(t, stdout, "er+_=9")
	assert.Contains(t, stdout, "SYMBOL")
	assert.Contains(t, stdout, "er_")
}

func TestVocabSymbolsJSON(t *testing.T) {
	stdout, _, err := run(t, "", "vocab", "--text", lowCorpus, "-n", "2", "--marker", "_", "--symbols", "--json")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "SYMBOL")

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	last := lines[len(lines)-1]
	assert.True(t, strings.HasPrefix(last, `{"l":7,"o":7,`), last)
	assert.Contains(t, last, `"er_":9`)

	var counts map[string]int
	require.NoError(t, json.Unmarshal([]byte(last), &counts))
	assert.Equal(t, 9, counts["er_"])
}

func TestServeHelp(t *testing.T) {
	stdout, _, err := run(t, "", "serve", "--help")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Environment Variables:")
	assert.Contains(t, stdout, "SUBWORD_HOST")
	assert.Contains(t, stdout, "SUBWORD_ROUNDS")
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("SUBWORD_DOTENV_TEST", "")
	os.Unsetenv("SUBWORD_DOTENV_TEST")

	require.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SUBWORD_DOTENV_TEST=42\n"), 0o600))
	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "42", os.Getenv("SUBWORD_DOTENV_TEST"))

	require.NoError(t, os.WriteFile(path, []byte("SUBWORD_DOTENV_TEST=43\n"), 0o600))
	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "42", os.Getenv("SUBWORD_DOTENV_TEST"), "existing variables win")
}
