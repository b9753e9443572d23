package vault

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/boardmd/boardmd/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for path, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}
	return root
}

func TestDirHostListMarkdownOnly(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.md":         "## A\n",
		"notes.txt":    "not a board",
		"sub/b.md":     "## B\n",
		".hidden/c.md": "## C\n",
	})

	paths, err := NewDirHost(root).List(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.md", "sub/b.md"}, paths)
}

func TestDirHostWriteReadRoundtrip(t *testing.T) {
	root := writeTree(t, map[string]string{"a.md": "before\n"})
	h := NewDirHost(root)
	ctx := context.Background()

	require.NoError(t, h.WriteFile(ctx, "a.md", "after\n"))
	got, err := h.ReadFile(ctx, "a.md")
	require.NoError(t, err)
	assert.Equal(t, "after\n", got)

	// No temp file debris next to the target.
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestVaultLoadParses(t *testing.T) {
	root := writeTree(t, map[string]string{"board.md": "## Todo\n\n- [ ] task ^t1\n"})
	v := New(NewDirHost(root), settings.Default(), nil)

	b, eff, err := v.Load(context.Background(), "board.md")
	require.NoError(t, err)
	require.Len(t, b.Lanes, 1)
	assert.Equal(t, "Todo", b.Lanes[0].Title)
	assert.Equal(t, "Archive", eff.ArchiveLabel)
}

func TestVaultUpdateSerializesPerPath(t *testing.T) {
	root := writeTree(t, map[string]string{"board.md": ""})
	v := New(NewDirHost(root), settings.Default(), nil)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := v.Update(ctx, "board.md", func(text string) (string, error) {
				return text + fmt.Sprintf("- [ ] task %d\n", n), nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := v.Host.ReadFile(ctx, "board.md")
	require.NoError(t, err)
	assert.Equal(t, workers, strings.Count(got, "- [ ] task"),
		"every serialized update must land")
}

func TestVaultUpdateErrorAbortsWrite(t *testing.T) {
	root := writeTree(t, map[string]string{"board.md": "original\n"})
	v := New(NewDirHost(root), settings.Default(), nil)
	ctx := context.Background()

	err := v.Update(ctx, "board.md", func(string) (string, error) {
		return "clobbered", fmt.Errorf("boom")
	})
	require.Error(t, err)

	got, _ := v.Host.ReadFile(ctx, "board.md")
	assert.Equal(t, "original\n", got)
}

func TestScanParsesTree(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.md":     "## Todo\n\n- [ ] one ^a1\n",
		"sub/b.md": "## Done\n\n- [x] two ^b1\n",
	})
	v := New(NewDirHost(root), settings.Default(), nil)

	boards, err := v.Scan(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, boards, 2)

	total := 0
	for _, fb := range boards {
		total += len(fb.Board.AllCards())
	}
	assert.Equal(t, 2, total)
}

func TestScanStopsWhenNotAlive(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.md": "## A\n",
		"b.md": "## B\n",
		"c.md": "## C\n",
	})
	v := New(NewDirHost(root), settings.Default(), nil)

	calls := 0
	boards, err := v.Scan(context.Background(), func() bool {
		calls++
		return calls <= 1
	})
	require.NoError(t, err)
	assert.Len(t, boards, 1, "scan must stop between files once the caller is gone")
}

func TestScanCancelledContext(t *testing.T) {
	root := writeTree(t, map[string]string{"a.md": "## A\n"})
	v := New(NewDirHost(root), settings.Default(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := v.Scan(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
