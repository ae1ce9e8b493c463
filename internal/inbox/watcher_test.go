package inbox_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/lending/internal/catalog"
	"github.com/starford/lending/internal/inbox"
	"github.com/starford/lending/internal/models"
	"github.com/starford/lending/internal/testutil"
)

func TestWatch_ImportsNewAndNestedCards(t *testing.T) {
	cat := catalog.New(testutil.TestDB(t))
	dir, fs := testutil.TestInbox(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	paths := map[string]catalog.CardOutcome{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = inbox.Watch(ctx, cat, fs, dir, discard(), func(_ models.ItemID, p string, o catalog.CardOutcome) {
			mu.Lock()
			paths[p] = o
			mu.Unlock()
		})
	}()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "solaris.md"),
		[]byte("---\ntitle: Solaris\nauthor: Stanisław Lem\n---\n"), 0o644))

	sub := filepath.Join(dir, "new-shelf")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "eden.md"),
		[]byte("---\ntitle: Eden\nauthor: Stanisław Lem\n---\n"), 0o644))

	assert.Eventually(t, func() bool {
		items, err := cat.FindAvailable(context.Background(), models.ItemFilter{Author: "lem"})
		return err == nil && len(items) == 2
	}, 5*time.Second, 50*time.Millisecond, "cards not imported by watcher")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		_, a := paths["solaris.md"]
		_, b := paths["new-shelf/eden.md"]
		return a && b
	}, 2*time.Second, 50*time.Millisecond, "callbacks not fired")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatch_RemovedCardKeepsItem(t *testing.T) {
	ctx := context.Background()
	cat := catalog.New(testutil.TestDB(t))
	dir, fs := testutil.TestInbox(t)

	require.NoError(t, fs.Write("gone.md", []byte("---\ntitle: Gone\nauthor: A\n---\n")))
	_, err := inbox.Sync(ctx, cat, fs, discard(), nil)
	require.NoError(t, err)

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = inbox.Watch(wctx, cat, fs, dir, discard(), nil) }()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.Remove(filepath.Join(dir, "gone.md")))
	time.Sleep(300 * time.Millisecond)

	items, err := cat.FindAvailable(ctx, models.ItemFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
