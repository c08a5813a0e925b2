package internal

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactKeys(t *testing.T) {
	assert.Equal(t, "abc123.mp3", AudioKey("abc123"))
	assert.Equal(t, "abc123_full.mp4", MasterKey("abc123"))
	assert.Equal(t, "abc123_clip_10_25.mp4", ClipKey("abc123", 10, 25))
}

func TestMediaStoreEnsureProducesOnce(t *testing.T) {
	store := NewMediaStore(t.TempDir())

	var calls int32
	produce := func(ctx context.Context, dst string) error {
		atomic.AddInt32(&calls, 1)
		return os.WriteFile(dst, []byte("payload"), 0644)
	}

	path, err := store.Ensure(context.Background(), "a.mp3", produce)
	require.NoError(t, err)
	assert.Equal(t, store.Path("a.mp3"), path)
	assert.True(t, store.Exists("a.mp3"))

	// Cached artifact, producer must not run again.
	path2, err := store.Ensure(context.Background(), "a.mp3", produce)
	require.NoError(t, err)
	assert.Equal(t, path, path2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMediaStoreEnsureStagesWrites(t *testing.T) {
	store := NewMediaStore(t.TempDir())

	final := store.Path("b.mp4")
	_, err := store.Ensure(context.Background(), "b.mp4", func(ctx context.Context, dst string) error {
		assert.NotEqual(t, final, dst)
		assert.False(t, FileExists(final), "final path visible before producer finished")
		return os.WriteFile(dst, []byte("video"), 0644)
	})
	require.NoError(t, err)

	data, err := os.ReadFile(final)
	require.NoError(t, err)
	assert.Equal(t, "video", string(data))
}

func TestMediaStoreEnsureProducerFailure(t *testing.T) {
	store := NewMediaStore(t.TempDir())

	boom := errors.New("download blew up")
	_, err := store.Ensure(context.Background(), "c.mp4", func(ctx context.Context, dst string) error {
		_ = os.WriteFile(dst, []byte("partial"), 0644)
		return boom
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.False(t, store.Exists("c.mp4"), "failed producer must not publish an artifact")

	// A later attempt can still succeed.
	_, err = store.Ensure(context.Background(), "c.mp4", func(ctx context.Context, dst string) error {
		return os.WriteFile(dst, []byte("complete"), 0644)
	})
	require.NoError(t, err)
	assert.True(t, store.Exists("c.mp4"))
}

func TestMediaStoreEnsureCollapsesConcurrentCalls(t *testing.T) {
	store := NewMediaStore(t.TempDir())

	var calls int32
	produce := func(ctx context.Context, dst string) error {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		return os.WriteFile(dst, []byte("payload"), 0644)
	}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			path, err := store.Ensure(context.Background(), "d.mp4", produce)
			assert.NoError(t, err)
			assert.Equal(t, store.Path("d.mp4"), path)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMediaStoreRemove(t *testing.T) {
	store := NewMediaStore(t.TempDir())

	_, err := store.Ensure(context.Background(), "e.mp3", func(ctx context.Context, dst string) error {
		return os.WriteFile(dst, []byte("audio"), 0644)
	})
	require.NoError(t, err)

	require.NoError(t, store.Remove("e.mp3"))
	assert.False(t, store.Exists("e.mp3"))

	// Removing a missing artifact is not an error.
	assert.NoError(t, store.Remove("e.mp3"))
}
