package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestFileWatcher_DetectsWrites(t *testing.T) {
	tmpDir := t.TempDir()
	watched := filepath.Join(tmpDir, "module.yaml")
	other := filepath.Join(tmpDir, "other.yaml")
	require.NoError(t, os.WriteFile(watched, []byte("name: a\n"), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("name: b\n"), 0o644))

	var mu sync.Mutex
	var changes [][]string

	watcher, err := NewFileWatcher([]string{watched}, 50*time.Millisecond, zaptest.NewLogger(t), func(files []string) error {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, files)
		return nil
	})
	require.NoError(t, err)
	defer watcher.Stop()

	require.NoError(t, watcher.Start())

	// Allow watcher to initialize
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(other, []byte("name: b2\n"), 0o644))
	require.NoError(t, os.WriteFile(watched, []byte("name: a2\n"), 0o644))

	abs, err := filepath.Abs(watched)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changes) > 0
	}, 2*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, batch := range changes {
		assert.Equal(t, []string{abs}, batch, "only the watched file is reported")
	}
}

func TestFileWatcher_Matches(t *testing.T) {
	tmpDir := t.TempDir()
	a := filepath.Join(tmpDir, "a.yaml")
	b := filepath.Join(tmpDir, "sub", "b.yaml")

	watcher, err := NewFileWatcher([]string{a, b}, DefaultDebounce, nil, func([]string) error { return nil })
	require.NoError(t, err)
	defer watcher.Stop()

	assert.True(t, watcher.matches(a))
	assert.True(t, watcher.matches(b))
	assert.False(t, watcher.matches(filepath.Join(tmpDir, "c.yaml")))

	assert.Equal(t, []string{tmpDir, filepath.Join(tmpDir, "sub")}, watcher.directories())
}

func TestFileWatcher_Stop(t *testing.T) {
	watched := filepath.Join(t.TempDir(), "module.yaml")
	watcher, err := NewFileWatcher([]string{watched}, DefaultDebounce, nil, func([]string) error { return nil })
	require.NoError(t, err)

	require.NoError(t, watcher.Start())
	assert.NoError(t, watcher.Stop())

	// Second stop should not panic
	assert.NotPanics(t, func() { _ = watcher.Stop() })
}

func TestFileWatcher_StartMissingDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope", "module.yaml")
	watcher, err := NewFileWatcher([]string{missing}, DefaultDebounce, nil, func([]string) error { return nil })
	require.NoError(t, err)
	defer watcher.Stop()

	assert.ErrorContains(t, watcher.Start(), "failed to watch directory")
}

func TestDebouncer_Add(t *testing.T) {
	var mu sync.Mutex
	var calls [][]string

	debouncer := NewDebouncer(50 * time.Millisecond)
	debouncer.SetCallback(func(f []string) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, f)
	})

	debouncer.Add("b.yaml")
	debouncer.Add("a.yaml")
	debouncer.Add("b.yaml") // Duplicate

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, calls[0])
}

func TestDebouncer_MultipleFlushes(t *testing.T) {
	var mu sync.Mutex
	var callCount int

	debouncer := NewDebouncer(20 * time.Millisecond)
	debouncer.SetCallback(func([]string) {
		mu.Lock()
		defer mu.Unlock()
		callCount++
	})

	debouncer.Add("a.yaml")
	time.Sleep(100 * time.Millisecond)
	debouncer.Add("b.yaml")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return callCount == 2
	}, time.Second, 10*time.Millisecond)
}

func TestDebouncer_StopDropsPending(t *testing.T) {
	called := make(chan struct{}, 1)
	debouncer := NewDebouncer(20 * time.Millisecond)
	debouncer.SetCallback(func([]string) { called <- struct{}{} })

	debouncer.Add("a.yaml")
	debouncer.Stop()
	debouncer.Add("b.yaml")

	select {
	case <-called:
		t.Fatal("callback ran after Stop")
	case <-time.After(100 * time.Millisecond):
	}
}

func BenchmarkDebouncer_Add(b *testing.B) {
	debouncer := NewDebouncer(100 * time.Millisecond)
	debouncer.SetCallback(func([]string) {})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		debouncer.Add("module.yaml")
	}
}
