package store

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"filehub/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaper_PrunesFinishedUploads(t *testing.T) {
	s := New(WithClock(func() time.Time { return epoch }), WithLogger(quietLogger()))
	defer s.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, a := range []Action{
		UpdateUploadProgress{Task: core.UploadTask{ID: "done", Progress: 10, Status: core.UploadUploading}},
		UpdateUploadProgress{Task: core.UploadTask{ID: "done", Status: core.UploadError, Error: "boom"}},
		UpdateUploadProgress{Task: core.UploadTask{ID: "busy", Progress: 10, Status: core.UploadUploading}},
	} {
		_, err := s.Dispatch(ctx, a)
		require.NoError(t, err)
	}

	r := NewReaper(s, time.Minute, 10*time.Millisecond, quietLogger())
	r.now = func() time.Time { return epoch.Add(time.Hour) }
	r.Start(ctx)

	assert.Eventually(t, func() bool {
		_, ok := s.State().Upload("done")
		return !ok
	}, time.Second, 10*time.Millisecond)

	_, ok := s.State().Upload("busy")
	assert.True(t, ok)

	cancel()
	r.Wait()
}

func TestReaper_StopsWhenStoreCloses(t *testing.T) {
	s := New(WithLogger(quietLogger()))
	r := NewReaper(s, time.Minute, 5*time.Millisecond, quietLogger())
	r.Start(context.Background())

	s.Close()

	done := make(chan struct{})
	go func() {
		r.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop after store closed")
	}
}

// failingDispatcher rejects every action with err.
type failingDispatcher struct{ err error }

func (d failingDispatcher) Dispatch(context.Context, Action) (State, error) {
	return State{}, d.err
}

func TestReaper_PrunesOnStart(t *testing.T) {
	s := New(WithClock(func() time.Time { return epoch }), WithLogger(quietLogger()))
	defer s.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := s.Dispatch(ctx, UpdateUploadProgress{Task: core.UploadTask{ID: "x", Status: core.UploadError}})
	require.NoError(t, err)

	r := NewReaper(s, time.Minute, time.Hour, quietLogger())
	r.now = func() time.Time { return epoch.Add(time.Hour) }
	r.Start(ctx)

	assert.Eventually(t, func() bool {
		_, ok := s.State().Upload("x")
		return !ok
	}, time.Second, 5*time.Millisecond)

	cancel()
	r.Wait()
}

func TestReaper_LogsThroughInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	logger := slog.New(slog.NewTextHandler(&lockedWriter{w: &buf, mu: &mu}, nil))

	ctx, cancel := context.WithCancel(context.Background())
	d := failingDispatcher{err: errors.New("disk on fire")}
	r := NewReaper(d, time.Minute, time.Hour, logger)
	r.Start(ctx)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return bytes.Contains(buf.Bytes(), []byte("disk on fire"))
	}, time.Second, 5*time.Millisecond)

	cancel()
	r.Wait()
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
