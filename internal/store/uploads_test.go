package store

import (
	"testing"
	"time"

	"filehub/internal/core"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func progress(id string, pct int) UpdateUploadProgress {
	return UpdateUploadProgress{Task: core.UploadTask{ID: id, FileName: id + ".bin", Progress: pct, Status: core.UploadUploading}}
}

func failed(id, msg string) UpdateUploadProgress {
	return UpdateUploadProgress{Task: core.UploadTask{ID: id, Status: core.UploadError, Error: msg}}
}

func TestUploadProgress(t *testing.T) {
	tests := []struct {
		name    string
		updates []int
		want    int
	}{
		{"clamps above", []int{150}, 100},
		{"clamps below", []int{-20}, 0},
		{"monotonic", []int{10, 60, 30}, 60},
		{"increasing", []int{5, 25, 75}, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestReducer()
			s := NewState(100)
			for _, p := range tt.updates {
				s = mustReduce(t, r, s, progress("t1", p))
			}
			task, ok := s.Upload("t1")
			require.True(t, ok)
			assert.Equal(t, tt.want, task.Progress)
			assert.Equal(t, core.UploadUploading, task.Status)
			assert.Equal(t, "t1.bin", task.FileName)
		})
	}
}

func TestUploadProgress_Validation(t *testing.T) {
	r := newTestReducer()
	s := NewState(100)

	_, err := r.Reduce(s, UpdateUploadProgress{Task: core.UploadTask{Status: core.UploadUploading}})
	require.ErrorIs(t, err, core.ErrInvalid)

	_, err = r.Reduce(s, UpdateUploadProgress{Task: core.UploadTask{ID: "t", Status: "paused"}})
	require.ErrorIs(t, err, core.ErrInvalid)
}

func TestUploadProgress_CompletedStatusIgnored(t *testing.T) {
	r := newTestReducer()
	s := mustReduce(t, r, NewState(100), progress("t1", 40))

	s = mustReduce(t, r, s, UpdateUploadProgress{Task: core.UploadTask{ID: "t1", Progress: 100, Status: core.UploadCompleted}})
	task, _ := s.Upload("t1")
	assert.Equal(t, core.UploadUploading, task.Status)
	assert.Equal(t, 40, task.Progress)
	assert.Equal(t, 0, s.Len())
}

func TestUploadProgress_TerminalIsFrozen(t *testing.T) {
	r := newTestReducer()
	s := mustReduce(t, r, NewState(100), progress("t1", 30), failed("t1", "connection reset"))

	task, _ := s.Upload("t1")
	assert.Equal(t, core.UploadError, task.Status)
	assert.Equal(t, "connection reset", task.Error)
	assert.Equal(t, 30, task.Progress)

	after := mustReduce(t, r, s, progress("t1", 90))
	assert.Empty(t, cmp.Diff(snap(s), snap(after)))
}

func TestCompleteUpload(t *testing.T) {
	r := newTestReducer()
	s := mustReduce(t, r, NewState(100),
		progress("t1", 20),
		CompleteUpload{TaskID: "t1", File: doc("f1", 12)},
	)

	task, _ := s.Upload("t1")
	assert.Equal(t, core.UploadCompleted, task.Status)
	assert.Equal(t, 100, task.Progress)
	_, ok := s.File("f1")
	assert.True(t, ok)
	assert.Equal(t, int64(12), s.Analytics().Used)

	t.Run("without prior progress", func(t *testing.T) {
		next := mustReduce(t, r, s, CompleteUpload{TaskID: "t2", File: doc("f2", 1)})
		task, ok := next.Upload("t2")
		require.True(t, ok)
		assert.Equal(t, core.UploadCompleted, task.Status)
		assert.Equal(t, "f2.txt", task.FileName)
	})

	t.Run("duplicate file leaves task running", func(t *testing.T) {
		running := mustReduce(t, r, s, progress("t3", 50))
		next, err := r.Reduce(running, CompleteUpload{TaskID: "t3", File: doc("f1", 5)})
		require.ErrorIs(t, err, core.ErrDuplicateID)
		assert.Empty(t, cmp.Diff(snap(running), snap(next)))
	})

	t.Run("already completed", func(t *testing.T) {
		_, err := r.Reduce(s, CompleteUpload{TaskID: "t1", File: doc("f9", 5)})
		require.ErrorIs(t, err, core.ErrInvalid)
	})

	t.Run("cancelled task does not create a file", func(t *testing.T) {
		cancelled := mustReduce(t, r, s, progress("t4", 10), CancelUpload{ID: "t4"})
		next, err := r.Reduce(cancelled, CompleteUpload{TaskID: "t4", File: doc("f4", 5)})
		require.Error(t, err)
		_, ok := next.File("f4")
		assert.False(t, ok)
	})
}

func TestCancelUpload(t *testing.T) {
	r := newTestReducer()
	s := mustReduce(t, r, NewState(100),
		progress("t1", 10),
		CancelUpload{ID: "t1"},
		CancelUpload{ID: "missing"},
	)
	task, _ := s.Upload("t1")
	assert.Equal(t, core.UploadCancelled, task.Status)
	assert.Len(t, s.Uploads(), 1)

	// a completed upload keeps its file
	s = mustReduce(t, r, s, CompleteUpload{TaskID: "t2", File: doc("f2", 3)}, CancelUpload{ID: "t2"})
	task, _ = s.Upload("t2")
	assert.Equal(t, core.UploadCompleted, task.Status)
	_, ok := s.File("f2")
	assert.True(t, ok)
}

func TestDismissUpload(t *testing.T) {
	r := newTestReducer()
	s := mustReduce(t, r, NewState(100), progress("t1", 10), progress("t2", 10), failed("t2", ""))

	s = mustReduce(t, r, s, DismissUpload{ID: "t1"})
	_, ok := s.Upload("t1")
	assert.True(t, ok, "in-flight uploads are not dismissed")

	s = mustReduce(t, r, s, DismissUpload{ID: "t2"})
	_, ok = s.Upload("t2")
	assert.False(t, ok)

	s = mustReduce(t, r, s, progress("t2", 80))
	_, ok = s.Upload("t2")
	assert.False(t, ok, "dismissed ids never come back")

	_, err := r.Reduce(s, CompleteUpload{TaskID: "t2", File: doc("late", 1)})
	require.ErrorIs(t, err, core.ErrInvalid)
}

func TestPruneUploads(t *testing.T) {
	r := newTestReducer()
	s := mustReduce(t, r, NewState(100),
		progress("old", 10),
		failed("old", "timeout"),
		progress("running", 50),
	)
	cutoff := epoch.Add(time.Hour)
	s = mustReduce(t, r, s, progress("fresh", 10), CancelUpload{ID: "fresh"})

	s = mustReduce(t, r, s, PruneUploads{Before: epoch.Add(3 * time.Second)})
	var ids []string
	for _, u := range s.Uploads() {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []string{"running", "fresh"}, ids)

	s = mustReduce(t, r, s, PruneUploads{Before: cutoff})
	require.Len(t, s.Uploads(), 1)
	assert.Equal(t, "running", s.Uploads()[0].ID)
}
