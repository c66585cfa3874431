package analytics

import (
	"fmt"
	"testing"
	"time"

	"filehub/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func file(id string, kind core.Kind, size int64, shared bool) core.File {
	return core.File{ID: id, Name: id, Kind: kind, Size: size, Shared: shared, Access: core.AccessPrivate}
}

func TestNew_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, New(0).Capacity)
	assert.Equal(t, DefaultCapacity, New(-10).Capacity)
	assert.Equal(t, int64(100), New(100).Capacity)
}

func TestAddRemove_TracksTotals(t *testing.T) {
	a := New(100)
	a = a.Add(file("a", core.KindImage, 10, false))
	a = a.Add(file("b", core.KindImage, 15, true))

	assert.Equal(t, int64(25), a.Used)
	assert.Equal(t, 2, a.Files)
	assert.Equal(t, 1, a.SharedFiles)
	assert.Equal(t, Usage{Files: 2, Bytes: 25}, a.ByKind()[core.KindImage])
	assert.Equal(t, int64(75), a.Free())
	assert.InDelta(t, 25.0, a.UsagePercent(), 0.0001)

	a = a.Remove(file("a", core.KindImage, 10, false))
	assert.Equal(t, int64(15), a.Used)
	assert.Equal(t, 1, a.Files)

	a = a.Remove(file("b", core.KindImage, 15, true))
	assert.Equal(t, int64(0), a.Used)
	assert.Equal(t, 0, a.SharedFiles)
	_, ok := a.ByKind()[core.KindImage]
	assert.False(t, ok, "empty kinds are dropped")
}

func TestAdd_DoesNotMutateReceiver(t *testing.T) {
	base := New(100).Add(file("a", core.KindVideo, 10, false))
	next := base.Add(file("b", core.KindVideo, 20, false))

	assert.Equal(t, int64(10), base.Used)
	assert.Equal(t, Usage{Files: 1, Bytes: 10}, base.ByKind()[core.KindVideo])
	assert.Equal(t, Usage{Files: 2, Bytes: 30}, next.ByKind()[core.KindVideo])
}

func TestReplace_SharedAndSize(t *testing.T) {
	before := file("a", core.KindDocument, 10, false)
	after := before
	after.Shared = true
	after.Size = 12

	a := New(100).Add(before).Replace(before, after)
	assert.Equal(t, int64(12), a.Used)
	assert.Equal(t, 1, a.Files)
	assert.Equal(t, 1, a.SharedFiles)

	same := a.Replace(after, after)
	assert.Equal(t, a.Used, same.Used)
}

func TestRecompute_MatchesIncremental(t *testing.T) {
	files := []core.File{
		file("a", core.KindImage, 10, true),
		file("b", core.KindAudio, 7, false),
		file("c", core.KindImage, 3, false),
	}

	inc := New(100)
	for _, f := range files {
		inc = inc.Add(f)
	}
	bulk := New(100).Add(file("stale", core.KindOther, 999, true)).Recompute(files)

	assert.Equal(t, inc.Used, bulk.Used)
	assert.Equal(t, inc.Files, bulk.Files)
	assert.Equal(t, inc.SharedFiles, bulk.SharedFiles)
	assert.Equal(t, inc.ByKind(), bulk.ByKind())
}

func TestWithFolders(t *testing.T) {
	a := New(100).Add(file("a", core.KindImage, 1, true)).WithFolders([]core.Folder{
		{ID: "d1", Shared: true, Access: core.AccessEdit},
		{ID: "d2", Access: core.AccessView},
	})
	assert.Equal(t, 2, a.Folders)
	assert.Equal(t, 1, a.SharedFolders)
	assert.Equal(t, 2, a.SharedItems())
}

func TestLog_BoundedNewestFirst(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := New(100)
	for i := 0; i < LogLimit+15; i++ {
		a = a.Record(Activity{Kind: ActivityUpload, FileID: fmt.Sprintf("f%d", i), At: start.Add(time.Duration(i) * time.Minute)})
	}

	entries := a.Activity()
	require.Len(t, entries, LogLimit)
	assert.Equal(t, fmt.Sprintf("f%d", LogLimit+14), entries[0].FileID)
	assert.Equal(t, "f15", entries[LogLimit-1].FileID)
	for i := 1; i < len(entries); i++ {
		assert.True(t, entries[i-1].At.After(entries[i].At))
	}
}

func TestLog_PushKeepsPreviousValue(t *testing.T) {
	var l Log
	l1 := l.Push(Activity{FileID: "a"})
	l2 := l1.Push(Activity{FileID: "b"})

	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 1, l1.Len())
	assert.Equal(t, "a", l1.Entries()[0].FileID)
	assert.Equal(t, "b", l2.Entries()[0].FileID)
}

func TestSnapshot(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := New(200).Add(file("a", core.KindArchive, 50, false)).Snapshot(at)

	assert.Equal(t, int64(150), s.Free)
	assert.InDelta(t, 25.0, s.UsagePercent, 0.0001)
	assert.Equal(t, 1, s.Files)
	assert.Equal(t, int64(50), s.AvgSize)
	assert.Equal(t, at, s.TakenAt)
}

func TestAvgSize(t *testing.T) {
	a := New(0)
	assert.Equal(t, int64(0), a.AvgSize())

	a = a.Add(file("a", core.KindImage, 10, false)).Add(file("b", core.KindImage, 21, false))
	assert.Equal(t, int64(15), a.AvgSize())

	a = a.Remove(file("a", core.KindImage, 10, false))
	assert.Equal(t, int64(21), a.AvgSize())
}
