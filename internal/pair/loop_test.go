package pair

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filepair/filepair/internal/watch"
)

// reconciledPair sets up a converged pair with held digests, ready for loop
// tests driven by synthetic batches.
func reconciledPair(t *testing.T, content string) (*TrackedFile, *TrackedFile) {
	t.Helper()

	a, b := writePair(t, content, content)
	_, err := Reconcile(a, b, false)
	require.NoError(t, err)
	return a, b
}

func TestSyncLoop_PropagatesAtoB(t *testing.T) {
	a, b := reconciledPair(t, "initial")
	loop := NewSyncLoop(a, b, nil)

	require.NoError(t, os.WriteFile(a.Path, []byte("new content X"), 0644))
	loop.handleBatch(watch.Batch{{Path: a.Path, Kind: watch.KindModify}})

	assert.Equal(t, "new content X", readContent(t, b.Path))

	// b's held digest equals the digest of the new content
	want, err := Digest(a.Path)
	require.NoError(t, err)
	assert.True(t, b.Digest().Equal(want))
}

func TestSyncLoop_PropagatesBtoA(t *testing.T) {
	a, b := reconciledPair(t, "initial")
	loop := NewSyncLoop(a, b, nil)

	require.NoError(t, os.WriteFile(b.Path, []byte("edited on b"), 0644))
	loop.handleBatch(watch.Batch{{Path: b.Path, Kind: watch.KindModify}})

	assert.Equal(t, "edited on b", readContent(t, a.Path))
}

func TestSyncLoop_SuppressesEcho(t *testing.T) {
	a, b := reconciledPair(t, "initial")
	loop := NewSyncLoop(a, b, nil)

	// a genuine edit on a propagates to b
	require.NoError(t, os.WriteFile(a.Path, []byte("edit"), 0644))
	loop.handleBatch(watch.Batch{{Path: a.Path, Kind: watch.KindModify}})
	require.Equal(t, "edit", readContent(t, b.Path))

	// the write onto b produces an event carrying identical content; it must
	// not bounce back onto a
	digestBefore := a.Digest()
	infoBefore, err := os.Stat(a.Path)
	require.NoError(t, err)

	loop.handleBatch(watch.Batch{{Path: b.Path, Kind: watch.KindModify}})

	infoAfter, err := os.Stat(a.Path)
	require.NoError(t, err)
	assert.Equal(t, infoBefore.ModTime(), infoAfter.ModTime(), "a must not be rewritten by the echo")
	assert.True(t, a.Digest().Equal(digestBefore))
}

func TestSyncLoop_IgnoresAccessEvents(t *testing.T) {
	a, b := reconciledPair(t, "initial")
	loop := NewSyncLoop(a, b, nil)

	// stale digest would make any processing visible; access events must be
	// discarded before the digest is even recomputed
	require.NoError(t, os.WriteFile(a.Path, []byte("changed"), 0644))
	loop.handleBatch(watch.Batch{{Path: a.Path, Kind: watch.KindAccess}})

	assert.Equal(t, "initial", readContent(t, b.Path), "access event must not trigger propagation")
}

func TestSyncLoop_IgnoresSiblingFiles(t *testing.T) {
	a, b := reconciledPair(t, "initial")
	loop := NewSyncLoop(a, b, nil)

	sibling := filepath.Join(a.ParentDir, "unrelated.txt")
	require.NoError(t, os.WriteFile(sibling, []byte("noise"), 0644))
	loop.handleBatch(watch.Batch{{Path: sibling, Kind: watch.KindModify}})

	assert.Equal(t, "initial", readContent(t, b.Path))
}

func TestSyncLoop_BothChangedLastProcessedWins(t *testing.T) {
	a, b := reconciledPair(t, "initial")
	loop := NewSyncLoop(a, b, nil)

	require.NoError(t, os.WriteFile(a.Path, []byte("from a"), 0644))
	require.NoError(t, os.WriteFile(b.Path, []byte("from b"), 0644))
	loop.handleBatch(watch.Batch{
		{Path: a.Path, Kind: watch.KindModify},
		{Path: b.Path, Kind: watch.KindModify},
	})

	// a is processed first, then b's propagation overwrites a
	assert.Equal(t, "from b", readContent(t, a.Path))
	assert.Equal(t, "from b", readContent(t, b.Path))
}

func TestSyncLoop_WriteFailureLeavesDestinationDigestUntouched(t *testing.T) {
	a, b := reconciledPair(t, "initial")
	loop := NewSyncLoop(a, b, nil)

	heldB := b.Digest()

	// make the destination unwritable: a directory in its place
	require.NoError(t, os.Remove(b.Path))
	require.NoError(t, os.Mkdir(b.Path, 0755))

	require.NoError(t, os.WriteFile(a.Path, []byte("doomed edit"), 0644))
	loop.handleBatch(watch.Batch{{Path: a.Path, Kind: watch.KindModify}})

	// source digest advanced to the new content
	want, err := Digest(a.Path)
	require.NoError(t, err)
	assert.True(t, a.Digest().Equal(want))

	// destination digest untouched, so the next legitimate event on b is
	// not spuriously suppressed
	assert.True(t, b.Digest().Equal(heldB))

	// once b is writable again, a genuine edit on b still propagates
	require.NoError(t, os.Remove(b.Path))
	require.NoError(t, os.WriteFile(b.Path, []byte("fresh on b"), 0644))
	loop.handleBatch(watch.Batch{{Path: b.Path, Kind: watch.KindModify}})
	assert.Equal(t, "fresh on b", readContent(t, a.Path))
}

func TestSyncLoop_DigestFailureSkipsSide(t *testing.T) {
	a, b := reconciledPair(t, "initial")
	loop := NewSyncLoop(a, b, nil)

	heldA := a.Digest()
	require.NoError(t, os.Remove(a.Path))
	loop.handleBatch(watch.Batch{{Path: a.Path, Kind: watch.KindRemove}})

	// held digest untouched, b untouched; the next event re-attempts
	assert.True(t, a.Digest().Equal(heldA))
	assert.Equal(t, "initial", readContent(t, b.Path))
}

func TestSyncLoop_RunEndsWhenStreamCloses(t *testing.T) {
	a, b := reconciledPair(t, "initial")

	batches := make(chan watch.Batch)
	loop := NewSyncLoop(a, b, batches)

	done := make(chan error, 1)
	go func() {
		done <- loop.Run(context.Background())
	}()

	close(batches)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrWatchClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after the event stream closed")
	}
}

func TestSyncLoop_RunStopsOnContextCancel(t *testing.T) {
	a, b := reconciledPair(t, "initial")

	batches := make(chan watch.Batch)
	loop := NewSyncLoop(a, b, batches)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- loop.Run(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop on context cancel")
	}
}

func TestSyncLoop_ConsumesBatchesFromChannel(t *testing.T) {
	a, b := reconciledPair(t, "initial")

	batches := make(chan watch.Batch, 1)
	loop := NewSyncLoop(a, b, batches)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- loop.Run(ctx)
	}()

	require.NoError(t, os.WriteFile(a.Path, []byte("via channel"), 0644))
	batches <- watch.Batch{{Path: a.Path, Kind: watch.KindModify}}

	assert.Eventually(t, func() bool {
		content, err := os.ReadFile(b.Path)
		return err == nil && string(content) == "via channel"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
