package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/gauthierbraillon/geofeed/internal/platform"
	"github.com/gauthierbraillon/geofeed/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ stream.Sink = (*State)(nil)

func panoramas(ids ...string) platform.Batch {
	posts := make([]platform.Post, 0, len(ids))
	for _, id := range ids {
		posts = append(posts, platform.Post{ID: id, Platform: platform.StreetView})
	}
	return platform.Batch{Platform: platform.StreetView, Posts: posts, Count: len(posts)}
}

func TestAC600_Session_MovesThroughLifecycle(t *testing.T) {
	s := New("search-1")
	assert.Equal(t, StatusPending, s.Status())
	assert.Equal(t, "search-1", s.ID())

	s.HandleBatch(panoramas("p1"))
	assert.Equal(t, StatusStreaming, s.Status(), "first batch should start streaming")
	assert.True(t, s.DataLoaded())

	s.Complete(json.RawMessage(`{}`))
	assert.Equal(t, StatusDone, s.Status())

	s.Fail(errors.New("late failure"))
	assert.Equal(t, StatusDone, s.Status(), "a finished session should not change status")
	assert.NoError(t, s.Err())

	select {
	case <-s.Done():
	default:
		t.Fatal("done channel should be closed after completion")
	}
}

func TestAC601_Session_FailureIsReported(t *testing.T) {
	s := New("search-2")
	s.Streaming()
	s.Fail(stream.ErrUnexpectedEOF)

	status, err := s.Wait(context.Background())

	assert.Equal(t, StatusErrored, status)
	assert.ErrorIs(t, err, stream.ErrUnexpectedEOF)
}

func TestAC602_Session_PlatformErrorsDoNotEndTheSearch(t *testing.T) {
	s := New("search-3")
	s.Streaming()

	s.HandlePlatformError(platform.Twitter, json.RawMessage(`{"message":"quota"}`))
	s.HandleBatch(panoramas("p1"))

	assert.Equal(t, StatusStreaming, s.Status())
	errs := s.PlatformErrors()
	require.Contains(t, errs, platform.Twitter)
	assert.JSONEq(t, `{"message":"quota"}`, string(errs[platform.Twitter]))
	assert.Equal(t, 1, s.Aggregator().Count())
}

func TestAC603_Session_LateResultIsDiscardedAfterClose(t *testing.T) {
	s := New("search-4")
	token := s.Token()
	require.True(t, s.Alive(token))

	s.Close()

	applied := s.Apply(token, func() {
		s.HandleBatch(panoramas("stale"))
	})

	assert.False(t, applied, "a geocode result arriving after close should be dropped")
	assert.False(t, s.Alive(token))
	assert.NotEqual(t, token, s.Token(), "closing should rotate the generation token")
	assert.Zero(t, s.Aggregator().Count())
	s.Close()
}

func TestAC603_Session_LiveResultIsApplied(t *testing.T) {
	s := New("search-5")

	ran := s.Apply(s.Token(), func() { s.TriggerRefresh() })

	assert.True(t, ran)
	assert.True(t, s.ConsumeRefresh())
	assert.False(t, s.ConsumeRefresh(), "refresh is a one-shot signal")
}

func TestAC604_Session_ClearResultsEmptiesState(t *testing.T) {
	s := New("search-6")
	s.HandleBatch(panoramas("p1", "p2"))
	s.SetVisibility(platform.StreetView, false)
	before := s.Token()

	s.ClearResults()

	assert.Zero(t, s.Snapshot().Len())
	assert.False(t, s.DataLoaded())
	assert.True(t, s.Visibility(platform.StreetView), "visibility should return to defaults")
	assert.NotEqual(t, before, s.Token(), "clearing should start a new generation")
	assert.False(t, s.Alive(before))
}

func TestAC605_Session_VisibilityTogglesRequestRefresh(t *testing.T) {
	s := New("search-7")
	s.ConsumeRefresh()

	s.SetVisibility(platform.Instagram, true)
	assert.False(t, s.ConsumeRefresh(), "setting the current value should not redraw")

	s.SetVisibility(platform.Instagram, false)
	assert.False(t, s.Visibility(platform.Instagram))
	assert.True(t, s.ConsumeRefresh())

	s.SetActivePlatform(platform.Facebook)
	assert.Equal(t, platform.Facebook, s.ActivePlatform())
}

func TestAC606_Session_CloseUnblocksWaiters(t *testing.T) {
	s := New("search-8")
	s.Streaming()

	go func() {
		time.Sleep(10 * time.Millisecond)
		s.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	status, err := s.Wait(ctx)

	require.NoError(t, err)
	assert.Equal(t, StatusStreaming, status)

	s.HandleBatch(panoramas("after-close"))
	s.Complete(nil)
	assert.Zero(t, s.Aggregator().Count(), "a closed session should ignore further batches")
	assert.Equal(t, StatusStreaming, s.Status())
}
