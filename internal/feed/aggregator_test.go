package feed

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inbox/internal/identity"
	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/store"
	"github.com/nhle/inbox/internal/testutil"
)

// fakeLoader serves canned lists keyed by store.Key.
type fakeLoader struct {
	lists map[string][]model.Notification
	errs  map[string]error
	calls atomic.Int32
}

func (f *fakeLoader) LoadRaw(_ context.Context, id string, c model.Category) ([]model.Notification, error) {
	f.calls.Add(1)
	key := store.Key(id, c)
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	return f.lists[key], nil
}

type failingProvider struct{}

func (failingProvider) Current(context.Context) (string, bool, error) {
	return "", false, errors.New("keyring locked")
}

func newTestAggregator(l store.Loader, ids identity.Provider, logs *bytes.Buffer, opts ...Option) *Aggregator {
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	opts = append([]Option{
		WithClock(testutil.FixedClock(wednesday)),
		WithCategories([]model.Category{model.CategoryFriend, model.CategoryLike}),
		WithLogger(logger),
	}, opts...)
	return New(l, ids, opts...)
}

func TestAggregator_SingleRecentFriendRequest(t *testing.T) {
	loader := &fakeLoader{lists: map[string][]model.Notification{
		"u1_friend": {rec("f1", model.CategoryFriend, wednesday.Add(-5*time.Minute))},
	}}
	var logs bytes.Buffer
	a := newTestAggregator(loader, identity.Static("u1"), &logs)

	buckets, err := a.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, model.BucketNow, buckets[0].Title)
	assert.Equal(t, []string{"f1"}, ids(buckets[0]))
}

func TestAggregator_NowAndThisWeek(t *testing.T) {
	loader := &fakeLoader{lists: map[string][]model.Notification{
		"u1_friend": {rec("old", model.CategoryFriend, wednesday.Add(-48*time.Hour))},
		"u1_like":   {rec("new", model.CategoryLike, wednesday.Add(-10*time.Minute))},
	}}
	var logs bytes.Buffer
	a := newTestAggregator(loader, identity.Static("u1"), &logs)

	buckets, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{model.BucketNow, model.BucketThisWeek}, titles(buckets))
	assert.Equal(t, []string{"new"}, ids(buckets[0]))
	assert.Equal(t, []string{"old"}, ids(buckets[1]))
}

func TestAggregator_NoIdentitySkipsReads(t *testing.T) {
	loader := &fakeLoader{}
	var logs bytes.Buffer
	a := newTestAggregator(loader, identity.Static(""), &logs)

	buckets, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, buckets)
	assert.Empty(t, buckets)
	assert.Zero(t, loader.calls.Load())
}

func TestAggregator_IdentityErrorIsEmpty(t *testing.T) {
	loader := &fakeLoader{}
	var logs bytes.Buffer
	a := newTestAggregator(loader, failingProvider{}, &logs)

	buckets, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, buckets)
	assert.Zero(t, loader.calls.Load())
	assert.Contains(t, logs.String(), "keyring locked")
}

func TestAggregator_DropsOlderThanThisMonth(t *testing.T) {
	loader := &fakeLoader{lists: map[string][]model.Notification{
		"u1_like": {
			rec("keep", model.CategoryLike, wednesday.Add(-3*time.Hour)),
			rec("drop", model.CategoryLike, wednesday.AddDate(0, -1, -1)),
		},
	}}
	var logs bytes.Buffer
	a := newTestAggregator(loader, identity.Static("u1"), &logs)

	buckets, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, model.CountNotifications(buckets))
	assert.Equal(t, []string{"keep"}, ids(buckets[0]))
}

func TestAggregator_EmptyStores(t *testing.T) {
	loader := &fakeLoader{}
	var logs bytes.Buffer
	a := newTestAggregator(loader, identity.Static("u1"), &logs,
		WithCategories(model.Categories))

	buckets, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, buckets)
	assert.Equal(t, int32(len(model.Categories)), loader.calls.Load())
}

func TestAggregator_SkipsFailedCategory(t *testing.T) {
	loader := &fakeLoader{
		lists: map[string][]model.Notification{
			"u1_like": {rec("l1", model.CategoryLike, wednesday.Add(-time.Minute))},
		},
		errs: map[string]error{
			"u1_friend": store.ErrMalformed,
		},
	}
	var logs bytes.Buffer
	a := newTestAggregator(loader, identity.Static("u1"), &logs)

	buckets, err := a.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, []string{"l1"}, ids(buckets[0]))
	assert.Contains(t, logs.String(), "skipping notification category")
	assert.Contains(t, logs.String(), "category=friend")
}

func TestAggregator_SkipsBadTimestamp(t *testing.T) {
	loader := &fakeLoader{lists: map[string][]model.Notification{
		"u1_like": {
			{ID: "bad", Category: model.CategoryLike, ReceivedAt: "not a time"},
			rec("ok", model.CategoryLike, wednesday.Add(-time.Minute)),
		},
	}}
	var logs bytes.Buffer
	a := newTestAggregator(loader, identity.Static("u1"), &logs)

	buckets, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, model.CountNotifications(buckets))
	assert.Contains(t, logs.String(), "unreadable timestamp")
	assert.Contains(t, logs.String(), "id=bad")
}

func TestAggregator_StableAcrossCategories(t *testing.T) {
	same := wednesday.Add(-15 * time.Minute)
	loader := &fakeLoader{lists: map[string][]model.Notification{
		"u1_friend": {rec("friend-1", model.CategoryFriend, same), rec("friend-2", model.CategoryFriend, same)},
		"u1_like":   {rec("like-1", model.CategoryLike, same)},
	}}
	var logs bytes.Buffer
	a := newTestAggregator(loader, identity.Static("u1"), &logs)

	for range 5 {
		buckets, err := a.Load(context.Background())
		require.NoError(t, err)
		require.Len(t, buckets, 1)
		assert.Equal(t, []string{"friend-1", "friend-2", "like-1"}, ids(buckets[0]))
	}
}

func TestAggregator_CancelledContext(t *testing.T) {
	loader := &fakeLoader{lists: map[string][]model.Notification{
		"u1_friend": {rec("f1", model.CategoryFriend, wednesday.Add(-time.Minute))},
	}}
	var logs bytes.Buffer
	a := newTestAggregator(loader, identity.Static("u1"), &logs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buckets, err := a.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, buckets)
}

// cancellingLoader cancels the load on its first read and blocks every
// other read until the context is done.
type cancellingLoader struct {
	cancel context.CancelFunc
	first  atomic.Bool
	calls  atomic.Int32
}

func (l *cancellingLoader) LoadRaw(ctx context.Context, _ string, _ model.Category) ([]model.Notification, error) {
	l.calls.Add(1)
	if l.first.CompareAndSwap(false, true) {
		l.cancel()
		return nil, ctx.Err()
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestAggregator_CancelledMidRead(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loader := &cancellingLoader{cancel: cancel}
	var logs bytes.Buffer
	a := newTestAggregator(loader, identity.Static("u1"), &logs, WithCategories(model.Categories))

	buckets, err := a.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, buckets)
	assert.LessOrEqual(t, loader.calls.Load(), int32(len(model.Categories)))
	assert.NotContains(t, logs.String(), "skipping notification category")
}

func TestAggregator_WithSQLiteStore(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	require.NoError(t, s.Append(ctx, "ana", rec("f1", model.CategoryFriend, wednesday.Add(-2*time.Minute))))
	require.NoError(t, s.Append(ctx, "ana", rec("c1", model.CategoryComment, wednesday.Add(-20*time.Hour))))
	require.NoError(t, s.Append(ctx, "ana", rec("w1", model.CategoryFollow, wednesday.Add(-26*time.Hour))))
	require.NoError(t, s.Append(ctx, "bo", rec("x1", model.CategoryLike, wednesday.Add(-time.Minute))))
	require.NoError(t, s.Put(ctx, store.Key("ana", model.CategoryLike), []byte(`{broken`)))

	var logs bytes.Buffer
	a := newTestAggregator(s, identity.Static("ana"), &logs, WithCategories(model.Categories))

	buckets, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{model.BucketNow, model.BucketYesterday}, titles(buckets))
	assert.Equal(t, []string{"f1"}, ids(buckets[0]))
	assert.Equal(t, []string{"c1", "w1"}, ids(buckets[1]))
	assert.Contains(t, logs.String(), "category=like")

	again, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, buckets, again)
}
