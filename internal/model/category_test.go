package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryTableCoversCategories(t *testing.T) {
	require.Len(t, categoryTable, len(Categories))
	for _, c := range Categories {
		info, ok := categoryTable[c]
		require.True(t, ok, "missing table entry for %s", c)
		assert.NotEmpty(t, info.Label, c)
		assert.NotEmpty(t, info.Verb, c)
		assert.NotEmpty(t, info.Color, c)
		assert.True(t, c.Valid())
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"friend", CategoryFriend, false},
		{"  Like ", CategoryLike, false},
		{"COMMENT", CategoryComment, false},
		{"follow", CategoryFollow, false},
		{"share", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategoryInfo_Unknown(t *testing.T) {
	c := Category("poke")
	assert.False(t, c.Valid())
	assert.Equal(t, "???", c.Info().Label)
	assert.Equal(t, "gray", c.Info().Color)
}

func TestNotification_Summary(t *testing.T) {
	n := Notification{Category: CategoryComment, Payload: Payload{SenderID: "u9", Text: "nice"}}
	assert.Equal(t, "u9 commented on your post: nice", n.Summary())

	n.Payload.SenderName = "Ana"
	assert.Equal(t, "Ana commented on your post: nice", n.Summary())

	anon := Notification{Category: CategoryFollow}
	assert.Equal(t, "Someone started following you", anon.Summary())
}

func TestNotification_Time(t *testing.T) {
	good := []string{
		"2026-10-14T15:00:00Z",
		"2026-10-14T15:00:00.5Z",
		"2026-10-14T17:00:00+02:00",
		"2026-10-14T15:00:00.000+0000",
		"2026-10-14T15:00:00",
	}
	for _, s := range good {
		ts, err := Notification{ReceivedAt: s}.Time()
		require.NoError(t, err, s)
		assert.Equal(t, 2026, ts.Year(), s)
		assert.Equal(t, 15, ts.UTC().Hour(), s)
	}

	_, err := Notification{ID: "x", ReceivedAt: "14/10/2026"}.Time()
	assert.Error(t, err)
}

func TestBucket_RowKey(t *testing.T) {
	b := Bucket{Title: BucketNow, Notifications: []Notification{{ID: "1"}, {ID: "1"}}}
	assert.Equal(t, "Now/0/1", b.RowKey(0))
	assert.NotEqual(t, b.RowKey(0), b.RowKey(1))
}

func TestCountNotifications(t *testing.T) {
	assert.Zero(t, CountNotifications(nil))
	assert.Equal(t, 3, CountNotifications([]Bucket{
		{Title: BucketNow, Notifications: make([]Notification, 2)},
		{Title: BucketYesterday, Notifications: make([]Notification, 1)},
	}))
}
