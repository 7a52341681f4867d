package feed

import (
	"slices"
	"time"

	"github.com/nhle/inbox/internal/model"
)

// recentWindow is how far back the "Now" bucket reaches. The bound is
// exclusive.
const recentWindow = 60 * time.Minute

// Classify returns the bucket title for a notification received at t, as
// seen at now. The rules are evaluated in order and the first match wins.
// ok is false when t is older than the current calendar month.
//
// Calendar comparisons happen in now's location.
func Classify(t, now time.Time, weekStart time.Weekday) (title string, ok bool) {
	if now.Sub(t) < recentWindow {
		return model.BucketNow, true
	}

	local := t.In(now.Location())
	switch {
	case sameDay(local, now):
		return model.BucketToday, true
	case sameDay(local, now.AddDate(0, 0, -1)):
		return model.BucketYesterday, true
	case startOfWeek(local, weekStart).Equal(startOfWeek(now, weekStart)):
		return model.BucketThisWeek, true
	case sameMonth(local, now):
		return model.BucketThisMonth, true
	}
	return "", false
}

// Bucketize stable-sorts notes by receipt time, newest first, and groups
// them into the non-empty buckets in model.BucketOrder. Notes whose
// timestamp cannot be parsed are returned in skipped and left out.
func Bucketize(
	notes []model.Notification,
	now time.Time,
	weekStart time.Weekday,
) (buckets []model.Bucket, skipped []model.Notification) {
	type entry struct {
		note model.Notification
		at   time.Time
	}

	entries := make([]entry, 0, len(notes))
	for _, n := range notes {
		at, err := n.Time()
		if err != nil {
			skipped = append(skipped, n)
			continue
		}
		entries = append(entries, entry{note: n, at: at})
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		return b.at.Compare(a.at)
	})

	groups := make(map[string][]model.Notification, len(model.BucketOrder))
	for _, e := range entries {
		title, ok := Classify(e.at, now, weekStart)
		if !ok {
			continue
		}
		groups[title] = append(groups[title], e.note)
	}

	buckets = make([]model.Bucket, 0, len(groups))
	for _, title := range model.BucketOrder {
		if len(groups[title]) == 0 {
			continue
		}
		buckets = append(buckets, model.Bucket{Title: title, Notifications: groups[title]})
	}
	return buckets, skipped
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// startOfWeek returns midnight of the first day of t's week.
func startOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	offset := (int(t.Weekday()) - int(weekStart) + 7) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}
