package model

import "fmt"

// Bucket titles. BucketToday is the "previous" bucket: today, but not
// within the last hour.
const (
	BucketNow       = "Now"
	BucketToday     = "Today"
	BucketThisWeek  = "This Week"
	BucketThisMonth = "This Month"
	BucketYesterday = "Yesterday"
)

// BucketOrder is the fixed display order of buckets. Yesterday sorts after
// This Month; the inbox has always shown it there.
var BucketOrder = []string{
	BucketNow,
	BucketToday,
	BucketThisWeek,
	BucketThisMonth,
	BucketYesterday,
}

// Bucket is a titled group of notifications shown as one inbox section.
type Bucket struct {
	Title         string         `json:"title"`
	Notifications []Notification `json:"notifications"`
}

// RowKey returns a rendering key for the i-th notification. IDs alone can
// collide across categories, so the title and position are folded in.
func (b Bucket) RowKey(i int) string {
	return fmt.Sprintf("%s/%d/%s", b.Title, i, b.Notifications[i].ID)
}

// CountNotifications returns the total number of notifications across buckets.
func CountNotifications(buckets []Bucket) int {
	total := 0
	for _, b := range buckets {
		total += len(b.Notifications)
	}
	return total
}
