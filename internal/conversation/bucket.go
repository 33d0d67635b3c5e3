package conversation

import (
	"time"

	"github.com/ragline/ragline/internal/models"
)

// Bucket is a display grouping of conversations by recency. Bucketing is
// a pure function of (updatedAt, now); it never touches store state.
type Bucket int

const (
	BucketToday Bucket = iota
	BucketYesterday
	BucketThisWeek
	BucketOlder
)

func (b Bucket) String() string {
	switch b {
	case BucketToday:
		return "Today"
	case BucketYesterday:
		return "Yesterday"
	case BucketThisWeek:
		return "This Week"
	default:
		return "Older"
	}
}

// Buckets lists all buckets in display order.
var Buckets = []Bucket{BucketToday, BucketYesterday, BucketThisWeek, BucketOlder}

// BucketFor assigns a bucket by whole 24-hour periods between updatedAt
// and now: 0 is today, 1 yesterday, up to 7 this week, beyond that older.
// Future timestamps (clock skew) land in today.
func BucketFor(updatedAt, now time.Time) Bucket {
	diff := now.Sub(updatedAt)
	if diff < 0 {
		diff = 0
	}
	days := int(diff.Hours() / 24)
	switch {
	case days == 0:
		return BucketToday
	case days == 1:
		return BucketYesterday
	case days <= 7:
		return BucketThisWeek
	default:
		return BucketOlder
	}
}

// Group is one bucket's worth of conversations, in server order.
type Group struct {
	Bucket        Bucket
	Conversations []models.Conversation
}

// GroupByDate splits conversations into display buckets, preserving the
// server-determined order within each. Empty buckets are omitted.
func GroupByDate(convs []models.Conversation, now time.Time) []Group {
	byBucket := make(map[Bucket][]models.Conversation, len(Buckets))
	for _, conv := range convs {
		b := BucketFor(conv.UpdatedAt.Time, now)
		byBucket[b] = append(byBucket[b], conv)
	}
	var groups []Group
	for _, b := range Buckets {
		if len(byBucket[b]) > 0 {
			groups = append(groups, Group{Bucket: b, Conversations: byBucket[b]})
		}
	}
	return groups
}
