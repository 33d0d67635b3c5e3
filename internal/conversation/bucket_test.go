package conversation

import (
	"testing"
	"time"

	"github.com/ragline/ragline/internal/models"
)

func TestBucketFor(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		updatedAt time.Time
		want      Bucket
	}{
		{"ThreeHoursAgo", now.Add(-3 * time.Hour), BucketToday},
		{"JustUnderOneDay", now.Add(-24*time.Hour + time.Second), BucketToday},
		{"ExactlyOneDay", now.Add(-24 * time.Hour), BucketYesterday},
		{"JustUnderTwoDays", now.Add(-48*time.Hour + time.Second), BucketYesterday},
		{"TwoDaysAgo", now.Add(-48 * time.Hour), BucketThisWeek},
		{"ExactlySevenDays", now.Add(-7 * 24 * time.Hour), BucketThisWeek},
		{"JustUnderEightDays", now.Add(-8*24*time.Hour + time.Second), BucketThisWeek},
		{"EightDaysAgo", now.Add(-8 * 24 * time.Hour), BucketOlder},
		{"MonthsAgo", now.Add(-90 * 24 * time.Hour), BucketOlder},
		{"FutureTimestamp", now.Add(2 * time.Hour), BucketToday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BucketFor(tt.updatedAt, now); got != tt.want {
				t.Errorf("BucketFor(now-%v) = %v, want %v", now.Sub(tt.updatedAt), got, tt.want)
			}
		})
	}
}

func TestBucketForIsIdempotent(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	updatedAt := now.Add(-30 * time.Hour)
	first := BucketFor(updatedAt, now)
	for i := 0; i < 3; i++ {
		if got := BucketFor(updatedAt, now); got != first {
			t.Fatalf("BucketFor not stable: %v then %v", first, got)
		}
	}
}

func TestGroupByDate(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	conv := func(id int64, age time.Duration) models.Conversation {
		return models.Conversation{ID: id, Title: "c", UpdatedAt: models.At(now.Add(-age))}
	}

	convs := []models.Conversation{
		conv(1, time.Hour),
		conv(2, 30*time.Hour),
		conv(3, 3*24*time.Hour),
		conv(4, 20*24*time.Hour),
		conv(5, 2*time.Hour),
	}

	groups := GroupByDate(convs, now)
	if len(groups) != 4 {
		t.Fatalf("groups = %d, want 4", len(groups))
	}
	if groups[0].Bucket != BucketToday || len(groups[0].Conversations) != 2 {
		t.Errorf("today group = %+v, want conversations 1 and 5", groups[0])
	}
	// Server order is preserved within a bucket.
	if groups[0].Conversations[0].ID != 1 || groups[0].Conversations[1].ID != 5 {
		t.Errorf("today order = %+v, want [1 5]", groups[0].Conversations)
	}
	if groups[1].Bucket != BucketYesterday || groups[1].Conversations[0].ID != 2 {
		t.Errorf("yesterday group = %+v", groups[1])
	}
	if groups[2].Bucket != BucketThisWeek || groups[2].Conversations[0].ID != 3 {
		t.Errorf("this-week group = %+v", groups[2])
	}
	if groups[3].Bucket != BucketOlder || groups[3].Conversations[0].ID != 4 {
		t.Errorf("older group = %+v", groups[3])
	}

	if got := GroupByDate(nil, now); len(got) != 0 {
		t.Errorf("GroupByDate(nil) = %+v, want no groups", got)
	}
}
