package arxiv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utcDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSubmissionWindowET(t *testing.T) {
	t.Parallel()

	// Tuesday announcement covers Monday 14:00 to Tuesday 14:00 Eastern.
	start, end, ok := SubmissionWindowET(time.Date(2025, time.April, 1, 0, 0, 0, 0, eastern))
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.March, 31, 14, 0, 0, 0, eastern), start)
	assert.Equal(t, time.Date(2025, time.April, 1, 14, 0, 0, 0, eastern), end)

	// Monday announcement reaches back across the weekend to Friday 14:00.
	start, end, ok = SubmissionWindowET(time.Date(2025, time.April, 7, 0, 0, 0, 0, eastern))
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.April, 4, 14, 0, 0, 0, eastern), start)
	assert.Equal(t, time.Date(2025, time.April, 7, 14, 0, 0, 0, eastern), end)

	// Sunday announcement covers Thursday 14:00 to Friday 14:00.
	start, end, ok = SubmissionWindowET(time.Date(2025, time.April, 6, 0, 0, 0, 0, eastern))
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.April, 3, 14, 0, 0, 0, eastern), start)
	assert.Equal(t, time.Date(2025, time.April, 4, 14, 0, 0, 0, eastern), end)

	// No announcements on Friday or Saturday.
	_, _, ok = SubmissionWindowET(time.Date(2025, time.April, 4, 0, 0, 0, 0, eastern))
	assert.False(t, ok)
	_, _, ok = SubmissionWindowET(time.Date(2025, time.April, 5, 0, 0, 0, 0, eastern))
	assert.False(t, ok)
}

func TestAnnouncementTimeUTC(t *testing.T) {
	t.Parallel()

	// UTC 2025-04-02 maps to the Tuesday 2025-04-01 ET announcement, which
	// goes out at 20:00 EDT, i.e. midnight UTC the next day.
	release, ok := AnnouncementTimeUTC(utcDate(2025, time.April, 2))
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC), release)

	// UTC dates whose ET date is Friday or Saturday have no announcement.
	_, ok = AnnouncementTimeUTC(utcDate(2025, time.April, 5))
	assert.False(t, ok)
	_, ok = AnnouncementTimeUTC(utcDate(2025, time.April, 6))
	assert.False(t, ok)
}

func TestLatestAnnouncementDate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		now  time.Time
		want string
	}{
		{
			name: "just after release",
			now:  time.Date(2025, time.April, 2, 1, 0, 0, 0, time.UTC),
			want: "2025-04-02",
		},
		{
			name: "just before release falls back a day",
			now:  time.Date(2025, time.April, 1, 23, 0, 0, 0, time.UTC),
			want: "2025-04-01",
		},
		{
			name: "weekend skips back to thursday announcement",
			now:  time.Date(2025, time.April, 6, 12, 0, 0, 0, time.UTC),
			want: "2025-04-04",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, LatestAnnouncementDate(tc.now))
		})
	}
}

func TestQueryTimestamp(t *testing.T) {
	t.Parallel()
	ts := time.Date(2025, time.April, 1, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, "20250401180000", QueryTimestamp(ts))
}
