package dates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2025-04-01", want: "2025-04-01"},
		{in: "2025-4-1", want: "2025-04-01"},
		{in: "2025/4/1", want: "2025-04-01"},
		{in: "20250401", want: "2025-04-01"},
		{in: "2025/04/01", want: "2025-04-01"},
		{in: "01 Apr 2025", want: "2025-04-01"},
		{in: "April 01 2025", want: "2025-04-01"},
		{in: "not a date", wantErr: true},
		{in: "2025-13-45", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, err := Normalize(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBuildRange(t *testing.T) {
	t.Parallel()

	got, err := BuildRange("2025-03-30", "2025-04-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-30", "2025-03-31", "2025-04-01", "2025-04-02"}, got)

	got, err = BuildRange("2025-04-01", "2025-04-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-04-01"}, got)

	_, err = BuildRange("2025-04-02", "2025-04-01")
	assert.Error(t, err)

	_, err = BuildRange("nope", "2025-04-01")
	assert.Error(t, err)
}

func TestUnique(t *testing.T) {
	t.Parallel()
	got := Unique([]string{"2025-04-01", "2025-04-02", "2025-04-01"})
	assert.Equal(t, []string{"2025-04-01", "2025-04-02"}, got)
}
