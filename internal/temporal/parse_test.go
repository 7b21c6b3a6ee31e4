package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cqlbridge/internal/fault"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "positive offset with fraction",
			input: "2021-03-05 10:15:30.500+02:00",
			want:  time.Date(2021, 3, 5, 8, 15, 30, 500_000_000, time.UTC),
		},
		{
			name:  "negative hour-only offset",
			input: "2021-03-05 10:15:30-01",
			want:  time.Date(2021, 3, 5, 11, 15, 30, 0, time.UTC),
		},
		{
			name:  "no offset",
			input: "2021-03-05 10:15:30",
			want:  time.Date(2021, 3, 5, 10, 15, 30, 0, time.UTC),
		},
		{
			name:  "date only",
			input: "2021-03-05",
			want:  time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "fraction then negative offset",
			input: "2021-03-05 10:15:30.25-05:30",
			want:  time.Date(2021, 3, 5, 15, 45, 30, 250_000_000, time.UTC),
		},
		{
			name:  "compact offset",
			input: "2021-03-05 10:15:30+0130",
			want:  time.Date(2021, 3, 5, 8, 45, 30, 0, time.UTC),
		},
		{
			name:  "zulu",
			input: "2021-03-05T10:15:30Z",
			want:  time.Date(2021, 3, 5, 10, 15, 30, 0, time.UTC),
		},
		{
			name:  "offset crosses midnight",
			input: "2021-03-05 00:30:00+01:00",
			want:  time.Date(2021, 3, 4, 23, 30, 0, 0, time.UTC),
		},
		{
			name:  "space before offset",
			input: "2021-03-05 10:15:30 +02:00",
			want:  time.Date(2021, 3, 5, 8, 15, 30, 0, time.UTC),
		},
		{
			name:  "nanosecond fraction",
			input: "2021-03-05 10:15:30.123456789",
			want:  time.Date(2021, 3, 5, 10, 15, 30, 123456789, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseTimestamp_Errors(t *testing.T) {
	inputs := []string{
		"",
		"2021",
		"2021-03",
		"0000-03-05 10:15:30",
		"2021-00-05",
		"2021-03-00",
		"2021-03-05 10",
		"2021-03-05 10:15",
		"2021-13-05",
		"2021-02-30",
		"2021-03-05 25:00:00",
		"2021-03-05 10:61:00",
		"2021-03-05 10:15:30.1234567891",
		"2021-03-05 10:15:30+ab",
		"abcd-03-05",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := ParseTimestamp(in)
			require.Error(t, err)
			assert.True(t, fault.IsFormatError(err), "expected FORMAT error, got %v", err)
		})
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"10:15:30", 10*time.Hour + 15*time.Minute + 30*time.Second},
		{"10:15:30.5", 10*time.Hour + 15*time.Minute + 30*time.Second + 500*time.Millisecond},
		{"10:15:30+02:00", 8*time.Hour + 15*time.Minute + 30*time.Second},
		{"10:15:30-01", 11*time.Hour + 15*time.Minute + 30*time.Second},
		{"01:00:00+02:00", 23 * time.Hour},
		{"23:30:00-01:00", 30 * time.Minute},
		{"00:00:00.000001", time.Microsecond},
		{"10:15:30Z", 10*time.Hour + 15*time.Minute + 30*time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTime(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTime_Errors(t *testing.T) {
	for _, in := range []string{"", "10:15", "24:00:00", "10:15:30+xx", "aa:bb:cc"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseTime(in)
			require.Error(t, err)
			assert.True(t, fault.IsFormatError(err))
		})
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2020-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDate("2021-02-29")
	assert.True(t, fault.IsFormatError(err))

	_, err = ParseDate("2021-03-05 10:00:00")
	assert.True(t, fault.IsFormatError(err))
}

func TestFormat(t *testing.T) {
	ts := time.Date(2021, 3, 5, 8, 15, 30, 500_000_000, time.UTC)
	assert.Equal(t, "2021-03-05 08:15:30.500000+00:00", FormatTimestamp(ts))
	assert.Equal(t, "2021-03-05 08:15:30+00:00", FormatTimestamp(ts.Truncate(time.Second)))
	assert.Equal(t, "2021-03-05 08:15:30.000000001+00:00", FormatTimestamp(ts.Truncate(time.Second).Add(1)))

	loc := time.FixedZone("plus2", 2*3600)
	assert.Equal(t, "2021-03-05 08:15:30+00:00", FormatTimestamp(time.Date(2021, 3, 5, 10, 15, 30, 0, loc)))

	assert.Equal(t, "08:15:30+00:00", FormatTime(8*time.Hour+15*time.Minute+30*time.Second))
	assert.Equal(t, "00:00:00.000250+00:00", FormatTime(250*time.Microsecond))
	assert.Equal(t, "2021-03-05", FormatDate(ts))
}

func TestRoundTrip(t *testing.T) {
	for _, in := range []string{
		"2021-03-05 08:15:30.500000+00:00",
		"1999-12-31 23:59:59+00:00",
		"2000-01-01 00:00:00.000000001+00:00",
	} {
		ts, err := ParseTimestamp(in)
		require.NoError(t, err)
		assert.Equal(t, in, FormatTimestamp(ts))
	}

	d, err := ParseTime("12:34:56.789000+00:00")
	require.NoError(t, err)
	assert.Equal(t, "12:34:56.789000+00:00", FormatTime(d))
}
