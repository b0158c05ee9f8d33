// FILE: lixenwraith/namespace/datetime_test.go
package namespace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPatternLayout tests translation of letter patterns to Go layouts
func TestPatternLayout(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"yyyy-MM-dd", "2006-01-02"},
		{"yyyy-MM-dd'T'HH:mm:ss.SSSZ", "2006-01-02T15:04:05.000-0700"},
		{"HH:mm:ss.SSSXXX", "15:04:05.000Z07:00"},
		{"dd.MM.yy", "02.01.06"},
		{"d MMM yyyy", "2 Jan 2006"},
		{"EEEE, MMMM d", "Monday, January 2"},
		{"h:mm a", "3:04 PM"},
		{"'at' HH 'o''clock'", "at 15 o'clock"},
	}
	for _, tc := range tests {
		got, err := PatternLayout(tc.pattern)
		require.NoError(t, err, tc.pattern)
		assert.Equal(t, tc.want, got, tc.pattern)
	}

	for _, bad := range []string{"yyyy-MM-dd'T", "SSS", "yyyy-QQ"} {
		_, err := PatternLayout(bad)
		assert.Error(t, err, bad)
	}

	t.Run("LayoutLiterals", func(t *testing.T) {
		for _, bad := range []string{"'at 5' HH", "yyyy 2", "'Mon' HH", "HH 'PM'", "dd'Jan'"} {
			_, err := PatternLayout(bad)
			assert.ErrorIs(t, err, errLayoutLiteral, bad)
		}

		_, err := ParseWithPattern("2004 1", "yyyy 1", "date")
		assert.ErrorIs(t, err, ErrConversion)
		assert.ErrorIs(t, err, errLayoutLiteral)
	})
}

// TestParseDateTime tests the ordered fallback chain
func TestParseDateTime(t *testing.T) {
	t.Run("MillisWithOffset", func(t *testing.T) {
		got, err := ParseDateTime("2004-10-22T10:15:30.250+0200")
		require.NoError(t, err)
		want := time.Date(2004, 10, 22, 8, 15, 30, 250*int(time.Millisecond), time.UTC)
		assert.True(t, want.Equal(got), "got %s", got)
		_, offset := got.Zone()
		assert.Equal(t, 2*3600, offset)
	})

	t.Run("MillisWithColonOffset", func(t *testing.T) {
		got, err := ParseDateTime("2004-10-22T10:15:30.250-05:30")
		require.NoError(t, err)
		_, offset := got.Zone()
		assert.Equal(t, -(5*3600 + 30*60), offset)
	})

	t.Run("MillisUTC", func(t *testing.T) {
		got, err := ParseDateTime("2004-10-22T10:15:30.250Z")
		require.NoError(t, err)
		assert.True(t, time.Date(2004, 10, 22, 10, 15, 30, 250*int(time.Millisecond), time.UTC).Equal(got))
	})

	t.Run("SecondsWithoutZone", func(t *testing.T) {
		got, err := ParseDateTime("2004-10-22T10:15:30")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2004, 10, 22, 10, 15, 30, 0, time.UTC), got)
	})

	t.Run("MinutesOnly", func(t *testing.T) {
		got, err := ParseDateTime("2004-10-22T10:15")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2004, 10, 22, 10, 15, 0, 0, time.UTC), got)
	})

	t.Run("DateOnlyFallsThrough", func(t *testing.T) {
		got, err := ParseDateTime("2004-10-22")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2004, 10, 22, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("StricterPatternWins", func(t *testing.T) {
		// Fractional seconds survive, so the seconds-only pattern did not match first
		got, err := ParseDateTime("2004-10-22T10:15:30.999+0000")
		require.NoError(t, err)
		assert.Equal(t, 999*int(time.Millisecond), got.Nanosecond())
	})

	t.Run("NonLenient", func(t *testing.T) {
		for _, raw := range []string{"2004-10-32", "2004-13-01", "2004-10-22T25:00", "22/10/2004", "2004-10-22 10:15"} {
			_, err := ParseDateTime(raw)
			assert.ErrorIs(t, err, ErrConversion, raw)
		}
	})
}

// TestParseDateAndTime tests the date-only and time-only chains
func TestParseDateAndTime(t *testing.T) {
	d, err := ParseDate("2004-10-22")
	require.NoError(t, err)
	assert.Equal(t, 2004, d.Year())
	assert.Equal(t, time.October, d.Month())
	assert.Equal(t, 22, d.Day())

	_, err = ParseDate("2004-10-22T10:15")
	assert.ErrorIs(t, err, ErrConversion)

	tm, err := ParseTimeOfDay("10:15:30.125+01:00")
	require.NoError(t, err)
	assert.Equal(t, 10, tm.Hour())
	assert.Equal(t, 125*int(time.Millisecond), tm.Nanosecond())

	tm, err = ParseTimeOfDay("23:59")
	require.NoError(t, err)
	assert.Equal(t, 23, tm.Hour())
	assert.Equal(t, 59, tm.Minute())

	_, err = ParseTimeOfDay("24:00")
	assert.ErrorIs(t, err, ErrConversion)
}

// TestConvertDateWithFormat tests the format attribute override
func TestConvertDateWithFormat(t *testing.T) {
	r := NewRegistry()

	v, err := r.Convert("2004-10-22", "date", "yyyy-MM-dd")
	require.NoError(t, err)
	d := v.(time.Time)
	assert.Equal(t, 2004, d.Year())
	assert.Equal(t, time.October, d.Month())
	assert.Equal(t, 22, d.Day())

	v, err = r.Convert("22.10.2004", "date", "dd.MM.yyyy")
	require.NoError(t, err)
	assert.Equal(t, 22, v.(time.Time).Day())

	_, err = r.Convert("32.10.2004", "date", "dd.MM.yyyy")
	assert.ErrorIs(t, err, ErrConversion)
}
