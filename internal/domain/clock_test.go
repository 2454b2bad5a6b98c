package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("08:30")
	require.NoError(t, err)
	assert.Equal(t, Clock(510), c)

	c, err = ParseClock("00:00")
	require.NoError(t, err)
	assert.Equal(t, Clock(0), c)

	c, err = ParseClock("23:59")
	require.NoError(t, err)
	assert.Equal(t, Clock(23*60+59), c)
}

func TestParseClockRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "8", "24:00", "12:60", "ab:cd", "12:30:00", "-1:00"} {
		_, err := ParseClock(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestClockArithmetic(t *testing.T) {
	start := MustClock("11:50")

	assert.Equal(t, MustClock("12:20"), start.Add(30))
	assert.Equal(t, 30, start.Add(30).Sub(start))
	assert.True(t, start.Before(MustClock("12:00")))
	assert.True(t, MustClock("13:00").After(start))
	assert.Equal(t, "11:50", start.String())
}

func TestClockPastMidnight(t *testing.T) {
	// Schedules may legally run past 24h.
	late := MustClock("23:30").Add(45)
	assert.Equal(t, "24:15", late.String())
	assert.True(t, late.After(MustClock("23:59")))
}

func TestClockJSONRoundTrip(t *testing.T) {
	type payload struct {
		At Clock `json:"at"`
	}

	raw, err := json.Marshal(payload{At: MustClock("09:05")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"09:05"}`, string(raw))

	var decoded payload
	require.NoError(t, json.Unmarshal([]byte(`{"at":"17:30"}`), &decoded))
	assert.Equal(t, MustClock("17:30"), decoded.At)

	assert.Error(t, json.Unmarshal([]byte(`{"at":"25:00"}`), &decoded))
}
