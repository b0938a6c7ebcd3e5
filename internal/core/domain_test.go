package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRecord(t *testing.T, year int, clinic string, birth, deaths int) Record {
	t.Helper()
	r, err := NewRecord(year, clinic, birth, deaths)
	require.NoError(t, err)
	return r
}

func TestMortalityRate(t *testing.T) {
	cases := []struct {
		birth, deaths int
		want          float64
		valid         bool
	}{
		{100, 10, 10, true},
		{100, 2, 2, true},
		{3036, 237, 237.0 / 3036.0 * 100, true},
		{50, 0, 0, true},
		{0, 3, 0, false},
		{0, 0, 0, false},
	}
	for _, tc := range cases {
		got := MortalityRate(tc.birth, tc.deaths)
		assert.Equal(t, tc.valid, got.Valid, "birth=%d deaths=%d", tc.birth, tc.deaths)
		assert.InDelta(t, tc.want, got.Value, 1e-9, "birth=%d deaths=%d", tc.birth, tc.deaths)
	}
}

func TestNewRecordDerivesRate(t *testing.T) {
	inputs := [][4]int{{1841, 3036, 237}, {1842, 3287, 518}, {1847, 3490, 176}, {1848, 1, 1}}
	for _, in := range inputs {
		r := mustRecord(t, in[0], "clinic 1", in[1], in[2])
		require.True(t, r.MortalityRate.Valid)
		assert.InDelta(t, float64(r.Deaths)/float64(r.Birth)*100, r.MortalityRate.Value, 1e-9)
	}
}

func TestNewRecordValidation(t *testing.T) {
	_, err := NewRecord(0, "A", 1, 1)
	assert.ErrorIs(t, err, ErrInvalidYear)

	_, err = NewRecord(1841, "  ", 1, 1)
	assert.ErrorIs(t, err, ErrEmptyClinic)

	_, err = NewRecord(1841, "A", -1, 1)
	assert.ErrorIs(t, err, ErrNegativeCount)

	_, err = NewRecord(1841, "A", 1, -1)
	assert.ErrorIs(t, err, ErrNegativeCount)

	r, err := NewRecord(1841, " A ", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "A", r.Clinic)
	assert.False(t, r.MortalityRate.Valid)
}

func TestSchemaErrors(t *testing.T) {
	var err error = &SchemaError{Missing: []string{"Birth", "Deaths"}}
	assert.True(t, errors.Is(err, ErrSchema))
	assert.Contains(t, err.Error(), "Birth, Deaths")

	cause := errors.New("strconv failure")
	err = &RowError{Line: 3, Column: "Year", Value: "x", Err: cause}
	assert.True(t, errors.Is(err, ErrSchema))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "line 3")
}

func TestRateJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Rate `json:"a"`
		B Rate `json:"b"`
	}{A: Rate{Value: 2.5, Valid: true}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2.5,"b":null}`, string(b))

	var r Rate
	require.NoError(t, json.Unmarshal([]byte("null"), &r))
	assert.False(t, r.Valid)
}

func TestRatePercent(t *testing.T) {
	assert.Equal(t, "7.81%", MortalityRate(3036, 237).Percent())
	assert.Equal(t, "n/a", Rate{}.Percent())
	assert.False(t, math.IsNaN(MortalityRate(0, 0).Value))
}
