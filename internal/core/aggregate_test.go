package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleRecords mirrors the shape of the Vienna clinic data: two clinics,
// interleaved, spanning the handwashing year.
func sampleRecords(t *testing.T) []Record {
	t.Helper()
	return []Record{
		mustRecord(t, 1845, "clinic 1", 3492, 241),
		mustRecord(t, 1845, "clinic 2", 3241, 66),
		mustRecord(t, 1846, "clinic 1", 4010, 459),
		mustRecord(t, 1846, "clinic 2", 3754, 105),
		mustRecord(t, 1847, "clinic 1", 3490, 176),
		mustRecord(t, 1847, "clinic 2", 3306, 32),
		mustRecord(t, 1848, "clinic 1", 3556, 45),
	}
}

func TestFilterByClinicAll(t *testing.T) {
	records := sampleRecords(t)
	for _, sel := range []string{AllClinics, "ALL", "", "  "} {
		got := FilterByClinic(records, sel)
		require.Len(t, got, len(records), "selector %q", sel)
		assert.Equal(t, records, got, "selector %q must preserve order", sel)
	}

	got := FilterByClinic(records, AllClinics)
	got[0].Clinic = "mutated"
	assert.Equal(t, "clinic 1", records[0].Clinic, "filter must not alias input")
}

func TestFilterByClinicConcrete(t *testing.T) {
	records := sampleRecords(t)

	got := FilterByClinic(records, "clinic 2")
	require.Len(t, got, 3)
	for _, r := range got {
		assert.Equal(t, "clinic 2", r.Clinic)
	}
	assert.Equal(t, []int{1845, 1846, 1847}, []int{got[0].Year, got[1].Year, got[2].Year})

	assert.Empty(t, FilterByClinic(records, "clinic 3"))
	assert.Empty(t, FilterByClinic(records, "Clinic 1"), "clinic match is exact")
}

func TestFilterUnionCoversDatasetOnce(t *testing.T) {
	records := sampleRecords(t)
	seen := map[Record]int{}
	total := 0
	for _, c := range Clinics(records) {
		for _, r := range FilterByClinic(records, c) {
			seen[r]++
			total++
		}
	}
	assert.Equal(t, len(records), total)
	for _, r := range records {
		assert.Equal(t, 1, seen[r], "record %+v", r)
	}
}

func TestClinicsSortedDistinct(t *testing.T) {
	records := []Record{
		mustRecord(t, 1841, "b", 1, 0),
		mustRecord(t, 1841, "a", 1, 0),
		mustRecord(t, 1842, "b", 1, 0),
		mustRecord(t, 1842, "c", 1, 0),
	}
	assert.Equal(t, []string{"a", "b", "c"}, Clinics(records))
	assert.Empty(t, Clinics(nil))
	assert.True(t, HasClinic(records, "c"))
	assert.False(t, HasClinic(records, "d"))
}

func TestSplitEraTotalAndExclusive(t *testing.T) {
	records := sampleRecords(t)
	before, after := SplitEra(records, HandwashingYear)
	assert.Len(t, before, 4)
	assert.Len(t, after, 3)
	assert.Equal(t, len(records), len(before)+len(after))
	for _, r := range before {
		assert.Less(t, r.Year, HandwashingYear)
	}
	for _, r := range after {
		assert.GreaterOrEqual(t, r.Year, HandwashingYear)
	}
}

func TestSplitEraThresholdYearIsAfter(t *testing.T) {
	r := mustRecord(t, 1847, "A", 10, 1)
	before, after := SplitEra([]Record{r}, 1847)
	assert.Empty(t, before)
	assert.Equal(t, []Record{r}, after)
}

func TestMeanMortalitySkipsUndefined(t *testing.T) {
	records := []Record{
		mustRecord(t, 1841, "A", 100, 10),
		mustRecord(t, 1842, "A", 0, 4),
		mustRecord(t, 1843, "A", 100, 20),
	}
	mean, n, err := MeanMortality(records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.InDelta(t, 15.0, mean, 1e-9)

	_, _, err = MeanMortality(nil)
	assert.ErrorIs(t, err, ErrEmptyPartition)

	_, _, err = MeanMortality([]Record{mustRecord(t, 1841, "A", 0, 0)})
	assert.ErrorIs(t, err, ErrEmptyPartition)
}
