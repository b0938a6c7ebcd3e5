package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeTwoRecordExample(t *testing.T) {
	records := []Record{
		mustRecord(t, 1846, "A", 100, 10),
		mustRecord(t, 1847, "A", 100, 2),
	}
	s := Summarize(records, HandwashingYear)

	require.True(t, s.Before.OK)
	require.True(t, s.After.OK)
	assert.InDelta(t, 10.0, s.Before.Value, 1e-9)
	assert.InDelta(t, 2.0, s.After.Value, 1e-9)
	d, ok := s.Delta()
	require.True(t, ok)
	assert.InDelta(t, -8.0, d, 1e-9)

	assert.Equal(t, FormattedSummary{Before: "10.00%", After: "2.00%", Delta: "-8.00 pts"}, s.Format())
}

func TestSummarizeEmptyPartitions(t *testing.T) {
	onlyBefore := []Record{mustRecord(t, 1841, "A", 100, 7)}
	s := Summarize(onlyBefore, HandwashingYear)
	assert.True(t, s.Before.OK)
	assert.False(t, s.After.OK)
	_, ok := s.Delta()
	assert.False(t, ok)
	assert.Equal(t, FormattedSummary{Before: "7.00%", After: NoData, Delta: NoData}, s.Format())

	empty := Summarize(nil, HandwashingYear)
	assert.Equal(t, FormattedSummary{Before: NoData, After: NoData, Delta: NoData}, empty.Format())
}

func TestSummarizeCounts(t *testing.T) {
	s := Summarize(sampleRecords(t), HandwashingYear)
	assert.Equal(t, 4, s.Before.Count)
	assert.Equal(t, 3, s.After.Count)
	assert.Equal(t, HandwashingYear, s.Threshold)
	assert.Less(t, s.After.Value, s.Before.Value)
}

func TestPerClinicSummary(t *testing.T) {
	got := PerClinicSummary(sampleRecords(t), HandwashingYear)
	require.Len(t, got, 2)
	assert.Equal(t, "clinic 1", got[0].Clinic)
	assert.Equal(t, "clinic 2", got[1].Clinic)
	assert.Equal(t, 2, got[0].Before.Count)
	assert.Equal(t, 2, got[0].After.Count)
	assert.Equal(t, 1, got[1].After.Count)
}
