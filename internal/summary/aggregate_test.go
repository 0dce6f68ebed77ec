package summary

import (
	"context"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cohorttab/internal/dataset"
	apperrors "cohorttab/internal/errors"
)

func testRecords() []dataset.DerivedRecord {
	return []dataset.DerivedRecord{
		{Subject: "S001", Sex: "F", Inclusion: "incl", Age: 20, Height: 160, Weight: 55, LeanBodyPct: 70},
		{Subject: "S002", Sex: "F", Inclusion: "incl", Age: 24, Height: 164, Weight: 59, LeanBodyPct: 72},
		{Subject: "S003", Sex: "M", Inclusion: "incl", Age: 30, Height: 180, Weight: 80, LeanBodyPct: 78},
		{Subject: "S004", Sex: "M", Inclusion: "incl", Age: 34, Height: 178, Weight: 84, LeanBodyPct: 76},
		{Subject: "S005", Sex: "M", Inclusion: "excl", Age: 41, Height: 175, Weight: 90, LeanBodyPct: 68},
	}
}

func TestPartition(t *testing.T) {
	partitions := Partition(testRecords())

	require.Len(t, partitions, 3)
	assert.Len(t, partitions[GroupKey{Sex: "F", Inclusion: "incl"}], 2)
	assert.Len(t, partitions[GroupKey{Sex: "M", Inclusion: "incl"}], 2)
	assert.Len(t, partitions[GroupKey{Sex: "M", Inclusion: "excl"}], 1)

	_, present := partitions[GroupKey{Sex: "F", Inclusion: "excl"}]
	assert.False(t, present, "absent combinations must not produce partitions")
}

func TestAggregate_RowCountLaw(t *testing.T) {
	variables := []string{dataset.VarAge, dataset.VarHeight, dataset.VarWeight, dataset.VarLeanPct}

	rows, err := Aggregate(context.Background(), slog.Default(), testRecords(), variables)
	require.NoError(t, err)

	// |distinct (sex, inclusion) pairs present| x |configured variable set|
	assert.Len(t, rows, 3*len(variables))
}

func TestAggregate_MeanAndSampleSD(t *testing.T) {
	records := []dataset.DerivedRecord{
		{Sex: "F", Inclusion: "incl", Age: 20},
		{Sex: "F", Inclusion: "incl", Age: 24},
	}

	rows, err := Aggregate(context.Background(), slog.Default(), records, []string{dataset.VarAge})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "F", row.Sex)
	assert.Equal(t, "incl", row.Inclusion)
	assert.Equal(t, dataset.VarAge, row.Variable)
	assert.Equal(t, 2, row.N)
	assert.InDelta(t, 22.0, row.Mean, 1e-9)
	// sample standard deviation, n-1 denominator
	assert.InDelta(t, 2.8284271247461903, row.SD, 1e-9)
	assert.Equal(t, "22.0 (2.8)", FormatCell(row.Mean, row.SD))
}

func TestAggregate_SingleMemberPartitionSDIsNaN(t *testing.T) {
	records := []dataset.DerivedRecord{
		{Sex: "M", Inclusion: "excl", Age: 41},
	}

	rows, err := Aggregate(context.Background(), slog.Default(), records, []string{dataset.VarAge})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.InDelta(t, 41.0, rows[0].Mean, 1e-9)
	assert.True(t, math.IsNaN(rows[0].SD))
	assert.Equal(t, "41.0 (NaN)", FormatCell(rows[0].Mean, rows[0].SD))
}

func TestAggregate_DeterministicOrder(t *testing.T) {
	variables := []string{dataset.VarAge, dataset.VarWeight}

	rows, err := Aggregate(context.Background(), slog.Default(), testRecords(), variables)
	require.NoError(t, err)
	require.Len(t, rows, 6)

	// Groups sorted by sex then inclusion, variables in configured order.
	wantKeys := []GroupKey{
		{Sex: "F", Inclusion: "incl"},
		{Sex: "M", Inclusion: "excl"},
		{Sex: "M", Inclusion: "incl"},
	}
	for i, key := range wantKeys {
		assert.Equal(t, key, rows[i*2].Key())
		assert.Equal(t, dataset.VarAge, rows[i*2].Variable)
		assert.Equal(t, dataset.VarWeight, rows[i*2+1].Variable)
	}
}

func TestAggregate_UnknownVariable(t *testing.T) {
	_, err := Aggregate(context.Background(), slog.Default(), testRecords(), []string{"bmi"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}
