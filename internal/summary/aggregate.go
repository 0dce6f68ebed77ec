package summary

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"cohorttab/internal/dataset"
	apperrors "cohorttab/internal/errors"
)

// GroupKey identifies one partition of the dataset.
type GroupKey struct {
	Sex       string
	Inclusion string
}

// ColumnKey combines the two grouping values with a fixed separator so
// downstream column selection by name is stable.
func (k GroupKey) ColumnKey() string {
	return k.Sex + "_" + k.Inclusion
}

// AggregateRow is one long-form result: the mean and sample standard
// deviation of one variable within one partition.
type AggregateRow struct {
	Sex       string
	Inclusion string
	Variable  string
	Mean      float64
	SD        float64
	N         int
}

// Key returns the row's group key.
func (r AggregateRow) Key() GroupKey {
	return GroupKey{Sex: r.Sex, Inclusion: r.Inclusion}
}

// Partition splits records into an explicit partition map keyed by
// (sex, inclusion). Combinations absent from the data produce no entry.
func Partition(records []dataset.DerivedRecord) map[GroupKey][]dataset.DerivedRecord {
	partitions := make(map[GroupKey][]dataset.DerivedRecord)
	for _, record := range records {
		key := GroupKey{Sex: record.Sex, Inclusion: record.Inclusion}
		partitions[key] = append(partitions[key], record)
	}
	return partitions
}

// sortedKeys returns the partition keys in deterministic order.
func sortedKeys(partitions map[GroupKey][]dataset.DerivedRecord) []GroupKey {
	keys := make([]GroupKey, 0, len(partitions))
	for key := range partitions {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Sex != keys[j].Sex {
			return keys[i].Sex < keys[j].Sex
		}
		return keys[i].Inclusion < keys[j].Inclusion
	})
	return keys
}

// Aggregate computes mean and sample standard deviation (n−1 denominator)
// for every configured variable within every partition present in the data.
// Variables are processed independently over a long representation, so
// extending the variable set never restructures the pipeline. A partition
// with a single member yields a NaN standard deviation; that is accepted and
// flows through to the formatter unmasked.
func Aggregate(ctx context.Context, logger *slog.Logger, records []dataset.DerivedRecord, variables []string) ([]AggregateRow, error) {
	if logger == nil {
		logger = slog.Default()
	}

	partitions := Partition(records)
	keys := sortedKeys(partitions)

	rows := make([]AggregateRow, 0, len(keys)*len(variables))
	for _, key := range keys {
		members := partitions[key]
		for _, variable := range variables {
			values := make([]float64, 0, len(members))
			for _, member := range members {
				value, ok := member.Value(variable)
				if !ok {
					return nil, apperrors.NewConfigError(
						fmt.Sprintf("unknown variable %q in configured variable set", variable), nil)
				}
				values = append(values, value)
			}

			rows = append(rows, AggregateRow{
				Sex:       key.Sex,
				Inclusion: key.Inclusion,
				Variable:  variable,
				Mean:      stat.Mean(values, nil),
				SD:        stat.StdDev(values, nil),
				N:         len(values),
			})
		}
	}

	logger.InfoContext(ctx, "aggregated dataset",
		slog.Int("partition_count", len(keys)),
		slog.Int("variable_count", len(variables)),
		slog.Int("row_count", len(rows)))

	return rows, nil
}
