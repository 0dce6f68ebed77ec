package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	apperrors "cohorttab/internal/errors"
)

// Derive computes the lean body mass percentage and narrows the record to
// the presentation attributes. A zero denominator yields NaN; Derive never
// special-cases it, the caller decides what a non-finite value means.
func Derive(r Record) DerivedRecord {
	denominator := r.Fat + r.BoneMineral + r.Lean

	return DerivedRecord{
		Subject:     r.Subject,
		Age:         r.Age,
		Height:      r.Height,
		Weight:      r.Weight,
		LeanBodyPct: r.Lean / denominator * 100,
		Sex:         r.Sex,
		Inclusion:   r.Inclusion,
	}
}

// DeriveAll derives every record in the table. A non-finite derived value is
// surfaced as an undefined-statistic error rather than flowing downstream as
// a silent zero.
func DeriveAll(ctx context.Context, logger *slog.Logger, table *Table) ([]DerivedRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}

	derived := make([]DerivedRecord, 0, len(table.Records))
	for _, record := range table.Records {
		d := Derive(record)
		if math.IsNaN(d.LeanBodyPct) || math.IsInf(d.LeanBodyPct, 0) {
			return nil, apperrors.NewUndefinedError(
				fmt.Sprintf("lean body mass percentage undefined for subject %s (zero denominator)", record.Subject)).
				WithContext("subject", record.Subject)
		}
		derived = append(derived, d)
	}

	logger.InfoContext(ctx, "derived lean body mass percentage",
		slog.Int("record_count", len(derived)))

	return derived, nil
}
