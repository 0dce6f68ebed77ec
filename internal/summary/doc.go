// Package summary computes per-group statistics and shapes them for
// presentation: partition by (sex, inclusion), mean and sample SD per
// variable, fixed one-decimal "mean (sd)" cells, long-to-wide pivot.
package summary
