// Package threshold maps battery identifiers to warning ratios.
package threshold

import (
	"math"
	"sort"

	"codeberg.org/mutker/battwarn/internal/errors"
)

const ErrOutOfRange = errors.ErrorCode("threshold_out_of_range")

// Table is an immutable mapping from battery identifier to the ratio below
// which a warning fires. Identifiers missing from the table have threshold
// 0 and therefore never warn.
type Table struct {
	ratios map[string]float64
}

// New returns a Table holding a copy of ratios.
func New(ratios map[string]float64) Table {
	copied := make(map[string]float64, len(ratios))
	for id, ratio := range ratios {
		copied[id] = ratio
	}

	return Table{ratios: copied}
}

// For returns the threshold configured for id, or 0.
func (t Table) For(id string) float64 {
	return t.ratios[id]
}

// IDs returns the configured identifiers in sorted order.
func (t Table) IDs() []string {
	ids := make([]string, 0, len(t.ratios))
	for id := range t.ratios {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// Validate checks that every threshold is a ratio in [0,1].
func (t Table) Validate() error {
	for _, id := range t.IDs() {
		ratio := t.ratios[id]
		if ratio < 0 || ratio > 1 || math.IsNaN(ratio) {
			return errors.New().WithData(ErrOutOfRange, struct {
				Battery string
				Ratio   float64
			}{
				Battery: id,
				Ratio:   ratio,
			})
		}
	}

	return nil
}
