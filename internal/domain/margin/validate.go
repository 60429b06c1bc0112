package margin

import "fmt"

// Mode selects the strictness of table validation.
type Mode int

const (
	// AllowGaps permits holes between consecutive ranges (category tables).
	AllowGaps Mode = iota

	// Contiguous requires each range to start exactly where the previous one
	// ends (group and task-item tables).
	Contiguous
)

// Violation message identifiers, consumed by the UI for translation.
const (
	MsgMinimumOverlap      = "minimum_overlap"
	MsgMaximumOverlap      = "maximum_overlap"
	MsgMinimumDiscontinued = "minimum_discontinued"
	MsgMinimumNegative     = "minimum_negative"
	MsgMaximumLessMinimum  = "maximum_less_minimum"
)

// Violation is a single validation failure keyed by a form field path
// (e.g. "margins[2].minimum") and a message identifier.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Validate checks the table for overlapping or, in Contiguous mode,
// discontinued ranges. Ranges are examined in ascending Minimum order and the
// pass stops at the first violation; only that violation is reported.
//
// The result is nil for a valid (or empty or single-range) table.
func Validate(t Table, mode Mode) []Violation {
	sorted := t.Sorted()

	for i, r := range sorted {
		if r.Minimum < 0 {
			return []Violation{{Path: fieldPath(i, "minimum"), Message: MsgMinimumNegative}}
		}
		if r.Maximum <= r.Minimum {
			return []Violation{{Path: fieldPath(i, "maximum"), Message: MsgMaximumLessMinimum}}
		}
	}

	if len(sorted) < 2 {
		return nil
	}

	lastMin := sorted[0].Minimum
	lastMax := sorted[0].Maximum

	for i := 1; i < len(sorted); i++ {
		min := sorted[i].Minimum
		max := sorted[i].Maximum

		switch {
		case min <= lastMin:
			return []Violation{{Path: fieldPath(i, "minimum"), Message: MsgMinimumOverlap}}
		case min >= lastMin && min < lastMax:
			return []Violation{{Path: fieldPath(i, "minimum"), Message: MsgMinimumOverlap}}
		case max > lastMin && max < lastMax:
			return []Violation{{Path: fieldPath(i, "maximum"), Message: MsgMaximumOverlap}}
		case mode == Contiguous && min != lastMax:
			return []Violation{{Path: fieldPath(i, "minimum"), Message: MsgMinimumDiscontinued}}
		}

		lastMin = min
		lastMax = max
	}

	return nil
}

func fieldPath(index int, field string) string {
	return fmt.Sprintf("margins[%d].%s", index, field)
}
