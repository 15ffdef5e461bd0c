package dashboard

import "recruitment-portal/internal/models"

// RowClass is the visual treatment of a list row.
type RowClass string

const (
	RowDefault  RowClass = "default"
	RowAmber    RowClass = "amber"
	RowGreen    RowClass = "green"
	RowRose     RowClass = "rose"
	RowSelected RowClass = "blue"
)

// Classify maps a status to its row class. Selection wins over status.
func Classify(s models.Status, selected bool) RowClass {
	if selected {
		return RowSelected
	}
	switch {
	case s.InProcess():
		return RowAmber
	case s == models.StatusHired:
		return RowGreen
	case s == models.StatusRejected:
		return RowRose
	default:
		return RowDefault
	}
}
