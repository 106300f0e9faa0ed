package workbook

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// NormalizeRef validates a cell coordinate and returns its canonical form.
// Absolute markers and surrounding space are dropped and the column is upper-cased,
// so " $b$7" becomes "B7".
func NormalizeRef(ref string) (string, error) {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(ref), "$", ""))
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidCellRef)
	}

	col, row, err := excelize.CellNameToCoordinates(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidCellRef, ref, err)
	}

	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidCellRef, ref, err)
	}
	return name, nil
}
