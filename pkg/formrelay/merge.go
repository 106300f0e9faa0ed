package formrelay

import (
	"github.com/ukaji3/formrelay-go/pkg/formrelay/models"
	"github.com/ukaji3/formrelay-go/pkg/formrelay/workbook"
)

// BuildCellValues maps cell coordinates to submitted values by intersecting
// the cell-table names with the names in form.Software.
//
// When a name appears more than once in entries, its last cell index is used.
// When two names share a cell, the name listed later in entries wins.
// Cells are keyed by their canonical coordinate, so "b2" and "$B$2" name
// the same cell. Malformed cell indexes are kept as given for the fill
// step to reject.
func BuildCellValues(entries []models.CellTableEntry, form models.FormData) map[string]any {
	var names []string
	cellByName := make(map[string]string, len(entries))
	for _, e := range entries {
		if _, seen := cellByName[e.Name]; !seen {
			names = append(names, e.Name)
		}
		cellByName[e.Name] = e.CellIndex
	}

	values := make(map[string]any)
	for _, name := range names {
		cell := cellByName[name]
		if cell == "" {
			continue
		}
		if v, ok := form.Software[name]; ok {
			if ref, err := workbook.NormalizeRef(cell); err == nil {
				cell = ref
			}
			values[cell] = v
		}
	}
	return values
}
