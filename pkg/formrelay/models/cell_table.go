package models

// CellTableEntry maps a human-readable field name to a spreadsheet cell.
type CellTableEntry struct {
	// ID is the record store identifier.
	ID string `json:"id,omitempty"`
	// Name is the field name as used in FormData.Software.
	Name string `json:"name"`
	// CellIndex is the target cell coordinate (e.g., "B7").
	CellIndex string `json:"cell_index"`
}
