package models

// Cell represents a single non-empty cell of a template sheet.
type Cell struct {
	// Ref is the cell coordinate (e.g., "B7").
	Ref string `json:"ref"`
	// R is the row index (1-based).
	R int `json:"r"`
	// C is the column index (1-based).
	C int `json:"c"`
	// Value is the cell value, parsed as int64 or float64 when numeric.
	Value interface{} `json:"value"`
}

// TemplateInfo summarizes the contents of one template sheet.
type TemplateInfo struct {
	// BookName is the template file name (no path).
	BookName string `json:"book_name"`
	// SheetName is the inspected sheet.
	SheetName string `json:"sheet_name"`
	// UsedRange is the bounding range of non-empty cells (e.g., "A1:D10"), empty for a blank sheet.
	UsedRange string `json:"used_range,omitempty"`
	// Cells lists non-empty cells in row-major order.
	Cells []Cell `json:"cells"`
}
