package workbook

import (
	"github.com/ukaji3/formrelay-go/pkg/formrelay/models"
)

// Inspect summarizes one sheet of a workbook held in memory.
func Inspect(data []byte, bookName, sheet string) (*models.TemplateInfo, error) {
	f, err := Open(data)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheetName, err := ResolveSheet(f, sheet)
	if err != nil {
		return nil, err
	}

	cells, err := ExtractCells(f, sheetName)
	if err != nil {
		return nil, err
	}
	used, err := UsedRange(f, sheetName)
	if err != nil {
		return nil, err
	}

	return &models.TemplateInfo{
		BookName:  bookName,
		SheetName: sheetName,
		UsedRange: used,
		Cells:     cells,
	}, nil
}
