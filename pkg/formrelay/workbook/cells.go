package workbook

import (
	"strconv"

	"github.com/ukaji3/formrelay-go/pkg/formrelay/models"
	"github.com/xuri/excelize/v2"
)

// ExtractCells lists the non-empty cells of a sheet in row-major order.
func ExtractCells(f *excelize.File, sheetName string) ([]models.Cell, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	var result []models.Cell
	for rowIdx, row := range rows {
		rowNum := rowIdx + 1 // 1-based row index
		for colIdx, cellValue := range row {
			if cellValue == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(colIdx+1, rowNum)
			if err != nil {
				return nil, err
			}
			result = append(result, models.Cell{
				Ref:   ref,
				R:     rowNum,
				C:     colIdx + 1,
				Value: parseValue(cellValue),
			})
		}
	}

	return result, nil
}

// parseValue attempts to parse a string value as a number.
// Returns int64 for integers, float64 for decimals, or the original string.
func parseValue(s string) interface{} {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
