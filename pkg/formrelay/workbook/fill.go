// Package workbook fills and reads spreadsheet templates held in memory.
package workbook

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
)

// Open loads a workbook from bytes.
func Open(data []byte) (*excelize.File, error) {
	if len(data) == 0 {
		return nil, ErrEmptyTemplate
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return f, nil
}

// ResolveSheet returns sheet if it exists in f, or the active sheet when sheet is empty.
func ResolveSheet(f *excelize.File, sheet string) (string, error) {
	if sheet == "" {
		return f.GetSheetName(f.GetActiveSheetIndex()), nil
	}
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return "", err
	}
	if idx < 0 {
		return "", fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}
	return sheet, nil
}

// Fill writes values (cell coordinate -> value) into a sheet of the template
// and returns the serialized workbook. An empty sheet name selects the active sheet.
// Cells are written in sorted coordinate order.
func Fill(template []byte, sheet string, values map[string]any) ([]byte, error) {
	f, err := Open(template)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheetName, err := ResolveSheet(f, sheet)
	if err != nil {
		return nil, err
	}

	refs := make([]string, 0, len(values))
	for ref := range values {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	for _, ref := range refs {
		cell, err := NormalizeRef(ref)
		if err != nil {
			return nil, &CellError{SheetName: sheetName, Ref: ref, Err: err}
		}
		if err := f.SetCellValue(sheetName, cell, values[ref]); err != nil {
			return nil, &CellError{SheetName: sheetName, Ref: ref, Err: err}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadCells returns the formatted values of the named cells.
// The result is keyed by the refs exactly as given.
func ReadCells(data []byte, sheet string, refs []string) (map[string]string, error) {
	f, err := Open(data)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheetName, err := ResolveSheet(f, sheet)
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(refs))
	for _, ref := range refs {
		cell, err := NormalizeRef(ref)
		if err != nil {
			return nil, &CellError{SheetName: sheetName, Ref: ref, Err: err}
		}
		v, err := f.GetCellValue(sheetName, cell)
		if err != nil {
			return nil, &CellError{SheetName: sheetName, Ref: ref, Err: err}
		}
		result[ref] = v
	}
	return result, nil
}
