package workbook

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyTemplate indicates the template bytes are nil or empty.
	ErrEmptyTemplate = errors.New("empty template")
	// ErrSheetNotFound indicates the requested sheet does not exist in the workbook.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrInvalidCellRef indicates a malformed cell coordinate.
	ErrInvalidCellRef = errors.New("invalid cell reference")
)

// CellError represents a failure to read or write a single cell.
type CellError struct {
	SheetName string
	Ref       string
	Err       error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("cell %q in sheet %q: %v", e.Ref, e.SheetName, e.Err)
}

func (e *CellError) Unwrap() error {
	return e.Err
}
