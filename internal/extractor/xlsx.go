package extractor

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// produceXLSX streams every sheet row by row and emits one fragment per cell.
func produceXLSX(ctx context.Context, data []byte, emit func(string) error) error {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		if err := emitSheet(ctx, f, sheet, emit); err != nil {
			return err
		}
	}
	return nil
}

func emitSheet(ctx context.Context, f *excelize.File, sheet string, emit func(string) error) error {
	rows, err := f.Rows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		cols, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("read row in sheet %q: %w", sheet, err)
		}
		for _, cell := range cols {
			if err := emit(cell); err != nil {
				return err
			}
		}
	}
	return rows.Error()
}
