package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"quiz-studio/internal/domain"
)

// SheetName is the worksheet that holds exported questions.
const SheetName = "Questions"

var xlsxHeaders = []string{"#", "Type", "Question", "Data"}

// WriteXLSX writes one row per question. The Data column carries the
// question's canonical JSON and is the only column read back; the others
// are for people browsing the sheet.
func WriteXLSX(w io.Writer, qs []domain.Question) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(SheetName); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}
	if index, err := f.GetSheetIndex(SheetName); err == nil {
		f.SetActiveSheet(index)
	}

	for i, header := range xlsxHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, header); err != nil {
			return err
		}
	}

	for i, q := range qs {
		data, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("encode question %d: %w", i+1, err)
		}
		row := []any{i + 1, string(q.Kind()), q.Base().Question.Text, string(data)}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ReadXLSX reads questions from the first sheet whose header row has a
// Data column. Blank rows are skipped.
func ReadXLSX(r io.Reader) ([]domain.Question, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedImport, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", domain.ErrMalformedImport)
	}
	sheet := SheetName
	if idx, _ := f.GetSheetIndex(SheetName); idx < 0 {
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", domain.ErrMalformedImport, sheet)
	}

	col := -1
	for i, header := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(header), "data") {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%w: no Data column", domain.ErrMalformedImport)
	}

	qs := make([]domain.Question, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if col >= len(row) || strings.TrimSpace(row[col]) == "" {
			continue
		}
		qs = append(qs, domain.UnmarshalQuestion([]byte(row[col])))
	}
	return qs, nil
}
