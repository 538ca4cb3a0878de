// Package snapshot reads tabular product feeds. A snapshot is one
// point-in-time export with the required columns xmlid, description, price;
// two generations (current and previous) drive the differ.
package snapshot

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/smart-dostup/marketsync/internal/errs"
	"github.com/smart-dostup/marketsync/internal/models"
)

// Required column headers, matched case-insensitively.
const (
	ColumnID          = "xmlid"
	ColumnDescription = "description"
	ColumnPrice       = "price"
)

// Read parses the snapshot at path. XLSX is detected by extension; anything
// else is treated as CSV. Duplicate identifiers are preserved in file order;
// the differ resolves them (last occurrence wins).
func Read(path string) ([]models.ProductRecord, error) {
	var (
		rows [][]string
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		rows, err = readXLSX(path)
	} else {
		rows, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}
	return parseRows(path, rows)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read snapshot %s: %w", path, err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &errs.MalformedSnapshotError{Path: path, Reason: "workbook has no sheets"}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return rows, nil
}

func parseRows(path string, rows [][]string) ([]models.ProductRecord, error) {
	if len(rows) == 0 {
		return nil, &errs.MalformedSnapshotError{Path: path, Reason: "file is empty"}
	}

	idCol, descCol, priceCol := -1, -1, -1
	for i, header := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(header)) {
		case ColumnID:
			idCol = i
		case ColumnDescription:
			descCol = i
		case ColumnPrice:
			priceCol = i
		}
	}
	if idCol < 0 {
		return nil, &errs.MalformedSnapshotError{Path: path, Reason: "missing column " + ColumnID}
	}
	if descCol < 0 {
		return nil, &errs.MalformedSnapshotError{Path: path, Reason: "missing column " + ColumnDescription}
	}
	if priceCol < 0 {
		return nil, &errs.MalformedSnapshotError{Path: path, Reason: "missing column " + ColumnPrice}
	}

	records := make([]models.ProductRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if blankRow(row) {
			continue
		}

		id := strings.TrimSpace(cell(row, idCol))
		if id == "" {
			return nil, &errs.MalformedSnapshotError{
				Path:   path,
				Reason: fmt.Sprintf("empty %s in row %d", ColumnID, n+2),
			}
		}

		priceText := strings.TrimSpace(cell(row, priceCol))
		price, err := strconv.ParseFloat(priceText, 64)
		if err != nil {
			return nil, &errs.MalformedSnapshotError{
				Path:   path,
				Reason: fmt.Sprintf("invalid %s %q in row %d", ColumnPrice, priceText, n+2),
			}
		}

		records = append(records, models.ProductRecord{
			ID:          id,
			Description: cell(row, descCol),
			Price:       price,
		})
	}
	return records, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
