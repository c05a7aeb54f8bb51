// Package catalogsheet converts product lists to and from xlsx workbooks.
package catalogsheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/xuri/excelize/v2"
)

const SheetName = "Products"

var header = []interface{}{"ID", "Name", "Description", "Price", "Stock", "Category", "Image", "Active"}

// RowError reports a data row that could not be parsed; Row is 1-based as shown in Excel.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Write renders products as a single-sheet workbook.
func Write(w io.Writer, products []model.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}

	for i, p := range products {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{p.ID, p.Name, p.Description, float64(p.Price), p.Stock, p.Category, p.Image, p.IsActive}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	_, err := f.WriteTo(w)
	return err
}

// Read parses the first sheet of a workbook. Rows without a name or with unparseable
// numbers are skipped and reported.
func Read(r io.Reader) ([]model.Product, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return []model.Product{}, nil, nil
	}

	products := make([]model.Product, 0, len(rows)-1)
	var rowErrs []RowError
	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlank(row) {
			continue
		}
		p, err := parseRow(row)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Reason: err.Error()})
			continue
		}
		products = append(products, p)
	}
	return products, rowErrs, nil
}

func parseRow(row []string) (model.Product, error) {
	col := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	p := model.Product{
		Name:        col(1),
		Description: col(2),
		Image:       col(6),
		IsActive:    true,
	}
	if p.Name == "" {
		return p, fmt.Errorf("name is required")
	}

	if v := col(0); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return p, fmt.Errorf("invalid id %q", v)
		}
		p.ID = uint(id)
	}
	if v := col(3); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil || price < 0 {
			return p, fmt.Errorf("invalid price %q", v)
		}
		p.Price = model.Money(price)
	}
	if v := col(4); v != "" {
		stock, err := strconv.Atoi(v)
		if err != nil || stock < 0 {
			return p, fmt.Errorf("invalid stock %q", v)
		}
		p.Stock = stock
	}
	if v := col(5); v != "" {
		category, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return p, fmt.Errorf("invalid category %q", v)
		}
		p.Category = uint(category)
	}
	if v := col(7); v != "" {
		active, err := strconv.ParseBool(strings.ToLower(v))
		if err != nil {
			return p, fmt.Errorf("invalid active flag %q", v)
		}
		p.IsActive = active
	}
	return p, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
