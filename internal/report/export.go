package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"mikrodesk/internal/api"
	pkgerrors "mikrodesk/pkg/errors"
)

// SheetName is the worksheet holding exported transactions.
const SheetName = "Transactions"

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

type column struct {
	title string
	width float64
}

var columns = []column{
	{"Voucher Name", 15},
	{"Profile", 15},
	{"Batch", 20},
	{"First Login Date", 12},
	{"First Login Time", 10},
	{"Last Login Date", 12},
	{"Last Login Time", 10},
	{"IP Address", 15},
	{"MAC Address", 18},
	{"Price", 10},
	{"Usage Duration", 15},
	{"Login Count", 10},
	{"Comment", 30},
}

// Header returns the export column titles.
func Header() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.title
	}
	return out
}

// ExportRows flattens transactions into export rows, one per transaction.
func ExportRows(txs []api.Transaction) [][]string {
	rows := make([][]string, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, []string{
			t.VoucherName,
			t.Profile,
			t.BatchName,
			t.FirstLoginDate,
			t.FirstLoginTime,
			t.LastLoginDate,
			t.LastLoginTime,
			t.IPAddress,
			t.MacAddress,
			t.Price,
			t.UsageDurationFormatted,
			strconv.Itoa(t.LoginCount),
			t.Comment,
		})
	}
	return rows
}

// WriteCSV writes a header line followed by one record per transaction.
func WriteCSV(w io.Writer, txs []api.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	if err := cw.WriteAll(ExportRows(txs)); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// ReadCSV reads rows written by WriteCSV, without the header.
func ReadCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(columns)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}

// WriteXLSX writes a workbook with a single Transactions sheet.
func WriteXLSX(w io.Writer, txs []api.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c.title
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, name, name, c.width); err != nil {
			return err
		}
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, bold); err != nil {
		return err
	}

	for i, t := range txs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			t.VoucherName, t.Profile, t.BatchName,
			t.FirstLoginDate, t.FirstLoginTime, t.LastLoginDate, t.LastLoginTime,
			t.IPAddress, t.MacAddress, t.Price, t.UsageDurationFormatted,
			t.LoginCount, t.Comment,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

// ReadXLSX reads rows written by WriteXLSX, without the header. Short rows
// are padded to the full column count.
func ReadXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	out := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		for len(row) < len(columns) {
			row = append(row, "")
		}
		out = append(out, row)
	}
	return out, nil
}

// NormalizeFormat maps user input onto a supported export format.
func NormalizeFormat(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", pkgerrors.ErrExportFormat, kind)
	}
}

// FileName returns the export file name for kind on the day of now.
func FileName(kind string, now time.Time) string {
	label, ext := "csv", "csv"
	if kind == FormatXLSX {
		label, ext = "excel", "xlsx"
	}
	return fmt.Sprintf("hotspot-transactions-%s-%s.%s", label, now.Format("2006-01-02"), ext)
}

// Export writes txs into dir in the requested format and returns the
// created file path.
func Export(dir, kind string, txs []api.Transaction, now time.Time) (string, error) {
	if len(txs) == 0 {
		return "", pkgerrors.ErrNothingToExport
	}
	kind, err := NormalizeFormat(kind)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, FileName(kind, now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if kind == FormatCSV {
		err = WriteCSV(f, txs)
	} else {
		err = WriteXLSX(f, txs)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
