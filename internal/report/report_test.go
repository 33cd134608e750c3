package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mikrodesk/internal/api"
	pkgerrors "mikrodesk/pkg/errors"
)

func sampleTransactions(n int) []api.Transaction {
	txs := make([]api.Transaction, n)
	for i := range txs {
		txs[i] = api.Transaction{
			VoucherName:            fmt.Sprintf("VC%03d", i),
			Profile:                "1hour",
			BatchName:              "vc-001",
			FirstLoginDate:         "2026-03-15",
			FirstLoginTime:         "08:00:00",
			IPAddress:              "10.5.50.2",
			MacAddress:             "AA:BB:CC:DD:EE:FF",
			Price:                  "25 LRD",
			LoginCount:             i + 1,
			UsageDurationFormatted: "1h",
		}
	}
	// Commas and quotes must survive CSV quoting; an empty trailing
	// comment must survive XLSX.
	txs[0].Comment = `paid cash, "front desk"`
	return txs
}

func TestExportRowsShape(t *testing.T) {
	rows := ExportRows(sampleTransactions(2))
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 13)
	assert.Len(t, Header(), 13)
	assert.Equal(t, "Voucher Name", Header()[0])
	assert.Equal(t, "Comment", Header()[12])
	assert.Equal(t, "2", rows[1][11])
}

func TestCSVRoundTrip(t *testing.T) {
	txs := sampleTransactions(7)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, txs))

	rows, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, rows, len(txs))
	for i, tx := range txs {
		assert.Equal(t, tx.VoucherName, rows[i][0])
	}
	assert.Equal(t, txs[0].Comment, rows[0][12])
}

func TestXLSXRoundTrip(t *testing.T) {
	txs := sampleTransactions(12)
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, txs))

	rows, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, len(txs))
	for i, tx := range txs {
		assert.Equal(t, tx.VoucherName, rows[i][0])
		assert.Len(t, rows[i], 13)
	}
	assert.Equal(t, "12", rows[11][11])
}

func TestExportWritesFile(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	path, err := Export(dir, "excel", sampleTransactions(3), now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "hotspot-transactions-excel-2026-10-19.xlsx"), path)

	path, err = Export(dir, "CSV", sampleTransactions(3), now)
	require.NoError(t, err)
	assert.Equal(t, "hotspot-transactions-csv-2026-10-19.csv", filepath.Base(path))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := ReadCSV(f)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestExportErrors(t *testing.T) {
	_, err := Export(t.TempDir(), "csv", nil, time.Now())
	assert.ErrorIs(t, err, pkgerrors.ErrNothingToExport)

	_, err = Export(t.TempDir(), "pdf", sampleTransactions(1), time.Now())
	assert.ErrorIs(t, err, pkgerrors.ErrExportFormat)
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "1,250.5 LRD", FormatCurrency(1250.5, ""))
	assert.Equal(t, "0 USD", FormatCurrency(0, "USD"))
	assert.Equal(t, "1,000,000 LRD", FormatCurrency(1e6, "LRD"))
}

func TestFormatChartDate(t *testing.T) {
	assert.Equal(t, "March 15, 2026", FormatChartDate("2026-03-15", ViewDaily))
	assert.Equal(t, "March 2026", FormatChartDate("2026-03", ViewMonthly))
	assert.Equal(t, "garbage", FormatChartDate("garbage", ViewDaily))
}
