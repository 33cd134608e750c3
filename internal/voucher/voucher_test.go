package voucher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mikrodesk/internal/api"
	"mikrodesk/internal/logger"
)

func batchOf(n int) *api.VoucherBatch {
	b := &api.VoucherBatch{Price: "25"}
	for i := 0; i < n; i++ {
		b.Vouchers = append(b.Vouchers, api.Voucher{
			Username: fmt.Sprintf("USR%02d", i),
			Password: fmt.Sprintf("PW%02d", i),
			Profile:  "1hour",
		})
	}
	return b
}

func TestRenderHTMLOneCardPerVoucher(t *testing.T) {
	sheet := FromBatch(batchOf(5), "", "hot.spot")
	var buf bytes.Buffer
	require.NoError(t, sheet.RenderHTML(&buf))
	html := buf.String()

	assert.Equal(t, 5, strings.Count(html, `<div class="voucher">`))
	assert.Equal(t, 5, strings.Count(html, "WIFI VOUCHER"))
	assert.Contains(t, html, "USR04")
	assert.Contains(t, html, "PW04")
	assert.Contains(t, html, "25 LRD")
	assert.Contains(t, html, "hot.spot")
}

func TestRenderHTMLEscapes(t *testing.T) {
	sheet := &Sheet{Vouchers: []api.Voucher{{Username: "<script>", Password: "x"}}}
	var buf bytes.Buffer
	require.NoError(t, sheet.RenderHTML(&buf))
	assert.NotContains(t, buf.String(), "<script>")
	assert.NotContains(t, buf.String(), `class="price"`)
}

func TestRenderText(t *testing.T) {
	sheet := FromBatch(batchOf(3), "USD", "login.net")
	var buf bytes.Buffer
	require.NoError(t, sheet.RenderText(&buf))
	out := buf.String()
	assert.Contains(t, out, "USERNAME")
	assert.Contains(t, out, "USR02")
	assert.Contains(t, out, "Price: 25 USD")
	assert.Contains(t, out, "Connect at: login.net")
}

func TestRecordRoundTrip(t *testing.T) {
	sheet := FromBatch(batchOf(4), "LRD", "hot.spot")
	rec, err := sheet.Record("c1", "shop", "1hour")
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Count)

	back, err := FromRecord(rec, "LRD")
	require.NoError(t, err)
	assert.Equal(t, sheet.Vouchers, back.Vouchers)
	assert.Equal(t, "hot.spot", back.DNSName)
}

func TestServe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	urls := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "127.0.0.1:0", FromBatch(batchOf(2), "", "hot.spot"), logger.Discard(), func(u string) { urls <- u })
	}()

	var base string
	select {
	case base = <-urls:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get(base)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, strings.Count(string(body), "WIFI VOUCHER"))

	resp, err = http.Get(base + "vouchers.json")
	require.NoError(t, err)
	var payload struct {
		Vouchers []api.Voucher `json:"vouchers"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	resp.Body.Close()
	assert.Len(t, payload.Vouchers, 2)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

// brokenWriter accepts headers but fails every body write.
type brokenWriter struct {
	header http.Header
}

func (w *brokenWriter) Header() http.Header       { return w.header }
func (w *brokenWriter) WriteHeader(int)           {}
func (w *brokenWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestHandlerLogsWriteFailures(t *testing.T) {
	log, hook := test.NewNullLogger()
	h := Handler(FromBatch(batchOf(2), "LRD", "hot.spot"), log)

	for _, path := range []string{"/", "/vouchers.json"} {
		hook.Reset()
		req, err := http.NewRequest(http.MethodGet, path, nil)
		require.NoError(t, err)
		h.ServeHTTP(&brokenWriter{header: http.Header{}}, req)

		entry := hook.LastEntry()
		require.NotNil(t, entry, path)
		assert.Equal(t, logrus.ErrorLevel, entry.Level)
		assert.ErrorIs(t, entry.Data[logrus.ErrorKey].(error), io.ErrClosedPipe)
	}
}
