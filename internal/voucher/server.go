package voucher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Handler serves the sheet: the print page at / and the raw vouchers at
// /vouchers.json.
func Handler(sheet *Sheet, log logrus.FieldLogger) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := sheet.RenderHTML(w); err != nil {
			log.WithError(err).Error("failed to render voucher sheet")
		}
	}).Methods(http.MethodGet)
	r.HandleFunc("/vouchers.json", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(map[string]interface{}{
			"vouchers": sheet.Vouchers,
			"price":    sheet.Price,
			"dnsName":  sheet.DNSName,
		})
		if err != nil {
			log.WithError(err).Error("failed to encode vouchers")
		}
	}).Methods(http.MethodGet)
	return r
}

// Serve exposes the sheet on addr until ctx is cancelled. ready, when not
// nil, receives the URL to open once the listener is bound.
func Serve(ctx context.Context, addr string, sheet *Sheet, log logrus.FieldLogger, ready func(url string)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           Handler(sheet, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	url := "http://" + ln.Addr().String() + "/"
	log.WithField("url", url).Info("serving voucher sheet")
	if ready != nil {
		ready(url)
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
