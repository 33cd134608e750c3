package voucher

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"
	"text/tabwriter"

	"mikrodesk/internal/api"
	"mikrodesk/internal/storage/models"
)

// Sheet is a printable set of voucher cards.
type Sheet struct {
	Vouchers []api.Voucher
	Price    string
	Currency string
	DNSName  string
}

// FromBatch builds a sheet from a generation result.
func FromBatch(batch *api.VoucherBatch, currency, dnsName string) *Sheet {
	return &Sheet{
		Vouchers: batch.Vouchers,
		Price:    batch.Price,
		Currency: currency,
		DNSName:  dnsName,
	}
}

// FromRecord rebuilds a sheet from a stored batch.
func FromRecord(rec *models.VoucherBatch, currency string) (*Sheet, error) {
	var vouchers []api.Voucher
	if err := json.Unmarshal(rec.Vouchers, &vouchers); err != nil {
		return nil, fmt.Errorf("failed to decode voucher batch %d: %w", rec.ID, err)
	}
	return &Sheet{Vouchers: vouchers, Price: rec.Price, Currency: currency, DNSName: rec.DNSName}, nil
}

// Record converts the sheet into a history entry.
func (s *Sheet) Record(connID, routerName, profile string) (*models.VoucherBatch, error) {
	data, err := json.Marshal(s.Vouchers)
	if err != nil {
		return nil, err
	}
	return &models.VoucherBatch{
		ConnectionID: connID,
		RouterName:   routerName,
		Profile:      profile,
		Price:        s.Price,
		DNSName:      s.DNSName,
		Count:        len(s.Vouchers),
		Vouchers:     data,
	}, nil
}

// PriceLabel is the price line printed on every card.
func (s *Sheet) PriceLabel() string {
	currency := s.Currency
	if currency == "" {
		currency = "LRD"
	}
	if strings.TrimSpace(s.Price) == "" {
		return ""
	}
	return s.Price + " " + currency
}

var sheetTemplate = template.Must(template.New("sheet").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>WiFi Vouchers</title>
<style>
body { font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; margin: 0; padding: 10px; background: #fff; }
.voucher-container { display: flex; flex-wrap: wrap; justify-content: center; }
.voucher { width: 250px; margin: 8px; border: 2px solid #000; border-radius: 6px; overflow: hidden; }
.header { background: #333; color: #fff; padding: 8px 0; text-align: center; font-size: 14px; font-weight: bold; letter-spacing: 0.5px; border-bottom: 2px solid #000; }
.content { padding: 12px; }
.row { display: flex; align-items: center; margin-bottom: 6px; padding-bottom: 6px; border-bottom: 1px dotted #999; }
.label { min-width: 70px; font-size: 12px; font-weight: bold; }
.value { font-family: monospace; font-size: 14px; font-weight: bold; background: #eee; padding: 3px 6px; border: 1px solid #999; border-radius: 3px; }
.price { margin-top: 10px; padding: 8px; border: 2px dashed #000; border-radius: 6px; display: flex; justify-content: space-between; align-items: center; }
.price-label { font-size: 12px; font-weight: bold; text-transform: uppercase; }
.price-amount { font-size: 18px; font-weight: bold; }
.dns { margin-top: 8px; padding: 5px; text-align: center; border-top: 1px solid #999; }
.dns-label { font-size: 10px; color: #666; text-transform: uppercase; }
.dns-value { font-family: monospace; font-size: 13px; font-weight: bold; }
@media print {
  @page { margin: 0.2cm; size: auto; }
  .voucher { page-break-inside: avoid; margin: 5px; print-color-adjust: exact; -webkit-print-color-adjust: exact; }
  .voucher-container { justify-content: flex-start; }
  .header { background-color: #333 !important; color: #fff !important; print-color-adjust: exact; -webkit-print-color-adjust: exact; }
}
</style>
</head>
<body>
<div class="voucher-container">
{{- range .Vouchers}}
<div class="voucher">
  <div class="header">WIFI VOUCHER</div>
  <div class="content">
    <div class="row"><div class="label">Profile:</div><div class="value">{{.Profile}}</div></div>
    <div class="row"><div class="label">Username:</div><div class="value">{{.Username}}</div></div>
    <div class="row"><div class="label">Password:</div><div class="value">{{.Password}}</div></div>
    {{- if $.PriceLabel}}
    <div class="price"><div class="price-label">Price</div><div class="price-amount">{{$.PriceLabel}}</div></div>
    {{- end}}
    <div class="dns"><div class="dns-label">Connect at</div><div class="dns-value">{{$.DNSName}}</div></div>
  </div>
</div>
{{- end}}
</div>
</body>
</html>
`))

// RenderHTML writes a self-contained print document with one card per
// voucher.
func (s *Sheet) RenderHTML(w io.Writer) error {
	return sheetTemplate.Execute(w, s)
}

// RenderText writes the vouchers as an aligned terminal table.
func (s *Sheet) RenderText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tUSERNAME\tPASSWORD\tPROFILE")
	for i, v := range s.Vouchers {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, v.Username, v.Password, v.Profile)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	var footer []string
	if p := s.PriceLabel(); p != "" {
		footer = append(footer, "Price: "+p)
	}
	if s.DNSName != "" {
		footer = append(footer, "Connect at: "+s.DNSName)
	}
	if len(footer) > 0 {
		_, err := fmt.Fprintf(w, "\n%s\n", strings.Join(footer, "   "))
		return err
	}
	return nil
}
