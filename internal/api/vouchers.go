package api

import (
	"context"
	"net/http"
)

// GenerateVouchers asks the router to create a batch of voucher users.
func (c *Client) GenerateVouchers(ctx context.Context, connID string, req VoucherRequest) (*VoucherBatch, error) {
	path, err := scoped(connID, "/hotspot-vouchers")
	if err != nil {
		return nil, err
	}
	var batch VoucherBatch
	if _, err := c.do(ctx, http.MethodPost, path, req, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// Transactions returns the voucher revenue report.
func (c *Client) Transactions(ctx context.Context, connID string) (*Report, error) {
	var report Report
	if err := c.get(ctx, connID, "/voucher-transactions", &report); err != nil {
		return nil, err
	}
	return &report, nil
}
