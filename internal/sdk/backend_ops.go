package sdk

import (
	"context"

	"github.com/etopay/sigilwallet/internal/amount"
	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

// PurchaseRequest mirrors the backend's /transactions/create body
// (spec §6): a fiat-on-ramp purchase the host wants paid out on the
// active network.
type PurchaseRequest struct {
	Receiver      string
	Amount        amount.CryptoAmount
	ProductHash   string
	Reason        string
	PurchaseModel string
	AppData       map[string]string
}

// ExchangeRate is a supplemented read-only quote, not present in the
// minimal façade contract but implied by the purchase/swap endpoints
// of spec §6's backend table.
type ExchangeRate struct {
	NetworkKey   string
	QuotePerUnit amount.CryptoAmount
}

// StartKyc, CreatePurchaseRequest, ConfirmPurchase, and GetExchangeRate
// are supplemented, out-of-scope features (spec §1's Non-goals exclude
// the full purchase/KYC backend integration from this core's
// responsibility) kept here only as typed stubs so a host can compile
// against a stable interface without the core silently no-op'ing a
// financial operation.
func (s *SDK) StartKyc(_ context.Context) error {
	return sigilerr.ErrFeatureUnavailable
}

// CreatePurchaseRequest stubs the /transactions/create call.
func (s *SDK) CreatePurchaseRequest(_ context.Context, _ PurchaseRequest) (string, error) {
	return "", sigilerr.ErrFeatureUnavailable
}

// ConfirmPurchase stubs the /transactions/commit call.
func (s *SDK) ConfirmPurchase(_ context.Context, _ string, _ string) error {
	return sigilerr.ErrFeatureUnavailable
}

// GetExchangeRate stubs a fiat/crypto quote lookup.
func (s *SDK) GetExchangeRate(_ context.Context, _ string) (ExchangeRate, error) {
	return ExchangeRate{}, sigilerr.ErrFeatureUnavailable
}
