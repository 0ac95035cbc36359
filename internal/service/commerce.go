package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"go.uber.org/zap"

	"github.com/flownco2789-ui/codeai/internal/models"
	"github.com/flownco2789-ui/codeai/pkg/config"
)

// ProductResult is what a commerce provider returns for a payment link. A nil
// ProductURL is a valid answer meaning "no link available".
type ProductResult struct {
	ProductID  *string
	ProductURL *string
	Raw        models.JSONMap
}

// CommerceProvider creates payable products for enrollments.
type CommerceProvider interface {
	CreateProduct(ctx context.Context, title string, amount int64, enrollmentID int64) (*ProductResult, error)
}

// NewCommerceProvider picks the configured provider. Midtrans without a
// server key falls back to the stub.
func NewCommerceProvider(cfg config.CommerceConfig, logger *zap.Logger) CommerceProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Provider == config.CommerceProviderMidtrans {
		if cfg.MidtransServerKey == "" {
			logger.Warn("midtrans selected without server key, using stub commerce provider")
			return StubCommerce{}
		}
		return NewMidtransCommerce(cfg.MidtransServerKey, cfg.MidtransProduction)
	}
	return StubCommerce{}
}

// StubCommerce never produces a link.
type StubCommerce struct{}

func (StubCommerce) CreateProduct(_ context.Context, title string, amount int64, enrollmentID int64) (*ProductResult, error) {
	return &ProductResult{Raw: models.JSONMap{
		"provider":     config.CommerceProviderStub,
		"status":       "NOT_IMPLEMENTED",
		"title":        title,
		"amount":       amount,
		"enrollmentId": enrollmentID,
	}}, nil
}

type snapTransactor interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

// MidtransCommerce issues Snap transactions; the redirect URL is the payment link.
type MidtransCommerce struct {
	client snapTransactor
	now    func() time.Time
}

func NewMidtransCommerce(serverKey string, production bool) *MidtransCommerce {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	var client snap.Client
	client.New(serverKey, env)
	return &MidtransCommerce{client: &client, now: time.Now}
}

func (m *MidtransCommerce) CreateProduct(ctx context.Context, title string, amount int64, enrollmentID int64) (*ProductResult, error) {
	if amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	orderID := fmt.Sprintf("ENR-%d-%d", enrollmentID, m.now().Unix())
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: amount,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    orderID,
			Name:  truncateRunes(title, 50),
			Price: amount,
			Qty:   1,
		}},
	}

	resp, mErr := m.client.CreateTransaction(req)
	if mErr != nil {
		return nil, fmt.Errorf("midtrans create transaction (status %d): %s", mErr.StatusCode, mErr.Message)
	}
	if resp == nil {
		return nil, errors.New("midtrans returned no response")
	}

	result := &ProductResult{
		ProductID: &orderID,
		Raw: models.JSONMap{
			"provider":    config.CommerceProviderMidtrans,
			"orderId":     orderID,
			"token":       resp.Token,
			"redirectUrl": resp.RedirectURL,
		},
	}
	if resp.RedirectURL != "" {
		url := resp.RedirectURL
		result.ProductURL = &url
	}
	return result, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
