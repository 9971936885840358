package external

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PaymentClient talks to the payment provider. Order creation and
// cancellation go over HTTP; signature verification is local, against the
// provider's shared webhook secret.
type PaymentClient struct {
	baseURL    string
	keyID      string
	secret     string
	httpClient *http.Client
}

type PaymentConfig struct {
	BaseURL string
	KeyID   string
	Secret  string
	Timeout time.Duration
}

type OrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type OrderResponse struct {
	OrderID  string `json:"order_id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func NewPaymentClient(cfg PaymentConfig) *PaymentClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &PaymentClient{
		baseURL: cfg.BaseURL,
		keyID:   cfg.KeyID,
		secret:  cfg.Secret,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// CreateOrder registers a payable order with the provider and returns its
// identifier. The receipt ties the order back to the booking.
func (pc *PaymentClient) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	body := OrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.baseURL+"/v1/orders", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(pc.keyID, pc.secret)

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to create order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("order creation returned status %d", resp.StatusCode)
	}

	var result OrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode order response: %w", err)
	}

	if result.OrderID == "" {
		return "", fmt.Errorf("order creation returned empty order id")
	}

	return result.OrderID, nil
}

// VerifySignature checks the provider's HMAC-SHA256 signature over
// "<orderID>|<paymentID>". Comparison is constant-time.
func (pc *PaymentClient) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(pc.secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// CancelOrder tells the provider an order is no longer payable. Callers
// treat failures as best-effort; the booking state machine is the source
// of truth.
func (pc *PaymentClient) CancelOrder(ctx context.Context, orderID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.baseURL+"/v1/orders/"+orderID+"/cancel", nil)
	if err != nil {
		return fmt.Errorf("failed to build cancel request: %w", err)
	}
	req.SetBasicAuth(pc.keyID, pc.secret)

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("order cancel returned status %d", resp.StatusCode)
	}

	return nil
}
