package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"district/internal/models"
)

// TestClient drives the booking API over HTTP.
type TestClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewTestClient(baseURL string) *TestClient {
	return &TestClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *TestClient) makeRequest(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response, wantStatus int) T {
	t.Helper()
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status %d, got %d: %s", wantStatus, resp.StatusCode, raw)
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return out
}

func (c *TestClient) SeedInventory(t *testing.T, req models.SeedInventoryRequest) models.InventorySnapshot {
	resp := c.makeRequest(t, "POST", "/api/inventory/seed", req)
	return decode[models.InventorySnapshot](t, resp, http.StatusCreated)
}

func (c *TestClient) GetEventInventory(t *testing.T, eventID string) []models.InventorySnapshot {
	resp := c.makeRequest(t, "GET", "/api/inventory/"+eventID, nil)
	return decode[[]models.InventorySnapshot](t, resp, http.StatusOK)
}

func (c *TestClient) CreateBooking(t *testing.T, req models.CreateBookingRequest) models.CreateBookingResponse {
	resp := c.makeRequest(t, "POST", "/api/bookings", req)
	return decode[models.CreateBookingResponse](t, resp, http.StatusCreated)
}

// CreateBookingRaw returns the raw response for callers asserting
// non-success statuses.
func (c *TestClient) CreateBookingRaw(t *testing.T, req models.CreateBookingRequest) *http.Response {
	return c.makeRequest(t, "POST", "/api/bookings", req)
}

func (c *TestClient) GetBooking(t *testing.T, id string) models.BookingResponse {
	resp := c.makeRequest(t, "GET", "/api/bookings/"+id, nil)
	return decode[models.BookingResponse](t, resp, http.StatusOK)
}

func (c *TestClient) ConfirmPayment(t *testing.T, bookingID string, req models.ConfirmPaymentRequest) models.BookingResponse {
	resp := c.makeRequest(t, "POST", "/api/bookings/"+bookingID+"/confirm", req)
	return decode[models.BookingResponse](t, resp, http.StatusOK)
}

func (c *TestClient) ConfirmPaymentRaw(t *testing.T, bookingID string, req models.ConfirmPaymentRequest) *http.Response {
	return c.makeRequest(t, "POST", "/api/bookings/"+bookingID+"/confirm", req)
}

func (c *TestClient) CancelBooking(t *testing.T, bookingID string) models.BookingResponse {
	resp := c.makeRequest(t, "POST", "/api/bookings/"+bookingID+"/cancel", map[string]string{"reason": "integration test"})
	return decode[models.BookingResponse](t, resp, http.StatusOK)
}

func (c *TestClient) JoinWaitlist(t *testing.T, eventID string, req models.JoinWaitlistRequest) models.JoinWaitlistResponse {
	resp := c.makeRequest(t, "POST", "/api/events/"+eventID+"/waitlist", req)
	return decode[models.JoinWaitlistResponse](t, resp, http.StatusCreated)
}

func (c *TestClient) GetWaitlistStatus(t *testing.T, id string) models.WaitlistStatusResponse {
	resp := c.makeRequest(t, "GET", "/api/waitlist/"+id, nil)
	return decode[models.WaitlistStatusResponse](t, resp, http.StatusOK)
}

func (c *TestClient) CreateTableSlot(t *testing.T, req models.CreateTableSlotRequest) models.TableSlotResponse {
	resp := c.makeRequest(t, "POST", "/api/tables", req)
	return decode[models.TableSlotResponse](t, resp, http.StatusCreated)
}

func (c *TestClient) ListTableSlots(t *testing.T) []models.TableSlotResponse {
	resp := c.makeRequest(t, "GET", "/api/tables", nil)
	return decode[[]models.TableSlotResponse](t, resp, http.StatusOK)
}

func (c *TestClient) BookTable(t *testing.T, slotID string, req models.BookTableRequest) models.CreateBookingResponse {
	resp := c.makeRequest(t, "POST", "/api/tables/"+slotID+"/book", req)
	return decode[models.CreateBookingResponse](t, resp, http.StatusCreated)
}

func (c *TestClient) BookTableRaw(t *testing.T, slotID string, req models.BookTableRequest) *http.Response {
	return c.makeRequest(t, "POST", "/api/tables/"+slotID+"/book", req)
}

func (c *TestClient) ListOutboxEvents(t *testing.T, status string) []models.OutboxEntryResponse {
	resp := c.makeRequest(t, "GET", "/api/outbox/events?status="+status, nil)
	return decode[[]models.OutboxEntryResponse](t, resp, http.StatusOK)
}
