package integration

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

const APIBaseURL = "http://localhost:8081"

// SignConfirmation produces the gateway's HMAC over "<orderID>|<paymentID>"
// using the shared webhook secret from the environment.
func SignConfirmation(orderID, paymentID string) string {
	secret := os.Getenv("PAYMENT_SECRET")
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// RequireServer skips the test when no API server is listening.
func RequireServer(t *testing.T) {
	t.Helper()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(APIBaseURL + "/health")
	if err != nil {
		t.Skipf("API server not reachable at %s: %v", APIBaseURL, err)
	}
	resp.Body.Close()
}

// UniqueKey returns a fresh idempotency key per call.
func UniqueKey(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// UniqueEventID returns per-run event ids so reruns do not collide.
func UniqueEventID() string {
	return fmt.Sprintf("evt-it-%d", time.Now().UnixNano())
}

func LogTestStep(t *testing.T, format string, args ...interface{}) {
	t.Logf("STEP: "+format, args...)
}

func LogTestResult(t *testing.T, format string, args ...interface{}) {
	t.Logf("RESULT: "+format, args...)
}
