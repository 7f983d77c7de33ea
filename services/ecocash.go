package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/peaceghost-hub/EasyAccomodation/utils"
)

// EcoCash C2B gateway client. Initiate failures are surfaced to the caller so
// the payment record stays pending and the user can retry.

type EcoCashClient struct {
	BaseURL        string
	APIKey         string
	MerchantCode   string
	ReceiverMSISDN string
	Mode           string
	HTTPClient     *http.Client
}

func NewEcoCashClient() *EcoCashClient {
	baseURL := os.Getenv("ECOCASH_BASE_URL")
	if baseURL == "" {
		baseURL = "https://developers.ecocash.co.zw/api/ecocash_pay"
	}
	merchantCode := os.Getenv("ECOCASH_MERCHANT_ID")
	if merchantCode == "" {
		merchantCode = "08658"
	}
	mode := os.Getenv("ECOCASH_MODE")
	if mode == "" {
		mode = "sandbox"
	}
	return &EcoCashClient{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		APIKey:         os.Getenv("ECOCASH_API_KEY"),
		MerchantCode:   merchantCode,
		ReceiverMSISDN: utils.MSISDNInternational(os.Getenv("ECOCASH_RECEIVER_MSISDN")),
		Mode:           mode,
		HTTPClient:     &http.Client{Timeout: 20 * time.Second},
	}
}

type EcoCashCharge struct {
	CustomerMsisdn  string  `json:"customerMsisdn"`
	Amount          float64 `json:"amount"`
	Reason          string  `json:"reason"`
	Currency        string  `json:"currency"`
	SourceReference string  `json:"sourceReference"`
	MerchantCode    string  `json:"merchantCode"`
	PayeeMsisdn     string  `json:"payeeMsisdn"`
	CallbackURL     string  `json:"callbackUrl,omitempty"`
}

func (c *EcoCashClient) chargeURL() string {
	path := "/api/v2/payment/instant/c2b/sandbox"
	if c.Mode == "live" {
		path = "/api/v2/payment/instant/c2b/live"
	}
	return c.BaseURL + path
}

// InitiateCharge posts the charge request and returns the raw gateway
// response body for auditing.
func (c *EcoCashClient) InitiateCharge(charge EcoCashCharge) (string, error) {
	charge.MerchantCode = c.MerchantCode
	charge.PayeeMsisdn = c.ReceiverMSISDN

	body, err := json.Marshal(charge)
	if err != nil {
		return "", fmt.Errorf("encode charge: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.chargeURL(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build charge request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
