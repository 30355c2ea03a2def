package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Gateway interface {
	CreateCharge(ctx context.Context, externalID string, buyer BuyerInfo, amount int64, items []ChargeItem, channel ChannelCode) (*ChargeResponse, error)
	CreateRefund(ctx context.Context, providerPaymentID string, amount int64, reason string) (*RefundResponse, error)
	GetPaymentStatus(ctx context.Context, externalID string) (*PaymentStatus, error)
	ExpireCharge(ctx context.Context, externalID string) error
	VerifySignature(r *http.Request) error
}

const (
	xenditBaseURL = "https://api.xendit.co"
	apiVersion    = "2024-11-11"
)

type xenditGateway struct {
	apiKey        string
	httpClient    *http.Client
	jakartaLoc    *time.Location
	failureURL    string
	successURL    string
	callbackToken string
}

func NewXenditGateway(apiKey string) Gateway {
	if apiKey == "" {
		logger.L().Warn("Xendit API key is empty")
	}

	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		logger.L().Error("failed to load Jakarta location, defaulting to UTC", zap.Error(err))
		loc = time.UTC
	}

	return &xenditGateway{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		jakartaLoc:    loc,
		failureURL:    os.Getenv("FAILURE_URL"),
		successURL:    os.Getenv("SUCCESS_URL"),
		callbackToken: os.Getenv("XENDIT_CALLBACK_TOKEN"),
	}
}

func (x *xenditGateway) CreateCharge(
	ctx context.Context,
	externalID string,
	buyer BuyerInfo,
	amount int64,
	items []ChargeItem,
	channel ChannelCode,
) (*ChargeResponse, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("external_id", externalID),
		zap.Int64("amount", amount),
		zap.String("channel", string(channel)),
	)

	phone := utils.NormalizePhoneID(buyer.Phone)
	expiry := time.Now().In(x.jakartaLoc).Add(24 * time.Hour).Format(time.RFC3339)

	body := map[string]interface{}{
		"reference_id":   externalID,
		"type":           "PAY",
		"country":        "ID",
		"currency":       "IDR",
		"request_amount": amount,
		"customer": map[string]interface{}{
			"type":         "INDIVIDUAL",
			"reference_id": externalID,
			"email":        buyer.Email,
			"individual_detail": map[string]interface{}{
				"given_names": buyer.Name,
			},
		},
		"metadata": map[string]interface{}{
			"items": items,
		},
		"channel_code": string(channel),
		"channel_properties": map[string]interface{}{
			"failure_return_url":    x.failureURL,
			"success_return_url":    x.successURL,
			"expires_at":            expiry,
			"payer_name":            buyer.Name,
			"display_name":          buyer.Name,
			"account_mobile_number": phone,
		},
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Error("Failed to marshal charge request", zap.Error(err))
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", xenditBaseURL+"/v3/payment_requests", bytes.NewBuffer(jsonBody))
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		return nil, err
	}

	req.SetBasicAuth(x.apiKey, "")
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("api-version", apiVersion)

	log.Info("Sending charge request to Xendit")

	resp, err := x.httpClient.Do(req)
	if err != nil {
		log.Error("Xendit request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("Failed to read response body", zap.Error(err))
		return nil, fmt.Errorf("failed to read xendit response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Error("Xendit returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, fmt.Errorf("xendit error: %s", string(bodyBytes))
	}

	var res xenditChargeResponse
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		log.Error("Failed decoding Xendit response", zap.Error(err))
		return nil, err
	}

	log.Info("Xendit charge created",
		zap.String("payment_id", res.PaymentRequestID),
		zap.String("status", res.Status),
	)

	var paymentCode string
	var invoiceURL string

	for _, action := range res.Actions {
		switch action.Descriptor {
		// Codes displayed to the user
		case "VIRTUAL_ACCOUNT_NUMBER", "PAYMENT_CODE", "QR_STRING":
			if paymentCode == "" {
				paymentCode = action.Value
			}
		// URLs for redirection
		case "WEB_URL", "DEEPLINK_URL":
			if invoiceURL == "" {
				invoiceURL = action.Value
			}
		}
	}

	expirationTime := time.Now().Add(24 * time.Hour)
	if res.ChannelProperties.ExpiresAt != nil {
		expirationTime = *res.ChannelProperties.ExpiresAt
	}

	return &ChargeResponse{
		ProviderPaymentID: res.PaymentRequestID,
		ExternalID:        res.ReferenceID,
		Amount:            res.RequestAmount,
		Status:            res.Status,
		PaymentCode:       paymentCode,
		InvoiceURL:        invoiceURL,
		ChannelCode:       res.ChannelCode,
		ExpiresAt:         expirationTime,
	}, nil
}

func (x *xenditGateway) CreateRefund(ctx context.Context, providerPaymentID string, amount int64, reason string) (*RefundResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("payment_id", providerPaymentID),
		zap.Int64("amount", amount),
	)

	body := map[string]interface{}{
		"payment_request_id": providerPaymentID,
		"amount":             amount,
		"currency":           "IDR",
		"reason":             reason,
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", xenditBaseURL+"/refunds", bytes.NewBuffer(jsonBody))
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		return nil, err
	}

	req.SetBasicAuth(x.apiKey, "")
	req.Header.Add("Content-Type", "application/json")
	// A retried refund call must not refund twice.
	req.Header.Add("idempotency-key", uuid.NewString())

	log.Info("Sending refund request to Xendit")

	resp, err := x.httpClient.Do(req)
	if err != nil {
		log.Error("Xendit refund request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read xendit response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Error("Xendit refund returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, fmt.Errorf("xendit refund error: %s", string(bodyBytes))
	}

	var res struct {
		ID     string `json:"id"`
		Amount int64  `json:"amount"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		log.Error("Failed decoding Xendit refund response", zap.Error(err))
		return nil, err
	}

	log.Info("Xendit refund created",
		zap.String("refund_id", res.ID),
		zap.String("status", res.Status),
	)

	return &RefundResponse{
		ProviderRefundID: res.ID,
		Amount:           res.Amount,
		Status:           res.Status,
	}, nil
}

func (x *xenditGateway) GetPaymentStatus(ctx context.Context, externalID string) (*PaymentStatus, error) {
	log := logger.FromCtx(ctx).With(zap.String("external_id", externalID))

	url := fmt.Sprintf("%s/v2/invoices?external_id=%s", xenditBaseURL, externalID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		log.Error("Failed building request", zap.Error(err))
		return nil, err
	}

	req.SetBasicAuth(x.apiKey, "")

	resp, err := x.httpClient.Do(req)
	if err != nil {
		log.Error("Request to Xendit failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read xendit response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error("Xendit returned error",
			zap.Int("http_status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, fmt.Errorf("xendit error: %s", string(bodyBytes))
	}

	var invoices []struct {
		Status string     `json:"status"`
		PaidAt *time.Time `json:"paid_at"`
	}
	if err := json.Unmarshal(bodyBytes, &invoices); err != nil {
		log.Error("Failed decoding invoice", zap.Error(err))
		return nil, err
	}

	if len(invoices) == 0 {
		log.Warn("Invoice not found")
		return nil, errors.New("invoice not found")
	}

	return &PaymentStatus{
		Status: invoices[0].Status,
		PaidAt: invoices[0].PaidAt,
	}, nil
}

func (x *xenditGateway) ExpireCharge(ctx context.Context, externalID string) error {
	log := logger.FromCtx(ctx).With(zap.String("external_id", externalID))

	url := fmt.Sprintf("%s/invoices/%s/expire!", xenditBaseURL, externalID)

	req, err := http.NewRequestWithContext(ctx, "POST", url, nil)
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		return err
	}

	req.SetBasicAuth(x.apiKey, "")

	resp, err := x.httpClient.Do(req)
	if err != nil {
		log.Error("Xendit request failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read xendit response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error("Failed to expire charge",
			zap.Int("http_status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return fmt.Errorf("xendit expire error: %s", string(bodyBytes))
	}

	log.Info("Charge expired")
	return nil
}

func (x *xenditGateway) VerifySignature(r *http.Request) error {
	sig := r.Header.Get("x-callback-token")
	expected := x.callbackToken

	if expected == "" {
		return nil // skip in dev
	}

	if sig != expected {
		return errors.New("invalid webhook signature")
	}
	return nil
}

type xenditChargeResponse struct {
	PaymentRequestID string `json:"payment_request_id"`
	ReferenceID      string `json:"reference_id"`
	RequestAmount    int64  `json:"request_amount"`
	Status           string `json:"status"`
	ChannelCode      string `json:"channel_code"`
	ChannelProperties struct {
		ExpiresAt *time.Time `json:"expires_at"`
	} `json:"channel_properties"`
	Actions []struct {
		Descriptor string `json:"descriptor"`
		Value      string `json:"value"`
	} `json:"actions"`
}
