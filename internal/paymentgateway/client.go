// Package paymentgateway реализует клиент внешнего платёжного шлюза.
//
// Запрос на создание платёжного намерения подписывается общим секретом:
// HMAC-SHA256 от канонической конкатенации полей (см. lib/sign), чтобы шлюз
// мог позднее вернуть эквивалентно подписанный колбэк.
package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/magabrotheeeer/premium-entitlement/internal/config"
	"github.com/magabrotheeeer/premium-entitlement/internal/lib/sign"
)

const requestType = "captureWallet"

// Client клиент платёжного шлюза с ограниченным таймаутом запросов.
type Client struct {
	partnerCode string
	accessKey   string
	secretKey   string
	apiURL      string
	httpClient  *http.Client
}

// NewClient создаёт новый клиент шлюза из секции конфига.
func NewClient(cfg config.PaymentGateway) *Client {
	timeout := cfg.GatewayTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		partnerCode: cfg.PartnerCode,
		accessKey:   cfg.AccessKey,
		secretKey:   cfg.SecretKey,
		apiURL:      cfg.APIURL,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// CreateIntent отправляет подписанный запрос на создание платёжного намерения
// и возвращает URL для редиректа плательщика.
func (c *Client) CreateIntent(ctx context.Context, reqParams CreateIntentRequest) (*CreateIntentResponse, error) {
	const op = "paymentgateway.CreateIntent"

	requestID := c.partnerCode + strconv.FormatInt(time.Now().UnixMilli(), 10)
	signature := sign.Sign(c.secretKey, map[string]string{
		"accessKey":   c.accessKey,
		"amount":      strconv.FormatInt(reqParams.Amount, 10),
		"extraData":   reqParams.ExtraData,
		"ipnUrl":      reqParams.IpnURL,
		"orderId":     reqParams.OrderID,
		"orderInfo":   reqParams.OrderInfo,
		"partnerCode": c.partnerCode,
		"redirectUrl": reqParams.RedirectURL,
		"requestId":   requestID,
		"requestType": requestType,
	})

	payload := createIntentPayload{
		PartnerCode: c.partnerCode,
		AccessKey:   c.accessKey,
		RequestID:   requestID,
		Amount:      reqParams.Amount,
		OrderID:     reqParams.OrderID,
		OrderInfo:   reqParams.OrderInfo,
		RedirectURL: reqParams.RedirectURL,
		IpnURL:      reqParams.IpnURL,
		ExtraData:   reqParams.ExtraData,
		RequestType: requestType,
		Signature:   signature,
		Lang:        "en",
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var intentResp CreateIntentResponse
	if err := json.NewDecoder(resp.Body).Decode(&intentResp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if intentResp.ResultCode != 0 {
		return nil, fmt.Errorf("%s: gateway rejected intent: %s", op, intentResp.Message)
	}
	return &intentResp, nil
}
