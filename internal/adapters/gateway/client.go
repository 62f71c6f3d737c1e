package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ezlumper/haulpass-cli/internal/domain"
	"github.com/ezlumper/haulpass-cli/internal/ports"
)

const maxResponseBytes = 1 << 20

// Client is the typed adapter over the single portal backend origin. It
// attaches the stored session cookie to every call, never caches responses,
// and never retries; retry policy belongs to callers.
type Client struct {
	BaseURL    string
	Cookie     string
	HTTPClient *http.Client
}

var _ ports.Gateway = (*Client)(nil)

type wireUser struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Phone string `json:"phone"`
}

type wireCompany struct {
	Name         string `json:"name"`
	MemberNumber string `json:"memberNumber"`
	PlanType     string `json:"planType"`
	Credits      int    `json:"credits"`
	CardOnFile   bool   `json:"cardOnFile"`
	BillingEmail string `json:"billingEmail"`
	BillingPhone string `json:"billingPhone"`
}

type meResponse struct {
	OK      bool        `json:"ok"`
	User    wireUser    `json:"user"`
	Company wireCompany `json:"company"`
}

type wireRequest struct {
	ID                 string    `json:"id"`
	Status             string    `json:"status"`
	RequestTier        string    `json:"requestTier"`
	DestinationAddress string    `json:"destinationAddress"`
	CreatedAt          time.Time `json:"createdAt"`
	CreditsUsed        int       `json:"creditsUsed"`
	BillAmountCents    int       `json:"billAmountCents"`
	PaymentMode        string    `json:"paymentMode"`
}

type requestListResponse struct {
	Items []wireRequest `json:"items"`
}

type createRequestBody struct {
	IdempotencyKey     string `json:"idempotency_key"`
	RequestTier        string `json:"request_tier"`
	RequestorName      string `json:"requestor_name"`
	RequestorContact   string `json:"requestor_email_or_phone"`
	DestinationAddress string `json:"destination_address"`
	PaymentPreference  string `json:"payment_preference"`
}

type createRequestResponse struct {
	OK        bool   `json:"ok"`
	RequestID string `json:"request_id"`
}

type wirePing struct {
	RecordedAt time.Time `json:"recordedAt"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	AccuracyM  float64   `json:"accuracyM"`
}

type trackingResponse struct {
	Request struct {
		DestinationLat *float64   `json:"destinationLat"`
		DestinationLng *float64   `json:"destinationLng"`
		TrackingPings  []wirePing `json:"trackingPings"`
	} `json:"request"`
}

type wireBillingItem struct {
	ID                 string    `json:"id"`
	CreatedAt          time.Time `json:"createdAt"`
	Status             string    `json:"status"`
	RequestTier        string    `json:"requestTier"`
	CreditsUsed        int       `json:"creditsUsed"`
	BillAmountCents    int       `json:"billAmountCents"`
	PaymentMode        string    `json:"paymentMode"`
	DestinationAddress string    `json:"destinationAddress"`
}

type billingHistoryResponse struct {
	Items []wireBillingItem `json:"items"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// serverError is the error envelope the backend uses for rejected calls.
type serverError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) Me(ctx context.Context) (domain.Session, error) {
	resp, err := c.do(ctx, http.MethodGet, "/me", nil)
	if err != nil {
		return domain.Session{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return domain.Session{}, domain.ErrUnauthenticated
	}
	if !is2xx(resp.StatusCode) {
		return domain.Session{}, transportError(resp)
	}

	var payload meResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return domain.Session{}, domain.ErrUnexpectedResponse
	}
	if !payload.OK {
		return domain.Session{}, domain.ErrUnexpectedResponse
	}

	return domain.Session{
		User: domain.User{
			Email: payload.User.Email,
			Role:  payload.User.Role,
			Phone: payload.User.Phone,
		},
		Company: domain.Company{
			Name:         payload.Company.Name,
			MemberNumber: payload.Company.MemberNumber,
			PlanType:     domain.PlanType(payload.Company.PlanType),
			Credits:      payload.Company.Credits,
			CardOnFile:   payload.Company.CardOnFile,
			BillingEmail: payload.Company.BillingEmail,
			BillingPhone: payload.Company.BillingPhone,
		},
	}, nil
}

func (c *Client) RequestMagicLink(ctx context.Context, memberNumber, email string) error {
	body := map[string]string{
		"haul_pass_member_number": memberNumber,
		"email":                   email,
	}
	resp, err := c.do(ctx, http.MethodPost, "/auth/magic-link", body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return c.checkOK(resp)
}

func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/auth/logout", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if !is2xx(resp.StatusCode) {
		return transportError(resp)
	}
	return nil
}

func (c *Client) UpdateAccount(ctx context.Context, update ports.AccountUpdate) error {
	body := map[string]string{}
	if update.CompanyName != "" {
		body["company_name"] = update.CompanyName
	}
	if update.BillingEmail != "" {
		body["billing_email"] = update.BillingEmail
	}
	if update.BillingPhone != "" {
		body["billing_phone"] = update.BillingPhone
	}
	if update.UserPhone != "" {
		body["user_phone"] = update.UserPhone
	}

	resp, err := c.do(ctx, http.MethodPatch, "/account", body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return c.checkOK(resp)
}

func (c *Client) SyncAccount(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/account/sync", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return c.checkOK(resp)
}

func (c *Client) ListRequests(ctx context.Context) ([]domain.ServiceRequest, error) {
	resp, err := c.do(ctx, http.MethodGet, "/requests", nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if !is2xx(resp.StatusCode) {
		return nil, transportError(resp)
	}

	var payload requestListResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return nil, domain.ErrUnexpectedResponse
	}

	requests := make([]domain.ServiceRequest, 0, len(payload.Items))
	for _, item := range payload.Items {
		requests = append(requests, domain.ServiceRequest{
			ID:                 domain.RequestID(item.ID),
			Status:             domain.RequestStatus(item.Status),
			RequestTier:        domain.RequestTier(item.RequestTier),
			DestinationAddress: item.DestinationAddress,
			CreatedAt:          item.CreatedAt,
			CreditsUsed:        item.CreditsUsed,
			BillAmountCents:    item.BillAmountCents,
			PaymentMode:        item.PaymentMode,
		})
	}
	return requests, nil
}

func (c *Client) CreateRequest(ctx context.Context, input ports.CreateRequestInput) (domain.RequestID, error) {
	body := createRequestBody{
		IdempotencyKey:     input.IdempotencyKey,
		RequestTier:        string(input.RequestTier),
		RequestorName:      input.RequestorName,
		RequestorContact:   input.RequestorContact,
		DestinationAddress: input.DestinationAddress,
		PaymentPreference:  string(input.PaymentPreference),
	}

	resp, err := c.do(ctx, http.MethodPost, "/requests", body)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	var payload createRequestResponse
	decodeErr := json.Unmarshal(raw, &payload)

	if !is2xx(resp.StatusCode) || decodeErr != nil || !payload.OK {
		return "", &domain.TransportError{
			Status:  resp.StatusCode,
			Message: serverMessage(raw),
		}
	}
	return domain.RequestID(payload.RequestID), nil
}

func (c *Client) Tracking(ctx context.Context, id domain.RequestID) (ports.TrackingFeed, error) {
	path := "/requests/" + url.PathEscape(string(id)) + "/tracking"
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return ports.TrackingFeed{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if !is2xx(resp.StatusCode) {
		return ports.TrackingFeed{}, transportError(resp)
	}

	var payload trackingResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return ports.TrackingFeed{}, domain.ErrUnexpectedResponse
	}

	pings := make([]domain.TrackingPing, 0, len(payload.Request.TrackingPings))
	for _, p := range payload.Request.TrackingPings {
		pings = append(pings, domain.TrackingPing{
			RecordedAt: p.RecordedAt,
			Lat:        p.Lat,
			Lng:        p.Lng,
			AccuracyM:  p.AccuracyM,
		})
	}

	return ports.TrackingFeed{
		Destination: domain.Destination{
			Lat: payload.Request.DestinationLat,
			Lng: payload.Request.DestinationLng,
		},
		Pings: pings,
	}, nil
}

func (c *Client) BillingHistory(ctx context.Context) ([]domain.BillingItem, error) {
	resp, err := c.do(ctx, http.MethodGet, "/billing/history", nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if !is2xx(resp.StatusCode) {
		return nil, transportError(resp)
	}

	var payload billingHistoryResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return nil, domain.ErrUnexpectedResponse
	}

	items := make([]domain.BillingItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		items = append(items, domain.BillingItem{
			ID:                 domain.RequestID(item.ID),
			CreatedAt:          item.CreatedAt,
			Status:             domain.RequestStatus(item.Status),
			RequestTier:        domain.RequestTier(item.RequestTier),
			CreditsUsed:        item.CreditsUsed,
			BillAmountCents:    item.BillAmountCents,
			PaymentMode:        item.PaymentMode,
			DestinationAddress: item.DestinationAddress,
		})
	}
	return items, nil
}

// InvoiceURL builds the direct download link for a request invoice. The
// download is opened by the user, never proxied through the client.
func (c *Client) InvoiceURL(id domain.RequestID) string {
	return c.BaseURL + "/requests/" + url.PathEscape(string(id)) + "/invoice"
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	endpoint, err := buildURL(c.BaseURL, path)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Cookie != "" {
		req.Header.Set("Cookie", c.Cookie)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &domain.TransportError{Err: err}
	}
	return resp, nil
}

// checkOK enforces the {ok: true} contract shared by the mutation endpoints.
func (c *Client) checkOK(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	var payload okResponse
	decodeErr := json.Unmarshal(raw, &payload)

	if !is2xx(resp.StatusCode) || decodeErr != nil || !payload.OK {
		return &domain.TransportError{
			Status:  resp.StatusCode,
			Message: serverMessage(raw),
		}
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func is2xx(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

func transportError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	return &domain.TransportError{Status: resp.StatusCode, Message: serverMessage(raw)}
}

// serverMessage surfaces the backend-provided error text verbatim when the
// envelope carries one; the caller falls back to a status-tagged message.
func serverMessage(raw []byte) string {
	var payload serverError
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

func buildURL(baseURL, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("api base url is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("api base url host is required")
	}

	endpoint, err := parsed.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}
	return endpoint.String(), nil
}
