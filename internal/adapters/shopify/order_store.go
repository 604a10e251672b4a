// Package shopify implements the order store against the Shopify
// Admin API.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/animeempire/support-bot/internal/core"
)

// OrderStore looks up orders for one shop.
type OrderStore struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewOrderStore creates a new Shopify order store
func NewOrderStore(shopDomain, accessToken, apiVersion string, logger *zap.Logger) *OrderStore {
	domain := strings.TrimPrefix(strings.TrimPrefix(shopDomain, "https://"), "http://")
	return &OrderStore{
		baseURL:     fmt.Sprintf("https://%s/admin/api/%s", domain, apiVersion),
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}
}

type shopifyOrder struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	CreatedAt         string `json:"created_at"`
	FulfillmentStatus string `json:"fulfillment_status"`
	FinancialStatus   string `json:"financial_status"`
	TotalPrice        string `json:"total_price"`
	Currency          string `json:"currency"`
	Email             string `json:"email"`
	Customer          struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"customer"`
	Fulfillments []struct {
		TrackingNumber  string `json:"tracking_number"`
		TrackingCompany string `json:"tracking_company"`
		TrackingURL     string `json:"tracking_url"`
		ShipmentStatus  string `json:"shipment_status"`
	} `json:"fulfillments"`
	LineItems []struct {
		Name     string `json:"name"`
		Quantity int    `json:"quantity"`
	} `json:"line_items"`
}

// FindByNumber returns the order whose customer-facing number matches,
// or nil when the shop has no such order.
func (s *OrderStore) FindByNumber(ctx context.Context, orderNumber string) (*core.OrderSnapshot, error) {
	// Shopify order names carry a leading #.
	endpoint := fmt.Sprintf("orders.json?name=%s&status=any", url.QueryEscape("#"+orderNumber))

	var listResp struct {
		Orders []shopifyOrder `json:"orders"`
	}
	if err := s.doJSON(ctx, http.MethodGet, endpoint, nil, &listResp); err != nil {
		return nil, fmt.Errorf("failed to look up order %s: %w", orderNumber, err)
	}
	if len(listResp.Orders) == 0 {
		return nil, nil
	}
	snapshot := toSnapshot(&listResp.Orders[0])
	return &snapshot, nil
}

// FindBySender returns up to limit orders for the customer email, most
// recent first.
func (s *OrderStore) FindBySender(ctx context.Context, email string, limit int) ([]core.OrderSnapshot, error) {
	endpoint := fmt.Sprintf("orders.json?email=%s&limit=%d&status=any", url.QueryEscape(email), limit)

	var listResp struct {
		Orders []shopifyOrder `json:"orders"`
	}
	if err := s.doJSON(ctx, http.MethodGet, endpoint, nil, &listResp); err != nil {
		return nil, fmt.Errorf("failed to look up orders for %s: %w", email, err)
	}

	snapshots := make([]core.OrderSnapshot, 0, len(listResp.Orders))
	for i := range listResp.Orders {
		snapshots = append(snapshots, toSnapshot(&listResp.Orders[i]))
	}
	return snapshots, nil
}

// UpdateShippingAddress rewrites the shipping address on an order. The
// caller is responsible for only doing this on unfulfilled orders.
func (s *OrderStore) UpdateShippingAddress(ctx context.Context, orderID string, address map[string]string) error {
	payload := map[string]interface{}{
		"order": map[string]interface{}{
			"shipping_address": address,
		},
	}
	endpoint := fmt.Sprintf("orders/%s.json", url.PathEscape(orderID))
	if err := s.doJSON(ctx, http.MethodPut, endpoint, payload, nil); err != nil {
		return fmt.Errorf("failed to update shipping address for order %s: %w", orderID, err)
	}
	return nil
}

func toSnapshot(o *shopifyOrder) core.OrderSnapshot {
	created, _ := time.Parse(time.RFC3339, o.CreatedAt)

	fulfillment := o.FulfillmentStatus
	if fulfillment == "" {
		fulfillment = "unfulfilled"
	}

	snapshot := core.OrderSnapshot{
		OrderID:           fmt.Sprintf("%d", o.ID),
		OrderNumber:       strings.TrimPrefix(o.Name, "#"),
		CreatedAt:         created,
		FulfillmentStatus: fulfillment,
		FinancialStatus:   o.FinancialStatus,
		TotalPrice:        o.TotalPrice,
		Currency:          o.Currency,
		CustomerEmail:     o.Email,
		CustomerName:      strings.TrimSpace(o.Customer.FirstName + " " + o.Customer.LastName),
	}

	for _, f := range o.Fulfillments {
		if f.TrackingNumber == "" {
			continue
		}
		carrier := f.TrackingCompany
		if carrier == "" {
			carrier = "Unknown"
		}
		status := f.ShipmentStatus
		if status == "" {
			status = "in_transit"
		}
		snapshot.TrackingEntries = append(snapshot.TrackingEntries, core.TrackingEntry{
			Carrier:        carrier,
			TrackingNumber: f.TrackingNumber,
			URL:            f.TrackingURL,
			Status:         status,
		})
	}

	for _, item := range o.LineItems {
		quantity := item.Quantity
		if quantity == 0 {
			quantity = 1
		}
		snapshot.LineItems = append(snapshot.LineItems, core.LineItem{
			Name:     item.Name,
			Quantity: quantity,
		})
	}
	return snapshot
}

func (s *OrderStore) doJSON(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+"/"+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", s.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("shopify call failed with status %d: %s", resp.StatusCode, body)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

var _ core.OrderStore = (*OrderStore)(nil)
