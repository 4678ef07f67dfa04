// Package ledgerclient is a small REST client for the ledger service.
package ledgerclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/shopspring/decimal"
)

type Client struct {
	service *apt.ServiceClient
}

func New(baseURL string) *Client {
	return &Client{service: apt.NewServiceClient(strings.TrimRight(baseURL, "/"))}
}

type CartItem struct {
	PlateID string `json:"plate_id"`
	Qty     int    `json:"qty"`
	Notes   string `json:"notes,omitempty"`
}

type Order struct {
	ID      string          `json:"id"`
	TableID string          `json:"table_id"`
	Status  string          `json:"status"`
	Total   decimal.Decimal `json:"total"`
}

type Table struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	CurrentOrderID string `json:"current_order_id"`
}

type Dispatch struct {
	Action string `json:"action"`
	Order  Order  `json:"order"`
	Table  Table  `json:"table"`
}

func (c *Client) SendToKitchen(ctx context.Context, tableID string, items []CartItem) (Dispatch, error) {
	var d Dispatch
	err := c.do(ctx, http.MethodPost, "/tables/"+tableID+"/kitchen", map[string]any{"items": items}, &d)
	return d, err
}

func (c *Client) Deliver(ctx context.Context, orderID string) error {
	return c.do(ctx, http.MethodPost, "/orders/"+orderID+"/deliver", nil, nil)
}

func (c *Client) RequestBill(ctx context.Context, tableID string) error {
	return c.do(ctx, http.MethodPost, "/tables/"+tableID+"/bill", nil, nil)
}

func (c *Client) Pay(ctx context.Context, orderID string) error {
	return c.do(ctx, http.MethodPost, "/orders/"+orderID+"/pay", nil, nil)
}

func (c *Client) Tables(ctx context.Context) ([]Table, error) {
	var tables []Table
	err := c.do(ctx, http.MethodGet, "/tables", nil, &tables)
	return tables, err
}

// ActiveOrders lists every order that is not paid yet.
func (c *Client) ActiveOrders(ctx context.Context) ([]Order, error) {
	var all []Order
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &all); err != nil {
		return nil, err
	}
	active := make([]Order, 0, len(all))
	for _, o := range all {
		if o.Status != "paid" {
			active = append(active, o)
		}
	}
	return active, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.service.Request(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if out == nil || resp == nil || resp.Data == nil {
		return nil
	}
	if err := rehydrate(resp.Data, out); err != nil {
		return fmt.Errorf("%s %s: decode data: %w", method, path, err)
	}
	return nil
}

// rehydrate turns the generic envelope data back into a typed value.
func rehydrate(data, out any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
