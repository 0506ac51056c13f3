package theblock

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/the-block/block-buster/pkg/models"
)

// The Block RPC error codes.
const (
	CodeAuthMissing = -33009
	CodeRateLimit   = -33010
)

// RPCError is the error object of a JSON-RPC 2.0 response.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Request is one JSON-RPC 2.0 call.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int64       `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

// Response is one JSON-RPC 2.0 response, from either a single call or a
// batch.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// Client talks JSON-RPC 2.0 to a Block node over HTTP. Methods use the
// node's namespace.method naming, e.g. "consensus.block_height".
type Client struct {
	endpoint   string
	httpClient *http.Client
	auth       Authenticator
	nextID     atomic.Int64
}

// NewClient builds a client for the given node endpoint. auth may be nil
// for nodes that accept unauthenticated reads.
func NewClient(endpoint string, auth Authenticator) *Client {
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		auth:       auth,
	}
}

// Endpoint reports the node URL this client points at.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Call invokes one RPC method and returns its raw result. A JSON-RPC error
// object comes back as *RPCError.
func (c *Client) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	if params == nil {
		params = []interface{}{}
	}
	req := Request{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}

	var resp Response
	if err := c.post(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}

// CallBatch sends the given calls as one JSON-RPC batch request. Responses
// are returned in request order regardless of the order the node answered
// in; a missing response for a request surfaces as a Response with an
// Error set.
func (c *Client) CallBatch(ctx context.Context, calls []Request) ([]Response, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	for i := range calls {
		calls[i].JSONRPC = "2.0"
		if calls[i].ID == 0 {
			calls[i].ID = c.nextID.Add(1)
		}
		if calls[i].Params == nil {
			calls[i].Params = []interface{}{}
		}
	}

	var raw []Response
	if err := c.post(ctx, calls, &raw); err != nil {
		return nil, err
	}

	byID := make(map[int64]Response, len(raw))
	for _, r := range raw {
		var id int64
		if err := json.Unmarshal(r.ID, &id); err == nil {
			byID[id] = r
		}
	}

	ordered := make([]Response, len(calls))
	for i, call := range calls {
		if r, ok := byID[call.ID]; ok {
			ordered[i] = r
			continue
		}
		ordered[i] = Response{
			JSONRPC: "2.0",
			Error:   &RPCError{Code: -32603, Message: fmt.Sprintf("no response for request %d", call.ID)},
		}
	}
	return ordered, nil
}

// Health probes the node's liveness endpoint. Any transport failure or a
// non-healthy status is an error; callers treat the error as "node not
// reachable", not as a fault.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("health probe returned status %d", resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decoding health response: %w", err)
	}
	if body.Status != "healthy" {
		return fmt.Errorf("node reported status %q", body.Status)
	}
	return nil
}

func (c *Client) post(ctx context.Context, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if c.auth != nil {
		if err := c.auth.AddAuthHeaders(req); err != nil {
			return fmt.Errorf("adding auth headers: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("rpc endpoint returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding rpc response: %w", err)
	}
	return nil
}

// Typed wrappers for the namespaces the dashboard reads.

func (c *Client) BlockHeight(ctx context.Context) (int64, error) {
	raw, err := c.Call(ctx, "consensus.block_height", nil)
	if err != nil {
		return 0, err
	}
	var height int64
	if err := json.Unmarshal(raw, &height); err != nil {
		return 0, fmt.Errorf("decoding block height: %w", err)
	}
	return height, nil
}

func (c *Client) TPS(ctx context.Context) (float64, error) {
	raw, err := c.Call(ctx, "consensus.tps", nil)
	if err != nil {
		return 0, err
	}
	var tps float64
	if err := json.Unmarshal(raw, &tps); err != nil {
		return 0, fmt.Errorf("decoding tps: %w", err)
	}
	return tps, nil
}

// PeerStats is the result shape of peer.stats.
type PeerStats struct {
	PeerCount  int64   `json:"peer_count"`
	Inbound    int64   `json:"inbound"`
	Outbound   int64   `json:"outbound"`
	FinalityMs float64 `json:"finality_ms"`
}

func (c *Client) GetPeerStats(ctx context.Context) (*PeerStats, error) {
	raw, err := c.Call(ctx, "peer.stats", nil)
	if err != nil {
		return nil, err
	}
	var stats PeerStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, fmt.Errorf("decoding peer stats: %w", err)
	}
	return &stats, nil
}

func (c *Client) GetValidatorCount(ctx context.Context) (int64, error) {
	raw, err := c.Call(ctx, "consensus.validators", nil)
	if err != nil {
		return 0, err
	}
	var validators []json.RawMessage
	if err := json.Unmarshal(raw, &validators); err == nil {
		return int64(len(validators)), nil
	}
	var count int64
	if err := json.Unmarshal(raw, &count); err != nil {
		return 0, fmt.Errorf("decoding validators: %w", err)
	}
	return count, nil
}

func (c *Client) GetOrderBook(ctx context.Context, symbol string) (*models.OrderBook, error) {
	raw, err := c.Call(ctx, "market.order_book", map[string]string{"symbol": symbol})
	if err != nil {
		return nil, err
	}
	var book models.OrderBook
	if err := json.Unmarshal(raw, &book); err != nil {
		return nil, fmt.Errorf("decoding order book: %w", err)
	}
	return &book, nil
}

func (c *Client) GetAdPolicySnapshot(ctx context.Context) (*models.AdQualitySnapshot, error) {
	raw, err := c.Call(ctx, "ad_market.policy_snapshot", nil)
	if err != nil {
		return nil, err
	}
	var snap models.AdQualitySnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decoding ad policy snapshot: %w", err)
	}
	return &snap, nil
}

func (c *Client) GetIssuance(ctx context.Context) (*models.IssuanceSnapshot, error) {
	raw, err := c.Call(ctx, "ledger.issuance", nil)
	if err != nil {
		return nil, err
	}
	var snap models.IssuanceSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decoding issuance snapshot: %w", err)
	}
	return &snap, nil
}
