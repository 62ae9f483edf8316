package lnurl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"lightning-payment-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// MaxResponseSize caps how much of a provider response is read.
const MaxResponseSize = 1 << 20

// HTTPClient abstracts outbound HTTP calls (for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements ports.LNURLClient over LUD-06/16/21.
type Client struct {
	http   HTTPClient
	scheme string
	log    zerolog.Logger
}

// NewClient creates a new LNURL client. scheme is "https" in production.
func NewClient(httpClient HTTPClient, scheme string, log zerolog.Logger) *Client {
	if scheme == "" {
		scheme = "https"
	}
	return &Client{http: httpClient, scheme: scheme, log: log}
}

// statusResponse carries the LUD-06 error shape shared by every endpoint.
type statusResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (s statusResponse) failed() bool {
	return strings.EqualFold(s.Status, "ERROR")
}

// FetchPayInfo reads the pay-request metadata for a Lightning address.
func (c *Client) FetchPayInfo(ctx context.Context, address string) (*ports.PayInfo, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}

	var body struct {
		ports.PayInfo
		statusResponse
	}
	if err := c.getJSON(ctx, addr.PayInfoURL(c.scheme), &body); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPayInfo, addr, err)
	}
	if body.failed() {
		return nil, fmt.Errorf("%w: %s: %s", ErrPayInfo, addr, body.Reason)
	}
	if body.Callback == "" {
		return nil, fmt.Errorf("%w: %s: missing callback", ErrPayInfo, addr)
	}
	if body.MaxSendable < body.MinSendable {
		return nil, fmt.Errorf("%w: %s: maxSendable below minSendable", ErrPayInfo, addr)
	}

	info := body.PayInfo
	return &info, nil
}

// RequestInvoice calls the pay callback for amountMsats. A non-empty
// comment is sent as the LUD-12 comment, cut to the advertised length.
func (c *Client) RequestInvoice(ctx context.Context, info *ports.PayInfo, amountMsats int64, comment string) (*ports.InvoiceResponse, error) {
	u, err := url.Parse(info.Callback)
	if err != nil {
		return nil, fmt.Errorf("%w: bad callback: %w", ErrInvoice, err)
	}
	q := u.Query()
	q.Set("amount", strconv.FormatInt(amountMsats, 10))
	if comment = truncateRunes(comment, info.CommentAllowed); comment != "" {
		q.Set("comment", comment)
	}
	u.RawQuery = q.Encode()

	var body struct {
		ports.InvoiceResponse
		statusResponse
	}
	if err := c.getJSON(ctx, u.String(), &body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvoice, err)
	}
	if body.failed() {
		reason := body.Reason
		if reason == "" {
			reason = "Failed to create invoice"
		}
		return nil, fmt.Errorf("%w: %s", ErrInvoice, reason)
	}
	if body.PR == "" {
		return nil, fmt.Errorf("%w: empty pr", ErrInvoice)
	}

	inv := body.InvoiceResponse
	return &inv, nil
}

// Verify polls a LUD-21 verify URL once.
func (c *Client) Verify(ctx context.Context, verifyURL string) (*ports.VerifyResult, error) {
	var body struct {
		ports.VerifyResult
		Reason string `json:"reason"`
	}
	if err := c.getJSON(ctx, verifyURL, &body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVerify, err)
	}
	if strings.EqualFold(body.Status, "ERROR") {
		return nil, fmt.Errorf("%w: %s", ErrVerify, body.Reason)
	}

	res := body.VerifyResult
	return &res, nil
}

// VerifyURLFor derives the verify endpoint from the invoice payment hash.
func (c *Client) VerifyURLFor(address string, invoice string) string {
	addr, err := ParseAddress(address)
	if err != nil {
		return ""
	}
	hash, err := PaymentHash(invoice)
	if err != nil {
		c.log.Warn().Err(err).Str("address", address).Msg("cannot derive verify url")
		return ""
	}
	return addr.VerifyURL(c.scheme, hash)
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("GET %s returned status %d", rawURL, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
