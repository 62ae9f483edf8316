package ports

import "context"

// PayInfo is the LNURL-pay metadata advertised for a Lightning address.
type PayInfo struct {
	Callback       string `json:"callback"`
	MinSendable    int64  `json:"minSendable"` // msats
	MaxSendable    int64  `json:"maxSendable"` // msats
	Metadata       string `json:"metadata"`
	Tag            string `json:"tag"`
	CommentAllowed int    `json:"commentAllowed,omitempty"`
}

// InvoiceResponse is the LNURL-pay callback result.
type InvoiceResponse struct {
	PR     string `json:"pr"`
	Verify string `json:"verify,omitempty"`
}

// VerifyResult is the LNURL-verify (LUD-21) response.
type VerifyResult struct {
	Status   string `json:"status"`
	Settled  bool   `json:"settled"`
	Preimage string `json:"preimage,omitempty"`
	PR       string `json:"pr,omitempty"`
}

// LNURLClient talks to the invoice-issuing provider behind a Lightning address.
type LNURLClient interface {
	FetchPayInfo(ctx context.Context, address string) (*PayInfo, error)
	RequestInvoice(ctx context.Context, info *PayInfo, amountMsats int64, comment string) (*InvoiceResponse, error)
	Verify(ctx context.Context, verifyURL string) (*VerifyResult, error)
	// VerifyURLFor derives the conventional verify endpoint from the invoice's
	// payment hash. Returns "" when the invoice cannot be decoded.
	VerifyURLFor(address string, invoice string) string
}
