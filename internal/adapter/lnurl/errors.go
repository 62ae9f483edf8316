package lnurl

import "errors"

var (
	// ErrInvalidAddress indicates a Lightning address is not user@domain.
	ErrInvalidAddress = errors.New("lnurl: invalid lightning address")

	// ErrPayInfo indicates the .well-known/lnurlp lookup failed.
	ErrPayInfo = errors.New("lnurl: pay info request failed")

	// ErrInvoice indicates the pay callback did not return an invoice.
	ErrInvoice = errors.New("lnurl: invoice request failed")

	// ErrVerify indicates the LNURL-verify endpoint could not be read.
	ErrVerify = errors.New("lnurl: verify request failed")

	// ErrInvalidInvoice indicates a bolt11 string could not be decoded.
	ErrInvalidInvoice = errors.New("lnurl: invalid bolt11 invoice")
)
