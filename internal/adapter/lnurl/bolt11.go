package lnurl

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

const (
	timestampGroups = 7
	signatureGroups = 104
	tagPaymentHash  = 1 // 'p'
	hashGroups      = 52
)

// PaymentHash extracts the hex payment hash ('p' tagged field) from a
// bolt11 invoice.
func PaymentHash(invoice string) (string, error) {
	invoice = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(invoice)), "lightning:")

	hrp, data, err := bech32.DecodeNoLimit(invoice)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInvoice, err)
	}
	if !strings.HasPrefix(hrp, "ln") {
		return "", fmt.Errorf("%w: unexpected prefix %q", ErrInvalidInvoice, hrp)
	}
	if len(data) < timestampGroups+signatureGroups {
		return "", fmt.Errorf("%w: too short", ErrInvalidInvoice)
	}

	fields := data[timestampGroups : len(data)-signatureGroups]
	for len(fields) >= 3 {
		tag := fields[0]
		n := int(fields[1])<<5 | int(fields[2])
		fields = fields[3:]
		if n > len(fields) {
			return "", fmt.Errorf("%w: truncated tagged field", ErrInvalidInvoice)
		}
		if tag == tagPaymentHash && n == hashGroups {
			hash, err := bech32.ConvertBits(fields[:n], 5, 8, false)
			if err != nil {
				return "", fmt.Errorf("%w: %w", ErrInvalidInvoice, err)
			}
			return hex.EncodeToString(hash), nil
		}
		fields = fields[n:]
	}
	return "", fmt.Errorf("%w: no payment hash", ErrInvalidInvoice)
}
