package lnurl

import (
	"fmt"
	"net/url"
	"strings"
)

// Address is a parsed Lightning address (user@domain).
type Address struct {
	User   string
	Domain string
}

// ParseAddress splits a Lightning address into user and domain. The domain
// may carry a port.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	user, domain, ok := strings.Cut(s, "@")
	if !ok || user == "" || domain == "" || strings.ContainsAny(user, "/?#") || strings.ContainsAny(domain, "/?#@ ") {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return Address{User: strings.ToLower(user), Domain: strings.ToLower(domain)}, nil
}

func (a Address) String() string {
	return a.User + "@" + a.Domain
}

// PayInfoURL is the LUD-16 well-known endpoint for the address.
func (a Address) PayInfoURL(scheme string) string {
	return fmt.Sprintf("%s://%s/.well-known/lnurlp/%s", scheme, a.Domain, url.PathEscape(a.User))
}

// VerifyURL is the conventional LUD-21 endpoint for an invoice issued to
// the address.
func (a Address) VerifyURL(scheme, paymentHash string) string {
	return fmt.Sprintf("%s://%s/lnurlp/%s/verify/%s", scheme, a.Domain, url.PathEscape(a.User), paymentHash)
}
