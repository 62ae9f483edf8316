package lnurl

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lightning-payment-gateway/internal/core/ports"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/h2non/gock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHash = "0001020304050607080900010203040506070809000102030405060708090102"

// buildInvoice assembles a bolt11 string with a zero timestamp, a short
// description field, the given payment hash and a zero signature.
func buildInvoice(t *testing.T, hashHex string) string {
	t.Helper()
	hash, err := hex.DecodeString(hashHex)
	require.NoError(t, err)
	hashGroups, err := bech32.ConvertBits(hash, 8, 5, true)
	require.NoError(t, err)
	require.Len(t, hashGroups, 52)

	data := make([]byte, 7)
	data = append(data, 13, 0, 3, 4, 5, 6) // 'd' field, 3 groups
	data = append(data, 1, 1, 20)          // 'p' field, 52 groups
	data = append(data, hashGroups...)
	data = append(data, make([]byte, 104)...)

	inv, err := bech32.Encode("lnbc210n", data)
	require.NoError(t, err)
	return inv
}

func newTestClient() *Client {
	return NewClient(&http.Client{Timeout: 2 * time.Second}, "https", zerolog.Nop())
}

// ==================== Address ====================

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    Address
		wantErr bool
	}{
		{"bob@pay.example", Address{"bob", "pay.example"}, false},
		{"  Bob@Pay.Example ", Address{"bob", "pay.example"}, false},
		{"bob@127.0.0.1:8080", Address{"bob", "127.0.0.1:8080"}, false},
		{"bob", Address{}, true},
		{"@pay.example", Address{}, true},
		{"bob@", Address{}, true},
		{"bob@pay.example/evil", Address{}, true},
		{"a@b@c", Address{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAddress(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidAddress))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddress_URLs(t *testing.T) {
	a := Address{User: "bob", Domain: "pay.example"}
	assert.Equal(t, "https://pay.example/.well-known/lnurlp/bob", a.PayInfoURL("https"))
	assert.Equal(t, "https://pay.example/lnurlp/bob/verify/abc", a.VerifyURL("https", "abc"))
	assert.Equal(t, "bob@pay.example", a.String())
}

// ==================== bolt11 ====================

func TestPaymentHash(t *testing.T) {
	inv := buildInvoice(t, testHash)

	got, err := PaymentHash(inv)
	require.NoError(t, err)
	assert.Equal(t, testHash, got)

	got, err = PaymentHash("lightning:" + strings.ToUpper(inv))
	require.NoError(t, err)
	assert.Equal(t, testHash, got)
}

func TestPaymentHash_Invalid(t *testing.T) {
	for _, inv := range []string{"", "not-an-invoice", "lnbc1qqqqqqq"} {
		_, err := PaymentHash(inv)
		assert.True(t, errors.Is(err, ErrInvalidInvoice), "input %q", inv)
	}
}

func TestPaymentHash_WrongPrefix(t *testing.T) {
	data := make([]byte, 7+104)
	s, err := bech32.Encode("bc", data)
	require.NoError(t, err)

	_, err = PaymentHash(s)
	assert.True(t, errors.Is(err, ErrInvalidInvoice))
}

func TestPaymentHash_NoHashField(t *testing.T) {
	data := make([]byte, 7)
	data = append(data, 13, 0, 2, 9, 9)
	data = append(data, make([]byte, 104)...)
	s, err := bech32.Encode("lntb", data)
	require.NoError(t, err)

	_, err = PaymentHash(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no payment hash")
}

// ==================== Client ====================

func TestClient_FetchPayInfo(t *testing.T) {
	defer gock.Off()
	gock.New("https://pay.example").
		Get("/.well-known/lnurlp/bob").
		Reply(200).
		JSON(map[string]interface{}{
			"callback":       "https://pay.example/lnurlp/bob/callback",
			"minSendable":    1000,
			"maxSendable":    100000000000,
			"metadata":       `[["text/plain","bob"]]`,
			"tag":            "payRequest",
			"commentAllowed": 255,
		})

	info, err := newTestClient().FetchPayInfo(context.Background(), "bob@pay.example")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/lnurlp/bob/callback", info.Callback)
	assert.Equal(t, int64(1000), info.MinSendable)
	assert.Equal(t, int64(100000000000), info.MaxSendable)
	assert.Equal(t, 255, info.CommentAllowed)
	assert.True(t, gock.IsDone())
}

func TestClient_FetchPayInfo_Failures(t *testing.T) {
	tests := []struct {
		name  string
		mock  func()
		wants string
	}{
		{
			name: "not found",
			mock: func() {
				gock.New("https://pay.example").Get("/.well-known/lnurlp/bob").Reply(404)
			},
			wants: "status 404",
		},
		{
			name: "provider error",
			mock: func() {
				gock.New("https://pay.example").Get("/.well-known/lnurlp/bob").
					Reply(200).JSON(map[string]string{"status": "ERROR", "reason": "unknown user"})
			},
			wants: "unknown user",
		},
		{
			name: "missing callback",
			mock: func() {
				gock.New("https://pay.example").Get("/.well-known/lnurlp/bob").
					Reply(200).JSON(map[string]interface{}{"minSendable": 1, "maxSendable": 2})
			},
			wants: "missing callback",
		},
		{
			name: "garbage body",
			mock: func() {
				gock.New("https://pay.example").Get("/.well-known/lnurlp/bob").
					Reply(200).BodyString("<html>")
			},
			wants: "parsing response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer gock.Off()
			tt.mock()

			_, err := newTestClient().FetchPayInfo(context.Background(), "bob@pay.example")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrPayInfo))
			assert.Contains(t, err.Error(), tt.wants)
		})
	}
}

func TestClient_FetchPayInfo_InvalidAddress(t *testing.T) {
	_, err := newTestClient().FetchPayInfo(context.Background(), "nobody")
	assert.True(t, errors.Is(err, ErrInvalidAddress))
}

func TestClient_RequestInvoice(t *testing.T) {
	defer gock.Off()
	gock.New("https://pay.example").
		Get("/lnurlp/bob/callback").
		MatchParam("amount", "21000").
		MatchParam("comment", "flat").
		MatchParam("k1", "abc").
		Reply(200).
		JSON(map[string]string{"pr": "lnbc210n1pxyz", "verify": "https://pay.example/lnurlp/bob/verify/h1"})

	info := &ports.PayInfo{Callback: "https://pay.example/lnurlp/bob/callback?k1=abc", CommentAllowed: 4}
	inv, err := newTestClient().RequestInvoice(context.Background(), info, 21000, "flat white")
	require.NoError(t, err)
	assert.Equal(t, "lnbc210n1pxyz", inv.PR)
	assert.Equal(t, "https://pay.example/lnurlp/bob/verify/h1", inv.Verify)
	assert.True(t, gock.IsDone())
}

func TestClient_RequestInvoice_ProviderError(t *testing.T) {
	defer gock.Off()
	gock.New("https://pay.example").
		Get("/cb").
		Reply(200).
		JSON(map[string]string{"status": "ERROR", "reason": "amount too small"})

	_, err := newTestClient().RequestInvoice(context.Background(), &ports.PayInfo{Callback: "https://pay.example/cb"}, 1000, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvoice))
	assert.Contains(t, err.Error(), "amount too small")
}

func TestClient_RequestInvoice_EmptyPR(t *testing.T) {
	defer gock.Off()
	gock.New("https://pay.example").Get("/cb").Reply(200).JSON(map[string]string{})

	_, err := newTestClient().RequestInvoice(context.Background(), &ports.PayInfo{Callback: "https://pay.example/cb"}, 1000, "")
	assert.True(t, errors.Is(err, ErrInvoice))
}

func TestClient_Verify(t *testing.T) {
	defer gock.Off()
	gock.New("https://pay.example").
		Get("/lnurlp/bob/verify/h1").
		Reply(200).
		JSON(map[string]interface{}{"status": "OK", "settled": true, "preimage": "ff", "pr": "lnbc"})

	res, err := newTestClient().Verify(context.Background(), "https://pay.example/lnurlp/bob/verify/h1")
	require.NoError(t, err)
	assert.True(t, res.Settled)
	assert.Equal(t, "ff", res.Preimage)
}

func TestClient_Verify_Error(t *testing.T) {
	defer gock.Off()
	gock.New("https://pay.example").
		Get("/lnurlp/bob/verify/h1").
		Reply(200).
		JSON(map[string]string{"status": "ERROR", "reason": "Not found"})

	_, err := newTestClient().Verify(context.Background(), "https://pay.example/lnurlp/bob/verify/h1")
	assert.True(t, errors.Is(err, ErrVerify))
}

func TestClient_Verify_HonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(srv.Client(), "http", zerolog.Nop()).Verify(ctx, srv.URL+"/verify")
	assert.True(t, errors.Is(err, ErrVerify))
}

func TestClient_VerifyURLFor(t *testing.T) {
	c := newTestClient()
	inv := buildInvoice(t, testHash)

	assert.Equal(t, "https://pay.example/lnurlp/bob/verify/"+testHash, c.VerifyURLFor("bob@pay.example", inv))
	assert.Empty(t, c.VerifyURLFor("bob@pay.example", "garbage"))
	assert.Empty(t, c.VerifyURLFor("bob", inv))
}

func TestClient_EndToEnd(t *testing.T) {
	inv := buildInvoice(t, testHash)
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/.well-known/lnurlp/bob", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"callback":"` + srv.URL + `/cb","minSendable":1000,"maxSendable":5000000,"tag":"payRequest"}`))
	})
	mux.HandleFunc("/cb", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2000", r.URL.Query().Get("amount"))
		_, _ = w.Write([]byte(`{"pr":"` + inv + `","routes":[]}`))
	})
	mux.HandleFunc("/lnurlp/bob/verify/"+testHash, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK","settled":false,"pr":"` + inv + `"}`))
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	address := "bob@" + strings.TrimPrefix(srv.URL, "http://")
	c := NewClient(srv.Client(), "http", zerolog.Nop())
	ctx := context.Background()

	info, err := c.FetchPayInfo(ctx, address)
	require.NoError(t, err)
	resp, err := c.RequestInvoice(ctx, info, 2000, "")
	require.NoError(t, err)
	require.Empty(t, resp.Verify)

	verifyURL := c.VerifyURLFor(address, resp.PR)
	require.NotEmpty(t, verifyURL)
	res, err := c.Verify(ctx, verifyURL)
	require.NoError(t, err)
	assert.False(t, res.Settled)
	assert.Equal(t, "OK", res.Status)
}
