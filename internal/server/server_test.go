package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahdiidarabi/wallet-signature-verify/internal/metrics"
	"github.com/mahdiidarabi/wallet-signature-verify/internal/replay"
	"github.com/mahdiidarabi/wallet-signature-verify/pkg/walletverify"
)

const (
	xamanBlob      = "732102DB48115142459C05AA0D26F3752ADC9C5AF8348ADCF22A8CA73D5DF1839A190574473045022100F9F3274CD7036053082EBDECEA98FCEF3125D1FCE881C903ED68D108760588FE022068F54A1AB529869E48B1A242903A23AC117A699AF65179BD545E532119E27AA781143680F8503E56B53239FE0F5EB782285B3FE4DDE8F9EA7C04417574687D626E7566662E746563683A313736303032313430343A64343462373337322D383530332D346233392D393338622D3866633063353464343262363A6C6F67696E3A726E79427A4D48626D4A4D7A7A686B344E6F797975714B7A73616866484669415261E1F1"
	xamanAddress   = "rnyBzMHbmJMzzhk4NoyyuqKzsahfHFiARa"
	xamanChallenge = "nuff.tech:1760021404:d44b7372-8503-4b39-938b-8fc0c54d42b6:login:rnyBzMHbmJMzzhk4NoyyuqKzsahfHFiARa"
)

func verifyBody(wallet, signature, address, challenge string) string {
	b, _ := json.Marshal(map[string]string{
		"wallet":    wallet,
		"signature": signature,
		"address":   address,
		"challenge": challenge,
	})
	return string(b)
}

func newTestServer(t *testing.T, client *walletverify.Client) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	client.WithRecorder(m)

	ts := httptest.NewServer(New(":0", client, m, reg, nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/v1/verify", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestVerify_Valid(t *testing.T) {
	ts := newTestServer(t, walletverify.NewClient())

	resp, out := post(t, ts, verifyBody("xaman", xamanBlob, xamanAddress, xamanChallenge))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	assert.Equal(t, true, out["is_valid"])
	assert.Equal(t, true, out["address_valid"])
	assert.Equal(t, true, out["challenge_valid"])
	assert.Equal(t, true, out["signature_valid"])
	assert.Equal(t, xamanAddress, out["derived_address"])
	assert.Equal(t, xamanChallenge, out["found_challenge"])
}

func TestVerify_InvalidChallengeIsNotAnError(t *testing.T) {
	ts := newTestServer(t, walletverify.NewClient())

	resp, out := post(t, ts, verifyBody("xaman", xamanBlob, xamanAddress, "ATTACKER:replay"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, out["is_valid"])
	assert.Equal(t, false, out["challenge_valid"])
	assert.Equal(t, true, out["signature_valid"])
}

func TestVerify_Errors(t *testing.T) {
	ts := newTestServer(t, walletverify.NewClient().WithEnabledWallets(walletverify.Xaman))

	tests := []struct {
		name   string
		body   string
		status int
		errMsg string
	}{
		{"malformed json", `{"wallet": `, http.StatusBadRequest, "invalid request body"},
		{"missing wallet", `{"signature": "aa", "address": "bb"}`, http.StatusBadRequest, "wallet is required"},
		{"unknown wallet", verifyBody("ledger", "aa", "bb", "cc"), http.StatusBadRequest, "not supported"},
		{"disabled wallet", verifyBody("solana", "aa", "bb", "cc"), http.StatusBadRequest, "supported: xaman"},
		{"short blob", verifyBody("xaman", "7321", xamanAddress, xamanChallenge), http.StatusBadRequest, "invalid input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := post(t, ts, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, out["error"], tt.errMsg)
		})
	}
}

func TestVerify_BodyTooLarge(t *testing.T) {
	handler := New(":0", walletverify.NewClient(), nil, nil, nil).Handler()
	body := verifyBody("xaman", strings.Repeat("A", maxRequestBodySize), xamanAddress, xamanChallenge)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/verify", strings.NewReader(body)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "too large")
}

func TestVerify_Replay(t *testing.T) {
	client := walletverify.NewClient().WithReplayGuard(replay.NewMemoryStore(), 0)
	ts := newTestServer(t, client)
	body := verifyBody("xaman", xamanBlob, xamanAddress, xamanChallenge)

	resp, _ := post(t, ts, body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, out := post(t, ts, body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, out["error"], "already been used")
}

func TestListWallets(t *testing.T) {
	ts := newTestServer(t, walletverify.NewClient().WithEnabledWallets(walletverify.Xaman, walletverify.Bifrost))

	resp, err := http.Get(ts.URL + "/api/v1/wallets")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Wallets []walletInfo `json:"wallets"`
		Count   int          `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, "xaman", out.Wallets[0].Type)
	assert.Equal(t, "Xaman", out.Wallets[0].Name)
	assert.Equal(t, "bifrost", out.Wallets[1].Type)
	assert.NotEmpty(t, out.Wallets[1].Description)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, walletverify.NewClient())

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	post(t, ts, verifyBody("xaman", xamanBlob, xamanAddress, xamanChallenge))

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `walletverify_verifications_total{outcome="valid",wallet="xaman"} 1`)
	assert.Contains(t, string(body), `http_requests_total{handler="/api/v1/verify",method="POST",status="2xx"} 1`)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, walletverify.NewClient())

	resp, err := http.Get(ts.URL + "/api/v1/verify")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestShutdownBeforeStart(t *testing.T) {
	srv := New("127.0.0.1:0", walletverify.NewClient(), nil, nil, nil)

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.NoError(t, srv.Start())
}
