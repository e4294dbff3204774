package authapi

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"

	"afrochain-auth-go/internal/domain/auth"
	"afrochain-auth-go/internal/domain/auth/challenge"
	"afrochain-auth-go/internal/domain/users"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	issuer, err := auth.NewTokenIssuer("test-secret-test-secret-test-secret")
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}

	mgr, err := auth.NewManager(auth.Options{
		Users:      users.NewMemory(),
		Challenges: challenge.NewMemory(challenge.Config{}),
		Tokens:     issuer,
		Logger:     testLogger{},
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })

	svc, err := NewService(mgr, testLogger{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	engine := gin.New()
	if err := svc.Register(context.Background(), engine.Group("/api")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return server
}

func newWallet(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key, strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())
}

func signMessage(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	if err != nil {
		t.Fatalf("sign message: %v", err)
	}
	sig[64] += 27
	return hexutil.Encode(sig)
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return decoded
}

func requestChallenge(t *testing.T, server *httptest.Server, wallet string) string {
	t.Helper()
	resp, body := postJSON(t, server.URL+"/api/auth/wallet/message", gin.H{
		"walletAddress": wallet,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("challenge request status %d: %v", resp.StatusCode, body)
	}
	message, _ := body["message"].(string)
	if message == "" {
		t.Fatalf("challenge response missing message: %v", body)
	}
	return message
}

func TestFullLoginFlow(t *testing.T) {
	server := newTestServer(t)
	key, wallet := newWallet(t)

	message := requestChallenge(t, server, wallet)
	if !strings.Contains(message, wallet) {
		t.Fatalf("challenge message must embed the wallet: %s", message)
	}

	resp, body := postJSON(t, server.URL+"/api/auth/wallet/authenticate", gin.H{
		"walletAddress": wallet,
		"signature":     signMessage(t, key, message),
		"message":       message,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authenticate status %d: %v", resp.StatusCode, body)
	}
	if success, _ := body["success"].(bool); !success {
		t.Fatalf("expected success envelope: %v", body)
	}
	if token, _ := body["token"].(string); token == "" {
		t.Fatalf("expected session token in response")
	}
	user, _ := body["user"].(map[string]any)
	if user == nil || user["walletAddress"] != wallet {
		t.Fatalf("unexpected user payload: %v", body)
	}
	if isFarmer, _ := user["isFarmer"].(bool); isFarmer {
		t.Fatalf("first-time user must default to buyer role")
	}
}

func TestAuthenticateWrongSigner(t *testing.T) {
	server := newTestServer(t)
	_, wallet := newWallet(t)
	otherKey, _ := newWallet(t)

	message := requestChallenge(t, server, wallet)

	resp, body := postJSON(t, server.URL+"/api/auth/wallet/authenticate", gin.H{
		"walletAddress": wallet,
		"signature":     signMessage(t, otherKey, message),
		"message":       message,
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %v", resp.StatusCode, body)
	}
	if body["error"] != "Invalid signature" {
		t.Fatalf("unexpected error message: %v", body)
	}
	if success, _ := body["success"].(bool); success {
		t.Fatalf("failure envelope must not claim success")
	}
}

func TestAuthenticateReplayRejected(t *testing.T) {
	server := newTestServer(t)
	key, wallet := newWallet(t)

	message := requestChallenge(t, server, wallet)
	payload := gin.H{
		"walletAddress": wallet,
		"signature":     signMessage(t, key, message),
		"message":       message,
	}

	if resp, body := postJSON(t, server.URL+"/api/auth/wallet/authenticate", payload); resp.StatusCode != http.StatusOK {
		t.Fatalf("first authenticate failed: %d %v", resp.StatusCode, body)
	}

	resp, body := postJSON(t, server.URL+"/api/auth/wallet/authenticate", payload)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 on replay, got %d: %v", resp.StatusCode, body)
	}
	if body["error"] != "Challenge expired or already used" {
		t.Fatalf("unexpected replay error: %v", body)
	}
}

func TestAuthenticateMissingFields(t *testing.T) {
	server := newTestServer(t)

	resp, body := postJSON(t, server.URL+"/api/auth/wallet/authenticate", gin.H{
		"walletAddress": "0xabc",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %v", resp.StatusCode, body)
	}
}

func TestGetProfile(t *testing.T) {
	server := newTestServer(t)
	key, wallet := newWallet(t)

	// Unknown wallets are 404 with the canonical message.
	resp, err := http.Get(server.URL + "/api/auth/profile/" + wallet)
	if err != nil {
		t.Fatalf("GET profile: %v", err)
	}
	body := decodeBody(t, resp)
	if resp.StatusCode != http.StatusNotFound || body["error"] != "User not found" {
		t.Fatalf("expected 404 User not found, got %d %v", resp.StatusCode, body)
	}

	message := requestChallenge(t, server, wallet)
	if resp, body := postJSON(t, server.URL+"/api/auth/wallet/authenticate", gin.H{
		"walletAddress": wallet,
		"signature":     signMessage(t, key, message),
		"message":       message,
	}); resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d %v", resp.StatusCode, body)
	}

	// The profile read is public, no bearer token attached.
	resp, err = http.Get(server.URL + "/api/auth/profile/" + strings.ToUpper(wallet))
	if err != nil {
		t.Fatalf("GET profile: %v", err)
	}
	body = decodeBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile status %d: %v", resp.StatusCode, body)
	}
	user, _ := body["user"].(map[string]any)
	if user == nil || user["walletAddress"] != wallet {
		t.Fatalf("unexpected profile payload: %v", body)
	}
}

func TestUpdateProfile(t *testing.T) {
	server := newTestServer(t)
	key, wallet := newWallet(t)

	message := requestChallenge(t, server, wallet)
	resp, body := postJSON(t, server.URL+"/api/auth/wallet/authenticate", gin.H{
		"walletAddress": wallet,
		"signature":     signMessage(t, key, message),
		"message":       message,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d %v", resp.StatusCode, body)
	}
	token, _ := body["token"].(string)

	put := func(authorization string, payload gin.H) (*http.Response, map[string]any) {
		t.Helper()
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		req, err := http.NewRequest(http.MethodPut, server.URL+"/api/auth/profile", bytes.NewReader(raw))
		if err != nil {
			t.Fatalf("build request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("PUT profile: %v", err)
		}
		return resp, decodeBody(t, resp)
	}

	// No token.
	if resp, _ := put("", gin.H{"displayName": "Yirgacheffe Lot 7"}); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	// Garbage token.
	if resp, _ := put("Bearer not-a-token", gin.H{"displayName": "x"}); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", resp.StatusCode)
	}

	// Token for a different wallet than the one named in the body.
	_, otherWallet := newWallet(t)
	if resp, _ := put("Bearer "+token, gin.H{"walletAddress": otherWallet, "isFarmer": true}); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for wallet mismatch, got %d", resp.StatusCode)
	}

	resp, body = put("Bearer "+token, gin.H{"displayName": "Yirgacheffe Lot 7", "isFarmer": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update failed: %d %v", resp.StatusCode, body)
	}
	user, _ := body["user"].(map[string]any)
	if user == nil || user["displayName"] != "Yirgacheffe Lot 7" {
		t.Fatalf("patch not reflected: %v", body)
	}
	if isFarmer, _ := user["isFarmer"].(bool); !isFarmer {
		t.Fatalf("role flag not updated: %v", body)
	}
}
