package challenge

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestIssueEmbedsWalletNonceAndTimestamp(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(Config{Memory: &MemoryConfig{GCInterval: time.Minute}})
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})

	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator(store, 5*time.Minute).WithClock(func() time.Time { return issuedAt })

	ch, err := gen.Issue(ctx, "0xAbCdEF0000000000000000000000000000000001")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if ch.WalletAddress != "0xabcdef0000000000000000000000000000000001" {
		t.Fatalf("wallet not normalized: %s", ch.WalletAddress)
	}
	if len(ch.Nonce) != nonceBytes*2 {
		t.Fatalf("unexpected nonce length: %d", len(ch.Nonce))
	}
	if !strings.Contains(ch.Message, ch.WalletAddress) {
		t.Fatalf("message missing wallet: %s", ch.Message)
	}
	if !strings.Contains(ch.Message, "Nonce: "+ch.Nonce) {
		t.Fatalf("message missing nonce: %s", ch.Message)
	}
	if !strings.Contains(ch.Message, issuedAt.Format(time.RFC3339)) {
		t.Fatalf("message missing timestamp: %s", ch.Message)
	}
	if ch.ExpiresAt.Sub(ch.IssuedAt) != 5*time.Minute {
		t.Fatalf("unexpected validity window: %v", ch.ExpiresAt.Sub(ch.IssuedAt))
	}

	stored, ok, err := store.Get(ctx, ch.WalletAddress)
	if err != nil || !ok {
		t.Fatalf("challenge not recorded: ok=%v err=%v", ok, err)
	}
	if stored.Message != ch.Message {
		t.Fatalf("stored challenge differs")
	}
}

func TestIssueProducesUniqueNonces(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(Config{})
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})

	gen := NewGenerator(store, time.Minute)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		ch, err := gen.Issue(ctx, "0xwallet")
		if err != nil {
			t.Fatalf("Issue returned error: %v", err)
		}
		if seen[ch.Nonce] {
			t.Fatalf("nonce repeated: %s", ch.Nonce)
		}
		seen[ch.Nonce] = true
	}
}

func TestNewIssueReplacesOutstandingChallenge(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(Config{})
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})

	gen := NewGenerator(store, time.Minute)
	first, err := gen.Issue(ctx, "0xwallet")
	if err != nil {
		t.Fatalf("first Issue: %v", err)
	}
	second, err := gen.Issue(ctx, "0xwallet")
	if err != nil {
		t.Fatalf("second Issue: %v", err)
	}

	live, ok, err := store.Get(ctx, "0xwallet")
	if err != nil || !ok {
		t.Fatalf("expected live challenge: ok=%v err=%v", ok, err)
	}
	if live.Nonce == first.Nonce {
		t.Fatalf("old challenge still live")
	}
	if live.Nonce != second.Nonce {
		t.Fatalf("unexpected live challenge: %s", live.Nonce)
	}
}
