package users

import (
	"context"
	"errors"
	"sync"
	"testing"

	platformerrors "afrochain-auth-go/internal/platform/errors"
)

// runRepositorySuite exercises the Repository contract against a driver.
func runRepositorySuite(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	t.Run("FindUnknownWallet", func(t *testing.T) {
		_, err := repo.FindByWallet(ctx, "0xDOESNOTEXIST")
		if !errors.Is(err, platformerrors.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpsertIsIdempotent", func(t *testing.T) {
		first, err := repo.UpsertOnLogin(ctx, "0xAbCd000000000000000000000000000000000001")
		if err != nil {
			t.Fatalf("first upsert: %v", err)
		}
		if first.WalletAddress != "0xabcd000000000000000000000000000000000001" {
			t.Fatalf("wallet not normalized: %s", first.WalletAddress)
		}
		if first.IsFarmer || first.Reputation != 0 {
			t.Fatalf("unexpected defaults: %+v", first)
		}

		second, err := repo.UpsertOnLogin(ctx, "0xABCD000000000000000000000000000000000001")
		if err != nil {
			t.Fatalf("second upsert: %v", err)
		}
		if second.ID != first.ID {
			t.Fatalf("second upsert created a new record: %s vs %s", second.ID, first.ID)
		}
		if second.LastLoginAt.Before(first.LastLoginAt) {
			t.Fatalf("last login went backwards")
		}
		if second.CreatedAt != first.CreatedAt {
			t.Fatalf("createdAt changed on login: %v vs %v", second.CreatedAt, first.CreatedAt)
		}
	})

	t.Run("ProfileRoundTrip", func(t *testing.T) {
		wallet := "0xabcd000000000000000000000000000000000002"
		created, err := repo.UpsertOnLogin(ctx, wallet)
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}

		name := "Kaldi Farm"
		farmer := true
		updated, err := repo.UpdateProfile(ctx, wallet, ProfilePatch{
			DisplayName: &name,
			IsFarmer:    &farmer,
		})
		if err != nil {
			t.Fatalf("update profile: %v", err)
		}
		if updated.DisplayName != name || !updated.IsFarmer {
			t.Fatalf("patch not applied: %+v", updated)
		}
		if updated.ID != created.ID || updated.WalletAddress != created.WalletAddress {
			t.Fatalf("immutable fields changed: %+v", updated)
		}

		found, err := repo.FindByWallet(ctx, wallet)
		if err != nil {
			t.Fatalf("find after update: %v", err)
		}
		if found.DisplayName != name {
			t.Fatalf("read-your-writes violated: %+v", found)
		}
		if !found.UpdatedAt.After(created.UpdatedAt) && found.UpdatedAt != created.UpdatedAt {
			t.Fatalf("updatedAt not restamped")
		}
	})

	t.Run("UpdateUnknownWallet", func(t *testing.T) {
		name := "nobody"
		_, err := repo.UpdateProfile(ctx, "0xmissing", ProfilePatch{DisplayName: &name})
		if !errors.Is(err, platformerrors.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ReputationFloor", func(t *testing.T) {
		wallet := "0xabcd000000000000000000000000000000000003"
		if _, err := repo.UpsertOnLogin(ctx, wallet); err != nil {
			t.Fatalf("upsert: %v", err)
		}

		user, err := repo.AdjustReputation(ctx, wallet, 5)
		if err != nil {
			t.Fatalf("adjust: %v", err)
		}
		if user.Reputation != 5 {
			t.Fatalf("expected reputation 5, got %d", user.Reputation)
		}

		user, err = repo.AdjustReputation(ctx, wallet, -10)
		if err != nil {
			t.Fatalf("adjust negative: %v", err)
		}
		if user.Reputation != 0 {
			t.Fatalf("reputation dropped below zero: %d", user.Reputation)
		}
	})

	t.Run("ConcurrentUpsertSingleRecord", func(t *testing.T) {
		wallet := "0xabcd000000000000000000000000000000000004"
		const workers = 16

		ids := make([]string, workers)
		errs := make([]error, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				user, err := repo.UpsertOnLogin(ctx, wallet)
				ids[i], errs[i] = user.ID, err
			}(i)
		}
		wg.Wait()

		for i := 0; i < workers; i++ {
			if errs[i] != nil {
				t.Fatalf("worker %d: %v", i, errs[i])
			}
			if ids[i] != ids[0] {
				t.Fatalf("duplicate record created: %s vs %s", ids[i], ids[0])
			}
		}
	})
}
