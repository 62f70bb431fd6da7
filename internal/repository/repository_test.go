package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/apperrors"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/model"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/repository"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/store"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/testutil"
)

// TestSnapshotRepository tests persisting and restoring the store snapshot.
func TestSnapshotRepository(t *testing.T) {
	t.Run("round-trips a snapshot", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewSnapshotRepository(db)

		original := store.Snapshot{
			Accounts: []model.Account{
				testutil.NewAccount().WithUUID("a-1").WithName("Giro").Build(),
			},
			Portfolios: []model.Portfolio{
				testutil.NewPortfolio().WithUUID("p-1").WithPerformance(100, 10).Build(),
			},
		}

		if err := repo.Save(context.Background(), original); err != nil {
			t.Fatalf("Save: %v", err)
		}

		loaded, savedAt, err := repo.Load(context.Background())
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if savedAt.IsZero() {
			t.Error("saved_at not recorded")
		}
		if len(loaded.Accounts) != 1 || loaded.Accounts[0].UUID != "a-1" {
			t.Errorf("accounts = %+v", loaded.Accounts)
		}
		if len(loaded.Portfolios) != 1 || loaded.Portfolios[0].Performance == nil {
			t.Errorf("portfolios = %+v", loaded.Portfolios)
		}
	})

	t.Run("save replaces the previous snapshot", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewSnapshotRepository(db)
		ctx := context.Background()

		if err := repo.Save(ctx, store.Snapshot{
			Accounts: []model.Account{testutil.NewAccount().WithUUID("a-old").Build()},
		}); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if err := repo.Save(ctx, store.Snapshot{
			Accounts: []model.Account{testutil.NewAccount().WithUUID("a-new").Build()},
		}); err != nil {
			t.Fatalf("Save: %v", err)
		}

		loaded, _, err := repo.Load(ctx)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(loaded.Accounts) != 1 || loaded.Accounts[0].UUID != "a-new" {
			t.Errorf("accounts = %+v, want only a-new", loaded.Accounts)
		}
	})

	t.Run("missing snapshot", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewSnapshotRepository(db)

		_, _, err := repo.Load(context.Background())
		if !errors.Is(err, apperrors.ErrSnapshotNotFound) {
			t.Errorf("err = %v, want ErrSnapshotNotFound", err)
		}
	})
}

// TestSettingsRepository tests plain and encrypted settings.
//
// WHY: The upstream token must never land in the database as plaintext.
func TestSettingsRepository(t *testing.T) {
	newRepo := func(t *testing.T) *repository.SettingsRepository {
		t.Helper()
		repo, err := repository.NewSettingsRepository(testutil.SetupTestDB(t), "", zerolog.Nop())
		if err != nil {
			t.Fatalf("NewSettingsRepository: %v", err)
		}
		return repo
	}

	t.Run("secret round-trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		if err := repo.SetSecret(ctx, repository.SettingUpstreamToken, "s3cret-token"); err != nil {
			t.Fatalf("SetSecret: %v", err)
		}
		got, err := repo.Secret(ctx, repository.SettingUpstreamToken)
		if err != nil {
			t.Fatalf("Secret: %v", err)
		}
		if got != "s3cret-token" {
			t.Errorf("secret = %q", got)
		}
	})

	t.Run("stored secret is not plaintext", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		if err := repo.SetSecret(ctx, "token", "plaintext-value"); err != nil {
			t.Fatalf("SetSecret: %v", err)
		}

		if _, err := repo.Get(ctx, "token"); err == nil {
			t.Error("Get returned a secret as a plain value")
		}
	})

	t.Run("plain round-trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		if err := repo.Set(ctx, "refresh", "5m"); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, err := repo.Get(ctx, "refresh")
		if err != nil || got != "5m" {
			t.Errorf("Get = %q, %v; want 5m", got, err)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Get(context.Background(), "absent")
		if !errors.Is(err, apperrors.ErrSettingNotFound) {
			t.Errorf("err = %v, want ErrSettingNotFound", err)
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		if err := repo.Set(ctx, "key", "value"); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := repo.Delete(ctx, "key"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if err := repo.Delete(ctx, "key"); err != nil {
			t.Fatalf("second Delete: %v", err)
		}
	})
}
