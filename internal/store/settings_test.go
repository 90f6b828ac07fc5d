package store

import (
	"context"
	"testing"

	"github.com/ritwyck/too-good-to-go-terminal/internal/db"
)

func TestGetJWTSecretGeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	secret1, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	// Second call returns the same secret.
	secret2, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestEncryptionKeyIndependentOfJWTSecret(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	jwtSecret, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	encKey, err := GetEncryptionKey(ctx, database)
	if err != nil {
		t.Fatal(err)
	}

	if jwtSecret == encKey {
		t.Error("expected distinct secrets for distinct keys")
	}

	again, _ := GetEncryptionKey(ctx, database)
	if encKey != again {
		t.Error("expected encryption key to persist")
	}
}
