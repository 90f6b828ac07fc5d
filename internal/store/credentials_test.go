package store

import (
	"bytes"
	"context"
	"testing"

	"github.com/ritwyck/too-good-to-go-terminal/internal/db"
)

func TestSaveAndGetCredentials(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "creds@example.com", "hash")

	if err := SaveCredentials(ctx, database, user.ID, []byte("sealed-v1")); err != nil {
		t.Fatalf("SaveCredentials: %v", err)
	}

	blob, err := GetCredentials(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetCredentials: %v", err)
	}
	if !bytes.Equal(blob, []byte("sealed-v1")) {
		t.Errorf("expected 'sealed-v1', got %q", blob)
	}
}

func TestSaveCredentialsReplaces(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "rotate@example.com", "hash")

	SaveCredentials(ctx, database, user.ID, []byte("sealed-v1"))
	if err := SaveCredentials(ctx, database, user.ID, []byte("sealed-v2")); err != nil {
		t.Fatalf("SaveCredentials (replace): %v", err)
	}

	blob, _ := GetCredentials(ctx, database, user.ID)
	if !bytes.Equal(blob, []byte("sealed-v2")) {
		t.Errorf("expected rotated blob 'sealed-v2', got %q", blob)
	}
}

func TestGetCredentialsAbsent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "empty@example.com", "hash")

	blob, err := GetCredentials(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetCredentials: %v", err)
	}
	if blob != nil {
		t.Errorf("expected nil for absent credentials, got %q", blob)
	}
}
