package store

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateAppliesOnFreshDB(t *testing.T) {
	db := testDB(t)

	// testDB already ran Migrate; a second run must be a no-op.
	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 1 {
		t.Errorf("version = %d, want 1", result.Version)
	}
}

func TestCredentialsRoundTrip(t *testing.T) {
	db := testDB(t)

	creds, err := db.LoadCredentials()
	if err != nil {
		t.Fatal(err)
	}
	if creds != nil {
		t.Fatal("expected nil credentials on fresh db")
	}

	want := &Credentials{
		Token:    "jwt-token",
		Email:    "seller@example.com",
		FullName: "Maria Craft",
		Role:     "SELLER",
	}
	if err := db.SaveCredentials(want); err != nil {
		t.Fatal(err)
	}

	got, err := db.LoadCredentials()
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || *got != *want {
		t.Errorf("LoadCredentials() = %+v, want %+v", got, want)
	}
}

func TestSaveCredentialsOverwrites(t *testing.T) {
	db := testDB(t)

	if err := db.SaveCredentials(&Credentials{Token: "first", Email: "a@b"}); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveCredentials(&Credentials{Token: "second", Email: "c@d"}); err != nil {
		t.Fatal(err)
	}

	got, err := db.LoadCredentials()
	if err != nil {
		t.Fatal(err)
	}
	if got.Token != "second" || got.Email != "c@d" {
		t.Errorf("got %+v, want the second record", got)
	}
}

func TestDeleteCredentialsIdempotent(t *testing.T) {
	db := testDB(t)

	if err := db.SaveCredentials(&Credentials{Token: "t"}); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteCredentials(); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteCredentials(); err != nil {
		t.Errorf("second DeleteCredentials() error = %v", err)
	}

	got, err := db.LoadCredentials()
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("credentials still present after delete: %+v", got)
	}
}
