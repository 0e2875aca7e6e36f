// internal/app/store/users/userstore_test.go
package userstore

import (
	"errors"
	"testing"

	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/mentorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := New(db)
	created, err := s.Create(ctx, models.User{
		ID:       "sub-100",
		FullName: "  Ada Lovelace ",
		Email:    " Ada@Example.COM ",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.FullName != "Ada Lovelace" {
		t.Errorf("full name not trimmed: %q", created.FullName)
	}
	if created.Email != "ada@example.com" {
		t.Errorf("email not normalized: %q", created.Email)
	}

	got, err := s.GetByID(ctx, "sub-100")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FullName != "Ada Lovelace" || got.Email != "ada@example.com" {
		t.Errorf("stored fields mismatch: %+v", got)
	}
	if got.FullNameCI == "" {
		t.Error("folded name not stored")
	}
}

func TestCreateRequiresID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := New(db)
	if _, err := s.Create(ctx, models.User{FullName: "No Subject"}); err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestCreateDuplicateID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := New(db)
	if _, err := s.Create(ctx, models.User{ID: "sub-dup", FullName: "First"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := s.Create(ctx, models.User{ID: "sub-dup", FullName: "Second"})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("want ErrDuplicateID, got %v", err)
	}
}

func TestProfileMissingUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := New(db)
	_, _, _, found, err := s.Profile(ctx, "nobody")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if found {
		t.Error("missing profile reported as found")
	}
}

func TestProfileReturnsGrootFlag(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := New(db)
	if _, err := s.Create(ctx, models.User{ID: "sub-g", FullName: "Root", Email: "root@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.SetGroot(ctx, "sub-g", true); err != nil {
		t.Fatalf("set groot: %v", err)
	}

	name, email, groot, found, err := s.Profile(ctx, "sub-g")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if !found || !groot {
		t.Errorf("found=%v groot=%v, want both true", found, groot)
	}
	if name != "Root" || email != "root@example.com" {
		t.Errorf("profile fields: %q %q", name, email)
	}
}

func TestUpdateNormalizesFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := New(db)
	if _, err := s.Create(ctx, models.User{ID: "sub-u", FullName: "Old"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := s.Update(ctx, "sub-u", Update{FullName: " New Name ", Email: "NEW@Example.com", Tags: []string{"a"}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.GetByID(ctx, "sub-u")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FullName != "New Name" || got.Email != "new@example.com" {
		t.Errorf("update not normalized: %+v", got)
	}
}

func TestUpdateMissingUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := New(db)
	err := s.Update(ctx, "nobody", Update{FullName: "X"})
	if err != mongo.ErrNoDocuments {
		t.Fatalf("want ErrNoDocuments, got %v", err)
	}
}

func TestDeleteCountsDocuments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := New(db)
	if _, err := s.Create(ctx, models.User{ID: "sub-d", FullName: "Doomed"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	n, err := s.Delete(ctx, "sub-d")
	if err != nil || n != 1 {
		t.Fatalf("delete: n=%d err=%v", n, err)
	}
	n, err = s.Delete(ctx, "sub-d")
	if err != nil || n != 0 {
		t.Fatalf("second delete: n=%d err=%v", n, err)
	}
}

func TestListFiltersByNamePrefix(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := New(db)
	for _, u := range []models.User{
		{ID: "s1", FullName: "Alice"},
		{ID: "s2", FullName: "Albert"},
		{ID: "s3", FullName: "Bob"},
	} {
		if _, err := s.Create(ctx, u); err != nil {
			t.Fatalf("create %s: %v", u.ID, err)
		}
	}

	got, err := s.List(ctx, "al", 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 users with prefix, got %d", len(got))
	}
	// Sorted by folded name.
	if got[0].FullName != "Albert" || got[1].FullName != "Alice" {
		t.Errorf("order: %q, %q", got[0].FullName, got[1].FullName)
	}

	got, err = s.List(ctx, "", 2, 1)
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 users in page, got %d", len(got))
	}
}
