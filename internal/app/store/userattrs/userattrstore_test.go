// internal/app/store/userattrs/userattrstore_test.go
package userattrstore

import (
	"testing"

	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/mentorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestRecordAppendsHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := New(db)
	msg := models.MessageRef{In: models.InConversation, ID: "conv1"}
	if err := s.Record(ctx, "u1", "mood", "curious", models.ObserverQuestioner, msg); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if err := s.Record(ctx, "u1", "mood", "confident", models.ObserverQuestioner, msg); err != nil {
		t.Fatalf("second record: %v", err)
	}

	ua, err := s.Get(ctx, "u1", "mood")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ua.Value != "confident" {
		t.Errorf("value = %v, want latest write", ua.Value)
	}
	if len(ua.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(ua.History))
	}
	if ua.History[0].Value != "curious" || ua.History[1].Value != "confident" {
		t.Errorf("history order: %v, %v", ua.History[0].Value, ua.History[1].Value)
	}
	if ua.History[1].Observer != models.ObserverQuestioner {
		t.Errorf("observer = %q", ua.History[1].Observer)
	}
	if ua.History[1].Message.In != models.InConversation || ua.History[1].Message.ID != "conv1" {
		t.Errorf("message ref = %+v", ua.History[1].Message)
	}
}

func TestRecordKeepsOneDocumentPerAttribute(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := New(db)
	msg := models.MessageRef{In: models.InScript, ID: "s1"}
	_ = s.Record(ctx, "u1", "score", 1, models.ObserverBot, msg)
	_ = s.Record(ctx, "u1", "score", 2, models.ObserverBot, msg)
	_ = s.Record(ctx, "u1", "level", "a", models.ObserverBot, msg)

	list, err := s.ListForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("documents = %d, want one per attribute", len(list))
	}
	// Sorted by attribute id.
	if list[0].AttributeID != "level" || list[1].AttributeID != "score" {
		t.Errorf("order: %q, %q", list[0].AttributeID, list[1].AttributeID)
	}
}

func TestCurrentValues(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := New(db)
	msg := models.MessageRef{In: models.InScript, ID: "s1"}
	_ = s.Record(ctx, "u1", "a", "old", models.ObserverBot, msg)
	_ = s.Record(ctx, "u1", "a", "new", models.ObserverBot, msg)
	_ = s.Record(ctx, "u1", "b", int64(7), models.ObserverBot, msg)
	_ = s.Record(ctx, "u2", "a", "other user", models.ObserverBot, msg)

	vals, err := s.CurrentValues(ctx, "u1")
	if err != nil {
		t.Fatalf("current values: %v", err)
	}
	if len(vals) != 2 {
		t.Fatalf("values = %v", vals)
	}
	if vals["a"] != "new" {
		t.Errorf("a = %v, want latest", vals["a"])
	}
}

func TestValuesSubset(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := New(db)
	msg := models.MessageRef{In: models.InScript, ID: "s1"}
	_ = s.Record(ctx, "u1", "a", 1, models.ObserverBot, msg)
	_ = s.Record(ctx, "u1", "b", 2, models.ObserverBot, msg)

	vals, err := s.Values(ctx, "u1", []string{"a", "never-recorded"})
	if err != nil {
		t.Fatalf("values: %v", err)
	}
	if len(vals) != 1 {
		t.Fatalf("values = %v, want only recorded attributes", vals)
	}
	if _, ok := vals["never-recorded"]; ok {
		t.Error("unrecorded attribute present")
	}

	vals, err = s.Values(ctx, "u1", nil)
	if err != nil || len(vals) != 0 {
		t.Fatalf("empty request: vals=%v err=%v", vals, err)
	}
}

func TestDeleteForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := New(db)
	msg := models.MessageRef{In: models.InScript, ID: "s1"}
	_ = s.Record(ctx, "u1", "a", 1, models.ObserverBot, msg)
	_ = s.Record(ctx, "u1", "b", 2, models.ObserverBot, msg)
	_ = s.Record(ctx, "u2", "a", 3, models.ObserverBot, msg)

	n, err := s.DeleteForUser(ctx, "u1")
	if err != nil || n != 2 {
		t.Fatalf("delete: n=%d err=%v", n, err)
	}
	if _, err := s.Get(ctx, "u1", "a"); err != mongo.ErrNoDocuments {
		t.Errorf("u1 attribute survived: %v", err)
	}
	if _, err := s.Get(ctx, "u2", "a"); err != nil {
		t.Errorf("u2 attribute lost: %v", err)
	}
}
