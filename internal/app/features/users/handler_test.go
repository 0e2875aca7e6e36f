// internal/app/features/users/handler_test.go
package users

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/mentorhub/internal/app/policy/access"
	convstore "github.com/dalemusser/mentorhub/internal/app/store/conversations"
	groupstore "github.com/dalemusser/mentorhub/internal/app/store/groups"
	userattrstore "github.com/dalemusser/mentorhub/internal/app/store/userattrs"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/idp"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/mentorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// fakeIdP is an in-memory identity provider admin API.
type fakeIdP struct {
	nextSubject int
	accounts    map[string]string // subject -> email
	passwords   map[string]string
	failCreate  error
}

func newFakeIdP() *fakeIdP {
	return &fakeIdP{accounts: map[string]string{}, passwords: map[string]string{}}
}

func (f *fakeIdP) CreateAccount(_ context.Context, email, name, password string) (idp.Account, error) {
	if f.failCreate != nil {
		return idp.Account{}, f.failCreate
	}
	f.nextSubject++
	sub := fmt.Sprintf("idp-%d", f.nextSubject)
	f.accounts[sub] = email
	f.passwords[sub] = password
	return idp.Account{Subject: sub, Email: email, Name: name}, nil
}

func (f *fakeIdP) DeleteAccount(_ context.Context, subject string) error {
	if _, ok := f.accounts[subject]; !ok {
		return errors.New("no such account")
	}
	delete(f.accounts, subject)
	delete(f.passwords, subject)
	return nil
}

func (f *fakeIdP) SetPassword(_ context.Context, subject, password string) error {
	if _, ok := f.accounts[subject]; !ok {
		return errors.New("no such account")
	}
	f.passwords[subject] = password
	return nil
}

type env struct {
	router    http.Handler
	users     *userstore.Store
	groups    *groupstore.Store
	userAttrs *userattrstore.Store
	idp       *fakeIdP
}

func setup(t *testing.T, db *mongo.Database) *env {
	t.Helper()
	logger := zap.NewNop()
	users := userstore.New(db)
	groups := groupstore.New(db)
	conversations := convstore.New(db)
	userAttrs := userattrstore.New(db)
	provider := newFakeIdP()
	eng := access.NewEngine(groups, logger)
	h := NewHandler(users, groups, conversations, userAttrs, provider, logger)
	return &env{
		router:    Routes(h, eng),
		users:     users,
		groups:    groups,
		userAttrs: userAttrs,
		idp:       provider,
	}
}

func TestCreateProvisionsAccountAndProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	payload := `{"full_name":"Grace Hopper","email":"grace@example.com","password":"s3cret"}`
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(payload))
	req = testutil.AsGroot(req)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got models.User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID == "" {
		t.Fatal("no subject assigned")
	}
	if e.idp.accounts[got.ID] != "grace@example.com" {
		t.Error("account not created at provider")
	}
	if _, err := e.users.GetByID(ctx, got.ID); err != nil {
		t.Errorf("profile not mirrored: %v", err)
	}
}

func TestCreateRequiresGroot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)

	payload := `{"full_name":"X","email":"x@example.com","password":"p"}`
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(payload))
	req = testutil.AsUser(req, "ordinary")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if len(e.idp.accounts) != 0 {
		t.Error("denied request reached the provider")
	}
}

func TestCreateProviderFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)
	e.idp.failCreate = errors.New("provider down")

	payload := `{"full_name":"X","email":"x@example.com","password":"p"}`
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(payload))
	req = testutil.AsGroot(req)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestGetOwnProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	f.CreateUser(ctx, "me", "Me Myself")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req = testutil.AsUser(req, "me")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestGetOtherProfileNeedsSharedGroupMentor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	f.CreateUser(ctx, "mentor", "The Mentor")
	f.CreateUser(ctx, "mentee", "The Mentee")
	f.CreateUser(ctx, "stranger", "A Stranger")
	f.CreateGroup(ctx, "Pairing", map[string]models.Role{
		"mentor": models.RoleMentor,
		"mentee": models.RoleMentee,
	})

	// Mentor may view the mentee they share a group with.
	req := httptest.NewRequest(http.MethodGet, "/mentee", nil)
	req = testutil.AsUser(req, "mentor")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("mentor view: status = %d", rec.Code)
	}

	// A mentee may not view a fellow mentee through the mentee role.
	req = httptest.NewRequest(http.MethodGet, "/mentor", nil)
	req = testutil.AsUser(req, "mentee")
	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("mentee view: status = %d, want 403", rec.Code)
	}

	// No shared group at all.
	req = httptest.NewRequest(http.MethodGet, "/mentee", nil)
	req = testutil.AsUser(req, "stranger")
	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("stranger view: status = %d, want 403", rec.Code)
	}
}

func TestUpdateIsSelfOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	f.CreateUser(ctx, "me", "Old Name")

	payload := `{"full_name":"New Name","email":"me@example.com"}`
	req := httptest.NewRequest(http.MethodPut, "/me", bytes.NewBufferString(payload))
	req = testutil.AsUser(req, "me")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("self update: status = %d, body %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPut, "/me", bytes.NewBufferString(payload))
	req = testutil.AsUser(req, "someone-else")
	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("other update: status = %d, want 403", rec.Code)
	}
}

func TestSetPasswordForwardsToProvider(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	acct, err := e.idp.CreateAccount(ctx, "p@example.com", "P", "old")
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	f := testutil.NewFixtures(t, db)
	f.CreateUser(ctx, acct.Subject, "P")

	payload := `{"password":"brand-new"}`
	req := httptest.NewRequest(http.MethodPut, "/"+acct.Subject+"/password", bytes.NewBufferString(payload))
	req = testutil.AsUser(req, acct.Subject)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if e.idp.passwords[acct.Subject] != "brand-new" {
		t.Error("password not forwarded")
	}
}

func TestDeleteCleansUpMembershipsAndAttributes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	acct, err := e.idp.CreateAccount(ctx, "d@example.com", "D", "pw")
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	f := testutil.NewFixtures(t, db)
	f.CreateUser(ctx, acct.Subject, "Doomed")
	g := f.CreateGroup(ctx, "Has Doomed", map[string]models.Role{acct.Subject: models.RoleMentee})
	msg := models.MessageRef{In: models.InConversation, ID: "c"}
	if err := e.userAttrs.Record(ctx, acct.Subject, "mood", "fine", models.ObserverQuestioner, msg); err != nil {
		t.Fatalf("seed attribute: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/"+acct.Subject, nil)
	req = testutil.AsGroot(req)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	if _, ok := e.idp.accounts[acct.Subject]; ok {
		t.Error("provider account survived")
	}
	if _, err := e.users.GetByID(ctx, acct.Subject); err != mongo.ErrNoDocuments {
		t.Errorf("profile survived: %v", err)
	}
	got, err := e.groups.GetByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("get group: %v", err)
	}
	if _, ok := got.Participants[acct.Subject]; ok {
		t.Error("membership survived")
	}
	if _, err := e.userAttrs.Get(ctx, acct.Subject, "mood"); err != mongo.ErrNoDocuments {
		t.Errorf("attribute survived: %v", err)
	}
}

func TestServeConversationsFollowsGrants(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	f.CreateUser(ctx, "me", "Me")
	granted := f.CreateConversation(ctx, "Granted Chat")
	ungranted := f.CreateConversation(ctx, "Mentor Only Chat")
	g := f.CreateGroup(ctx, "Mine", map[string]models.Role{"me": models.RoleMentee})
	if err := e.groups.AssignConversation(ctx, g.ID, granted.ID.Hex(), []models.Role{models.RoleMentee}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := e.groups.AssignConversation(ctx, g.ID, ungranted.ID.Hex(), []models.Role{models.RoleMentor}); err != nil {
		t.Fatalf("grant mentor-only: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/me/conversations", nil)
	req = testutil.AsUser(req, "me")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var list []models.Conversation
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].ID != granted.ID {
		t.Errorf("conversations = %+v, want only the mentee-granted one", list)
	}
}

func TestServeAttributesIncludesHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	f.CreateUser(ctx, "me", "Me")
	msg := models.MessageRef{In: models.InConversation, ID: "c"}
	_ = e.userAttrs.Record(ctx, "me", "mood", "ok", models.ObserverQuestioner, msg)
	_ = e.userAttrs.Record(ctx, "me", "mood", "great", models.ObserverQuestioner, msg)

	req := httptest.NewRequest(http.MethodGet, "/me/attributes", nil)
	req = testutil.AsUser(req, "me")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var list []models.UserAttribute
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || len(list[0].History) != 2 {
		t.Errorf("attributes = %+v", list)
	}
	if list[0].Value != "great" {
		t.Errorf("value = %v", list[0].Value)
	}
}
