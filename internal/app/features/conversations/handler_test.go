// internal/app/features/conversations/handler_test.go
package conversations

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	questionsfeature "github.com/dalemusser/mentorhub/internal/app/features/questions"
	"github.com/dalemusser/mentorhub/internal/app/flow"
	"github.com/dalemusser/mentorhub/internal/app/policy/access"
	convstore "github.com/dalemusser/mentorhub/internal/app/store/conversations"
	groupstore "github.com/dalemusser/mentorhub/internal/app/store/groups"
	questionstore "github.com/dalemusser/mentorhub/internal/app/store/questions"
	scriptstore "github.com/dalemusser/mentorhub/internal/app/store/scripts"
	userattrstore "github.com/dalemusser/mentorhub/internal/app/store/userattrs"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/render"
	scriptengine "github.com/dalemusser/mentorhub/internal/app/system/scripts"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/mentorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	router    http.Handler
	userAttrs *userattrstore.Store
	questions *questionstore.Store
	scripts   *scriptstore.Store
}

// setup wires the full conversation surface against a live database: the
// runner with real question and attribute stores, script engine, and
// renderer, behind the same routing and authorization as production.
func setup(t *testing.T, db *mongo.Database) *env {
	t.Helper()
	logger := zap.NewNop()
	users := userstore.New(db)
	groups := groupstore.New(db)
	conversations := convstore.New(db)
	questions := questionstore.New(db)
	userAttrs := userattrstore.New(db)
	scripts := scriptstore.New(db)

	eng := access.NewEngine(groups, logger)
	scriptEng := scriptengine.NewEngine(scripts, userAttrs, userAttrs, logger)
	renderer := render.New(users, userAttrs)
	runner := flow.NewRunner(questions, userAttrs, scriptEng, renderer, logger)

	h := NewHandler(conversations, questions, runner, logger)
	qh := questionsfeature.NewHandler(questions, logger)
	return &env{
		router:    Routes(h, questionsfeature.Routes(qh, eng), eng),
		userAttrs: userAttrs,
		questions: questions,
		scripts:   scripts,
	}
}

func (e *env) do(t *testing.T, method, path string, body string, as func(*http.Request) *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	req = as(req)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func asUser(id string) func(*http.Request) *http.Request {
	return func(r *http.Request) *http.Request { return testutil.AsUser(r, id) }
}

func TestCreateAndGetConversation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)

	rec := e.do(t, http.MethodPost, "/", `{"name":"Onboarding","description":"first chat"}`, testutil.AsGroot)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var conv models.Conversation
	if err := json.Unmarshal(rec.Body.Bytes(), &conv); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Definitions are closed to ordinary users without a grant.
	rec = e.do(t, http.MethodGet, "/"+conv.ID.Hex(), "", asUser("nobody"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("ungranted get: status = %d, want 403", rec.Code)
	}

	rec = e.do(t, http.MethodGet, "/"+conv.ID.Hex(), "", testutil.AsGroot)
	if rec.Code != http.StatusOK {
		t.Fatalf("groot get: status = %d", rec.Code)
	}
}

func TestDuplicateConversationName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)

	if rec := e.do(t, http.MethodPost, "/", `{"name":"Solo"}`, testutil.AsGroot); rec.Code != http.StatusCreated {
		t.Fatalf("first create: %d", rec.Code)
	}
	rec := e.do(t, http.MethodPost, "/", `{"name":"solo"}`, testutil.AsGroot)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate: status = %d, want 400", rec.Code)
	}
}

// seedFlow builds a two-question conversation where the first question's
// option writes an attribute and points at the second question.
func seedFlow(t *testing.T, db *mongo.Database) (models.Conversation, models.Question, models.Question) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	conv := f.CreateConversation(ctx, "Check-in")
	last := f.CreateQuestion(ctx, conv.ID, "Thanks, {{.User.FullName}}.", false)
	firstOpts := []models.Option{
		{
			Position:  1,
			Type:      models.OptionSelect,
			Text:      "Great",
			Attribute: &models.AttributeWrite{ID: "mood", Value: "great"},
			Next:      &models.NextRef{Conversation: conv.ID.Hex(), Question: last.ID.Hex()},
		},
		{
			Position: 2,
			Type:     models.OptionInput,
			Text:     "Something else",
			Attribute: &models.AttributeWrite{
				ID:    "mood",
				Value: "unspecified",
			},
		},
	}
	first := f.CreateQuestion(ctx, conv.ID, "How are you, {{.User.FullName}}?", true, firstOpts...)
	return conv, first, last
}

func grantConversation(t *testing.T, db *mongo.Database, conv models.Conversation, userID string) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	f.CreateUser(ctx, userID, "Flow Tester")
	g := f.CreateGroup(ctx, "Granted", map[string]models.Role{userID: models.RoleMentee})
	groups := groupstore.New(db)
	if err := groups.AssignConversation(ctx, g.ID, conv.ID.Hex(), []models.Role{models.RoleMentee}); err != nil {
		t.Fatalf("grant: %v", err)
	}
}

func TestServeFirstRendersForCaller(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)
	conv, first, _ := seedFlow(t, db)
	grantConversation(t, db, conv, "walker")

	rec := e.do(t, http.MethodGet, "/"+conv.ID.Hex()+"/first", "", asUser("walker"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var step flow.Step
	if err := json.Unmarshal(rec.Body.Bytes(), &step); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if step.Done || step.Question == nil {
		t.Fatalf("step = %+v", step)
	}
	if step.Question.ID != first.ID {
		t.Errorf("wrong entry question: %v", step.Question.ID)
	}
	if step.Question.Text != "How are you, Flow Tester?" {
		t.Errorf("text not rendered: %q", step.Question.Text)
	}

	// raw=true returns the stored template.
	rec = e.do(t, http.MethodGet, "/"+conv.ID.Hex()+"/first?raw=true", "", asUser("walker"))
	if rec.Code != http.StatusOK {
		t.Fatalf("raw: status = %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &step); err != nil {
		t.Fatalf("decode raw: %v", err)
	}
	if step.Question.Text != "How are you, {{.User.FullName}}?" {
		t.Errorf("raw text = %q", step.Question.Text)
	}
}

func TestServeFirstDeniedWithoutGrant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)
	conv, _, _ := seedFlow(t, db)

	rec := e.do(t, http.MethodGet, "/"+conv.ID.Hex()+"/first", "", asUser("outsider"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestAnswerRecordsAttributeAndAdvances(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)
	conv, first, last := seedFlow(t, db)
	grantConversation(t, db, conv, "walker")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	path := fmt.Sprintf("/%s/questions/%s/answer", conv.ID.Hex(), first.ID.Hex())
	rec := e.do(t, http.MethodPost, path, `{"position":1}`, asUser("walker"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var step flow.Step
	if err := json.Unmarshal(rec.Body.Bytes(), &step); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if step.Done || step.Question == nil || step.Question.ID != last.ID {
		t.Fatalf("step = %+v, want next question", step)
	}

	ua, err := e.userAttrs.Get(ctx, "walker", "mood")
	if err != nil {
		t.Fatalf("attribute: %v", err)
	}
	if ua.Value != "great" {
		t.Errorf("mood = %v", ua.Value)
	}
	if len(ua.History) != 1 || ua.History[0].Observer != models.ObserverQuestioner {
		t.Errorf("history = %+v", ua.History)
	}
	if ua.History[0].Message.In != models.InConversation || ua.History[0].Message.ID != conv.ID.Hex() {
		t.Errorf("message ref = %+v", ua.History[0].Message)
	}
}

func TestAnswerInputOptionEndsConversation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)
	conv, first, _ := seedFlow(t, db)
	grantConversation(t, db, conv, "walker")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	path := fmt.Sprintf("/%s/questions/%s/answer", conv.ID.Hex(), first.ID.Hex())
	rec := e.do(t, http.MethodPost, path, `{"position":2,"input":"<b>tired</b> today"}`, asUser("walker"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var step flow.Step
	if err := json.Unmarshal(rec.Body.Bytes(), &step); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !step.Done {
		t.Fatalf("step = %+v, want done", step)
	}

	ua, err := e.userAttrs.Get(ctx, "walker", "mood")
	if err != nil {
		t.Fatalf("attribute: %v", err)
	}
	// Markup is stripped before the value is stored.
	if ua.Value != "tired today" {
		t.Errorf("mood = %q", ua.Value)
	}
}

func TestAnswerUnknownOption(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)
	conv, first, _ := seedFlow(t, db)
	grantConversation(t, db, conv, "walker")

	path := fmt.Sprintf("/%s/questions/%s/answer", conv.ID.Hex(), first.ID.Hex())
	rec := e.do(t, http.MethodPost, path, `{"position":99}`, asUser("walker"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestAnswerRunsScript(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	conv := f.CreateConversation(ctx, "Scripted")
	script := f.CreateScript(ctx, "counter", `
def run(input):
    return {"answered": True}
`)
	q := f.CreateQuestion(ctx, conv.ID, "Ready?", true, models.Option{
		Position: 1,
		Type:     models.OptionSelect,
		Text:     "Yes",
		Script:   script.ID.Hex(),
	})
	grantConversation(t, db, conv, "walker")

	path := fmt.Sprintf("/%s/questions/%s/answer", conv.ID.Hex(), q.ID.Hex())
	rec := e.do(t, http.MethodPost, path, `{"position":1}`, asUser("walker"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	ua, err := e.userAttrs.Get(ctx, "walker", "answered")
	if err != nil {
		t.Fatalf("script attribute: %v", err)
	}
	if ua.Value != true {
		t.Errorf("answered = %v", ua.Value)
	}
	if len(ua.History) != 1 || ua.History[0].Observer != models.ObserverBot {
		t.Errorf("history = %+v", ua.History)
	}
}

func TestDeleteRemovesQuestionGraph(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)
	conv, _, _ := seedFlow(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := e.do(t, http.MethodDelete, "/"+conv.ID.Hex(), "", testutil.AsGroot)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	left, err := e.questions.ListByConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("%d questions survived", len(left))
	}
}
