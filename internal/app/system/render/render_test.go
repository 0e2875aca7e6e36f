package render_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/mentorhub/internal/app/system/render"
	"github.com/dalemusser/mentorhub/internal/domain/models"
)

type fakeUsers struct {
	user  *models.User
	calls int
}

func (f *fakeUsers) GetByID(_ context.Context, _ string) (*models.User, error) {
	f.calls++
	if f.user == nil {
		return nil, errors.New("no such user")
	}
	return f.user, nil
}

type fakeSnapshots struct {
	values map[string]interface{}
	calls  int
}

func (f *fakeSnapshots) CurrentValues(_ context.Context, _ string) (map[string]interface{}, error) {
	f.calls++
	return f.values, nil
}

func TestRenderQuestion_InterpolatesUserAndAttributes(t *testing.T) {
	users := &fakeUsers{user: &models.User{ID: "u1", FullName: "Ada"}}
	snaps := &fakeSnapshots{values: map[string]interface{}{"goal": "learn Go"}}
	r := render.New(users, snaps)

	out, err := r.RenderQuestion(context.Background(), "Hi {{.User.FullName}}, still working on {{.Input.goal}}?", "u1")
	if err != nil {
		t.Fatalf("RenderQuestion failed: %v", err)
	}
	if out != "Hi Ada, still working on learn Go?" {
		t.Errorf("got %q", out)
	}
}

func TestRenderQuestion_PlainTextSkipsStores(t *testing.T) {
	users := &fakeUsers{user: &models.User{ID: "u1"}}
	snaps := &fakeSnapshots{}
	r := render.New(users, snaps)

	out, err := r.RenderQuestion(context.Background(), "How was your week?", "u1")
	if err != nil {
		t.Fatalf("RenderQuestion failed: %v", err)
	}
	if out != "How was your week?" {
		t.Errorf("got %q", out)
	}
	if users.calls != 0 || snaps.calls != 0 {
		t.Errorf("plain text touched stores: users=%d snapshots=%d", users.calls, snaps.calls)
	}
}

func TestRenderQuestion_BadTemplateErrors(t *testing.T) {
	r := render.New(&fakeUsers{user: &models.User{}}, &fakeSnapshots{})
	_, err := r.RenderQuestion(context.Background(), "broken {{.User.", "u1")
	if err == nil {
		t.Error("expected parse error")
	}
}

func TestRenderQuestion_UserLoadErrorSurfaces(t *testing.T) {
	r := render.New(&fakeUsers{}, &fakeSnapshots{})
	_, err := r.RenderQuestion(context.Background(), "Hi {{.User.FullName}}", "u1")
	if err == nil {
		t.Error("expected user load error")
	}
}
