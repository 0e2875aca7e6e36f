// internal/app/system/render/render.go

// Package render interpolates question text against a user's profile and
// attribute snapshot. Templates reference {{.User.FullName}} and
// {{.Input.<attribute>}}; an unknown attribute does not fail the
// question.
package render

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/dalemusser/mentorhub/internal/domain/models"
)

// UserSource loads the user's profile.
type UserSource interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// SnapshotSource reads a user's current attribute values.
type SnapshotSource interface {
	CurrentValues(ctx context.Context, userID string) (map[string]interface{}, error)
}

type data struct {
	User  *models.User
	Input map[string]interface{}
}

type Renderer struct {
	users     UserSource
	snapshots SnapshotSource
}

func New(users UserSource, snapshots SnapshotSource) *Renderer {
	return &Renderer{users: users, snapshots: snapshots}
}

// RenderQuestion fills the template with the user's profile and current
// attribute values. Text without template actions passes through
// unchanged without touching the stores.
func (r *Renderer) RenderQuestion(ctx context.Context, text, userID string) (string, error) {
	if !bytes.Contains([]byte(text), []byte("{{")) {
		return text, nil
	}

	tmpl, err := template.New("question").Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse question template: %w", err)
	}

	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load user for rendering: %w", err)
	}
	input, err := r.snapshots.CurrentValues(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load attribute snapshot for rendering: %w", err)
	}
	if input == nil {
		input = map[string]interface{}{}
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, data{User: user, Input: input}); err != nil {
		return "", fmt.Errorf("render question: %w", err)
	}
	return out.String(), nil
}
