// internal/app/flow/runner.go

// Package flow drives a conversation: apply an answer's side effects and
// resolve the next question to present. Each question is a state, each
// chosen option a transition with two effects (attribute write, script
// trigger) and one edge (next question or terminal). The graph may
// contain cycles; recurring conversations traverse them on purpose.
package flow

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/dalemusser/mentorhub/internal/app/system/apierr"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// QuestionSource loads questions. Implementations report a missing
// question as apierr.NotFound("question").
type QuestionSource interface {
	ByID(ctx context.Context, conversationID, questionID string) (models.Question, error)
	First(ctx context.Context, conversationID string) (models.Question, error)
}

// AttributeSink records one attribute snapshot for a user, creating the
// attribute on first write and appending to its history on every write.
type AttributeSink interface {
	Record(ctx context.Context, userID, attributeID string, value interface{}, observer models.Observer, msg models.MessageRef) error
}

// ScriptInvoker runs a stored script for a user. Its attribute writes go
// through its own path (bot observer), independent of the answer's write.
type ScriptInvoker interface {
	Run(ctx context.Context, scriptID, userID string) (map[string]interface{}, error)
}

// Renderer interpolates a question's text against the user's current
// attribute snapshot.
type Renderer interface {
	RenderQuestion(ctx context.Context, text, userID string) (string, error)
}

// Selection is the caller's answer: the position of the chosen option and,
// for input-type options, the free text entered.
type Selection struct {
	Position int    `json:"position"`
	Input    string `json:"input,omitempty"`
}

// Options controls presentation of the resolved next question.
type Options struct {
	// Raw skips text rendering and returns the stored template as-is.
	Raw bool
}

// Step is the outcome of an answer: either the next question to present,
// or Done when the chosen option carries no next pointer.
type Step struct {
	Done     bool             `json:"done"`
	Question *models.Question `json:"question,omitempty"`
}

// Runner executes answers. It holds no per-conversation state; concurrent
// answers for the same user are not serialized here (callers needing
// strict per-user ordering must queue above this layer).
type Runner struct {
	questions QuestionSource
	attrs     AttributeSink
	scripts   ScriptInvoker
	render    Renderer
	sanitize  *bluemonday.Policy
	shuffle   func([]models.Option)
	log       *zap.Logger
}

// NewRunner wires the runner's collaborators.
func NewRunner(questions QuestionSource, attrs AttributeSink, scripts ScriptInvoker, render Renderer, logger *zap.Logger) *Runner {
	return &Runner{
		questions: questions,
		attrs:     attrs,
		scripts:   scripts,
		render:    render,
		sanitize:  bluemonday.StrictPolicy(),
		shuffle: func(opts []models.Option) {
			rand.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
		},
		log: logger,
	}
}

// Start returns the conversation's entry question, prepared for
// presentation.
func (r *Runner) Start(ctx context.Context, conversationID, userID string, opts Options) (Step, error) {
	q, err := r.questions.First(ctx, conversationID)
	if err != nil {
		return Step{}, err
	}
	prepared, err := r.present(ctx, q, userID, opts)
	if err != nil {
		return Step{}, err
	}
	return Step{Question: &prepared}, nil
}

// Answer applies the selected option of the given question for the user
// and resolves what comes next. Effects run strictly in order: attribute
// write, then script, then next-question load. A script failure surfaces
// as a backend error and does not undo the attribute write already made;
// the answer is the primary effect, the script best-effort enrichment.
func (r *Runner) Answer(ctx context.Context, conversationID, questionID, userID string, sel Selection, opts Options) (Step, error) {
	q, err := r.questions.ByID(ctx, conversationID, questionID)
	if err != nil {
		return Step{}, err
	}

	// Strict option contract: stale or fabricated positions are rejected,
	// never silently ignored.
	opt, ok := q.OptionAt(sel.Position)
	if !ok {
		return Step{}, apierr.NotFound("option")
	}

	if opt.Attribute != nil {
		value := r.answerValue(opt, sel)
		msg := models.MessageRef{In: models.InConversation, ID: conversationID}
		if err := r.attrs.Record(ctx, userID, opt.Attribute.ID, value, models.ObserverQuestioner, msg); err != nil {
			return Step{}, fmt.Errorf("record answer attribute: %w", err)
		}
	}

	if opt.Script != "" {
		if _, err := r.scripts.Run(ctx, opt.Script, userID); err != nil {
			r.log.Error("answer script failed",
				zap.String("script", opt.Script),
				zap.String("user", userID),
				zap.Error(err))
			return Step{}, apierr.Backend(fmt.Errorf("script %s: %w", opt.Script, err))
		}
	}

	if opt.Next == nil {
		return Step{Done: true}, nil
	}

	next, err := r.questions.ByID(ctx, opt.Next.Conversation, opt.Next.Question)
	if err != nil {
		return Step{}, err
	}
	prepared, err := r.present(ctx, next, userID, opts)
	if err != nil {
		return Step{}, err
	}
	return Step{Question: &prepared}, nil
}

// answerValue picks what to record. Select-type options always record the
// option's fixed value so free text can never override a fixed choice;
// input-type options use the caller's text, sanitized, falling back to
// the option's default when none was given.
func (r *Runner) answerValue(opt models.Option, sel Selection) interface{} {
	if opt.Type == models.OptionInput && sel.Input != "" {
		return r.sanitize.Sanitize(sel.Input)
	}
	return opt.Attribute.Value
}

// present orders the question's options (by position, or uniformly
// shuffled when the question randomizes) and renders its text unless raw
// output was requested.
func (r *Runner) present(ctx context.Context, q models.Question, userID string, opts Options) (models.Question, error) {
	ordered := make([]models.Option, len(q.Options))
	copy(ordered, q.Options)
	if q.Randomize {
		r.shuffle(ordered)
	} else {
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })
	}
	q.Options = ordered

	if !opts.Raw && r.render != nil {
		text, err := r.render.RenderQuestion(ctx, q.Text, userID)
		if err != nil {
			return models.Question{}, fmt.Errorf("render question text: %w", err)
		}
		q.Text = text
	}
	return q, nil
}
