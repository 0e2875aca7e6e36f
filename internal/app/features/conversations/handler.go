// internal/app/features/conversations/handler.go

// Package conversations exposes conversation definitions and the flow
// endpoints that walk a user through them.
package conversations

import (
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/features/shared"
	"github.com/dalemusser/mentorhub/internal/app/flow"
	convstore "github.com/dalemusser/mentorhub/internal/app/store/conversations"
	questionstore "github.com/dalemusser/mentorhub/internal/app/store/questions"
	"github.com/dalemusser/mentorhub/internal/app/system/apierr"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Conversations *convstore.Store
	Questions     *questionstore.Store
	Runner        *flow.Runner
	Log           *zap.Logger
}

func NewHandler(conversations *convstore.Store, questions *questionstore.Store, runner *flow.Runner, logger *zap.Logger) *Handler {
	return &Handler{Conversations: conversations, Questions: questions, Runner: runner, Log: logger}
}

func conversationID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "conversationID"))
	if err != nil {
		return primitive.NilObjectID, apierr.NotFound("conversation")
	}
	return id, nil
}

func rawRequested(r *http.Request) flow.Options {
	return flow.Options{Raw: r.URL.Query().Get("raw") == "true"}
}

type upsertRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := shared.Decode(r, &req); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if req.Name == "" {
		apierr.Write(w, h.Log, apierr.BadPayload("name is required"))
		return
	}
	conv, err := h.Conversations.Create(r.Context(), models.Conversation{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err == convstore.ErrDuplicateName {
		apierr.Write(w, h.Log, apierr.BadPayload(err.Error()))
		return
	}
	if err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	shared.WriteJSON(w, http.StatusCreated, conv)
}

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	limit, offset := shared.Paging(r, 100)
	list, err := h.Conversations.List(r.Context(), limit, offset)
	if err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	if list == nil {
		list = []models.Conversation{}
	}
	shared.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) ServeConversation(w http.ResponseWriter, r *http.Request) {
	id, err := conversationID(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	conv, err := h.Conversations.GetByID(r.Context(), id)
	if err != nil {
		apierr.Write(w, h.Log, shared.StoreError("conversation", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, conv)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := conversationID(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	var req upsertRequest
	if err := shared.Decode(r, &req); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if err := h.Conversations.UpdateInfo(r.Context(), id, req.Name, req.Description, req.Tags); err != nil {
		if err == convstore.ErrDuplicateName {
			apierr.Write(w, h.Log, apierr.BadPayload(err.Error()))
			return
		}
		apierr.Write(w, h.Log, shared.StoreError("conversation", err))
		return
	}
	conv, err := h.Conversations.GetByID(r.Context(), id)
	if err != nil {
		apierr.Write(w, h.Log, shared.StoreError("conversation", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, conv)
}

// HandleDelete removes the conversation and its question graph.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := conversationID(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	n, err := h.Conversations.Delete(r.Context(), id)
	if err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	if n == 0 {
		apierr.Write(w, h.Log, apierr.NotFound("conversation"))
		return
	}
	if _, err := h.Questions.DeleteByConversation(r.Context(), id); err != nil {
		h.Log.Error("question cleanup after conversation delete failed",
			zap.String("conversation", id.Hex()), zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeFirst starts the conversation for the caller: the entry question,
// rendered against the caller's attributes unless raw=true.
func (h *Handler) ServeFirst(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentPrincipal(r)
	step, err := h.Runner.Start(r.Context(), chi.URLParam(r, "conversationID"), p.ID, rawRequested(r))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, step)
}

// HandleAnswer applies the caller's answer to a question and returns the
// next step. The side effects (attribute write, script run) belong to
// the caller, never to a user named in the payload.
func (h *Handler) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentPrincipal(r)
	var sel flow.Selection
	if err := shared.Decode(r, &sel); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	step, err := h.Runner.Answer(r.Context(),
		chi.URLParam(r, "conversationID"), chi.URLParam(r, "questionID"),
		p.ID, sel, rawRequested(r))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, step)
}
