// internal/app/features/scripts/handler.go

// Package scripts manages stored Starlark scripts and lets superusers
// run one directly against a user.
package scripts

import (
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/features/shared"
	scriptstore "github.com/dalemusser/mentorhub/internal/app/store/scripts"
	"github.com/dalemusser/mentorhub/internal/app/system/apierr"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	scriptengine "github.com/dalemusser/mentorhub/internal/app/system/scripts"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Scripts *scriptstore.Store
	Engine  *scriptengine.Engine
	Log     *zap.Logger
}

func NewHandler(scripts *scriptstore.Store, engine *scriptengine.Engine, logger *zap.Logger) *Handler {
	return &Handler{Scripts: scripts, Engine: engine, Log: logger}
}

func scriptID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "scriptID"))
	if err != nil {
		return primitive.NilObjectID, apierr.NotFound("script")
	}
	return id, nil
}

type upsertRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Source      string   `json:"source"`
	Tags        []string `json:"tags,omitempty"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := shared.Decode(r, &req); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if req.Name == "" || req.Source == "" {
		apierr.Write(w, h.Log, apierr.BadPayload("name and source are required"))
		return
	}
	sc, err := h.Scripts.Create(r.Context(), models.Script{
		Name:        req.Name,
		Description: req.Description,
		Source:      req.Source,
		Tags:        req.Tags,
	})
	if err == scriptstore.ErrDuplicateName || err == scriptstore.ErrEmptySource {
		apierr.Write(w, h.Log, apierr.BadPayload(err.Error()))
		return
	}
	if err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	shared.WriteJSON(w, http.StatusCreated, sc)
}

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	limit, offset := shared.Paging(r, 100)
	list, err := h.Scripts.List(r.Context(), limit, offset)
	if err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	if list == nil {
		list = []models.Script{}
	}
	shared.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) ServeScript(w http.ResponseWriter, r *http.Request) {
	id, err := scriptID(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	sc, err := h.Scripts.GetByID(r.Context(), id)
	if err != nil {
		apierr.Write(w, h.Log, shared.StoreError("script", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, sc)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := scriptID(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	var req upsertRequest
	if err := shared.Decode(r, &req); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if err := h.Scripts.Update(r.Context(), id, req.Name, req.Description, req.Source, req.Tags); err != nil {
		if err == scriptstore.ErrDuplicateName {
			apierr.Write(w, h.Log, apierr.BadPayload(err.Error()))
			return
		}
		apierr.Write(w, h.Log, shared.StoreError("script", err))
		return
	}
	sc, err := h.Scripts.GetByID(r.Context(), id)
	if err != nil {
		apierr.Write(w, h.Log, shared.StoreError("script", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, sc)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := scriptID(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	n, err := h.Scripts.Delete(r.Context(), id)
	if err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	if n == 0 {
		apierr.Write(w, h.Log, apierr.NotFound("script"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type runRequest struct {
	UserID string `json:"user_id"`
}

// HandleRun executes the script for the named user and returns what it
// computed. The writes land in the user's attributes with the bot
// observer, same as a run triggered from a conversation. Callers other
// than the superuser may only target themselves; an empty user_id means
// the caller.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	id, err := scriptID(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	var req runRequest
	if err := shared.Decode(r, &req); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	p, _ := auth.CurrentPrincipal(r)
	if req.UserID == "" {
		req.UserID = p.ID
	}
	if !p.Groot && req.UserID != p.ID {
		apierr.Write(w, h.Log, apierr.NotAllowed("scripts may only be run against yourself"))
		return
	}
	results, err := h.Engine.Run(r.Context(), id.Hex(), req.UserID)
	if err != nil {
		apierr.Write(w, h.Log, shared.StoreError("script", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]interface{}{"attributes": results})
}
