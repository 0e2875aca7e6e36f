// internal/app/features/groups/handler.go

// Package groups manages groups: membership, join codes, and the
// per-group grants that open conversations and reports to roles.
package groups

import (
	"context"
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/features/shared"
	groupstore "github.com/dalemusser/mentorhub/internal/app/store/groups"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/apierr"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Groups *groupstore.Store
	Users  *userstore.Store
	Log    *zap.Logger
}

func NewHandler(groups *groupstore.Store, users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Groups: groups, Users: users, Log: logger}
}

func groupID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
	if err != nil {
		return primitive.NilObjectID, apierr.NotFound("group")
	}
	return id, nil
}

type createGroupRequest struct {
	Name string   `json:"name"`
	Tags []string `json:"tags,omitempty"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := shared.Decode(r, &req); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if req.Name == "" {
		apierr.Write(w, h.Log, apierr.BadPayload("name is required"))
		return
	}
	g, err := h.Groups.Create(r.Context(), models.Group{Name: req.Name, Tags: req.Tags})
	if err == groupstore.ErrDuplicateGroupName {
		apierr.Write(w, h.Log, apierr.BadPayload(err.Error()))
		return
	}
	if err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	shared.WriteJSON(w, http.StatusCreated, g)
}

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	limit, offset := shared.Paging(r, 100)
	list, err := h.Groups.List(r.Context(), limit, offset)
	if err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	if list == nil {
		list = []models.Group{}
	}
	shared.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) ServeGroup(w http.ResponseWriter, r *http.Request) {
	id, err := groupID(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	g, err := h.Groups.GetByID(r.Context(), id)
	if err != nil {
		apierr.Write(w, h.Log, shared.StoreError("group", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, g)
}

type updateGroupRequest struct {
	Name string   `json:"name"`
	Tags []string `json:"tags,omitempty"`
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := groupID(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	var req updateGroupRequest
	if err := shared.Decode(r, &req); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	tagsSet := ""
	if req.Tags != nil {
		tagsSet = "yes"
	}
	if err := h.Groups.UpdateInfo(r.Context(), id, req.Name, tagsSet, req.Tags); err != nil {
		if err == groupstore.ErrDuplicateGroupName {
			apierr.Write(w, h.Log, apierr.BadPayload(err.Error()))
			return
		}
		apierr.Write(w, h.Log, shared.StoreError("group", err))
		return
	}
	g, err := h.Groups.GetByID(r.Context(), id)
	if err != nil {
		apierr.Write(w, h.Log, shared.StoreError("group", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, g)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := groupID(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	n, err := h.Groups.Delete(r.Context(), id)
	if err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	if n == 0 {
		apierr.Write(w, h.Log, apierr.NotFound("group"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type joinRequest struct {
	Code string `json:"code"`
}

// HandleJoin adds the caller to the group holding the code, always as a
// mentee. The code grants membership and nothing else.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentPrincipal(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.NotAllowed("sign in to join a group"))
		return
	}
	var req joinRequest
	if err := shared.Decode(r, &req); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if req.Code == "" {
		apierr.Write(w, h.Log, apierr.BadPayload("code is required"))
		return
	}
	g, err := h.Groups.JoinByCode(r.Context(), req.Code, p.ID)
	if err == groupstore.ErrAlreadyParticipant {
		apierr.Write(w, h.Log, apierr.BadPayload(err.Error()))
		return
	}
	if err != nil {
		apierr.Write(w, h.Log, shared.StoreError("group", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, g)
}

func (h *Handler) HandleRotateCode(w http.ResponseWriter, r *http.Request) {
	id, err := groupID(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	code, err := h.Groups.RotateCode(r.Context(), id)
	if err != nil {
		apierr.Write(w, h.Log, shared.StoreError("group", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"code": code})
}

type participantRequest struct {
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role"`
}

func (h *Handler) HandleSetParticipant(w http.ResponseWriter, r *http.Request) {
	id, err := groupID(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	var req participantRequest
	if err := shared.Decode(r, &req); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if req.UserID == "" {
		apierr.Write(w, h.Log, apierr.BadPayload("user_id is required"))
		return
	}
	if !models.ValidStoredRole(req.Role) {
		apierr.Write(w, h.Log, apierr.BadPayload("role must be mentee, mentor, or supermentor"))
		return
	}
	if _, err := h.Users.GetByID(r.Context(), req.UserID); err != nil {
		apierr.Write(w, h.Log, shared.StoreError("user", err))
		return
	}
	if err := h.Groups.SetParticipant(r.Context(), id, req.UserID, req.Role); err != nil {
		apierr.Write(w, h.Log, shared.StoreError("group", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRemoveParticipant(w http.ResponseWriter, r *http.Request) {
	id, err := groupID(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if err := h.Groups.RemoveParticipant(r.Context(), id, chi.URLParam(r, "userID")); err != nil {
		apierr.Write(w, h.Log, shared.StoreError("group", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type grantRequest struct {
	Roles []models.Role `json:"roles"`
}

// HandleAssignConversation sets which roles of this group may run the
// conversation. An empty role list revokes the grant.
func (h *Handler) HandleAssignConversation(w http.ResponseWriter, r *http.Request) {
	h.assign(w, r, chi.URLParam(r, "conversationID"), h.Groups.AssignConversation)
}

// HandleAssignReport sets which roles of this group may view the report.
// An empty role list revokes the grant.
func (h *Handler) HandleAssignReport(w http.ResponseWriter, r *http.Request) {
	h.assign(w, r, chi.URLParam(r, "reportID"), h.Groups.AssignReport)
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request,
	key string, apply func(context.Context, primitive.ObjectID, string, []models.Role) error) {
	id, err := groupID(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	var req grantRequest
	if err := shared.Decode(r, &req); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if err := apply(r.Context(), id, key, req.Roles); err != nil {
		if err == groupstore.ErrBadRole {
			apierr.Write(w, h.Log, apierr.BadPayload(err.Error()))
			return
		}
		apierr.Write(w, h.Log, shared.StoreError("group", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
