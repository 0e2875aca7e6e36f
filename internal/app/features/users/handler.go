// internal/app/features/users/handler.go

// Package users exposes user profiles. Accounts live at the identity
// provider; this feature mirrors profile fields and orchestrates account
// lifecycle through the provider's admin API.
package users

import (
	"context"
	"net/http"
	"sort"

	"github.com/dalemusser/mentorhub/internal/app/features/shared"
	convstore "github.com/dalemusser/mentorhub/internal/app/store/conversations"
	groupstore "github.com/dalemusser/mentorhub/internal/app/store/groups"
	userattrstore "github.com/dalemusser/mentorhub/internal/app/store/userattrs"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/apierr"
	"github.com/dalemusser/mentorhub/internal/app/system/idp"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users         *userstore.Store
	Groups        *groupstore.Store
	Conversations *convstore.Store
	UserAttrs     *userattrstore.Store
	IdP           idp.Manager
	Log           *zap.Logger
}

func NewHandler(users *userstore.Store, groups *groupstore.Store, conversations *convstore.Store, userAttrs *userattrstore.Store, provider idp.Manager, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Groups: groups, Conversations: conversations, UserAttrs: userAttrs, IdP: provider, Log: logger}
}

type createUserRequest struct {
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Tags     []string `json:"tags,omitempty"`
}

// HandleCreate provisions the account at the identity provider and
// mirrors the profile locally under the provider's subject.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := shared.Decode(r, &req); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if req.FullName == "" || req.Email == "" || req.Password == "" {
		apierr.Write(w, h.Log, apierr.BadPayload("full_name, email, and password are required"))
		return
	}

	acct, err := h.IdP.CreateAccount(r.Context(), req.Email, req.FullName, req.Password)
	if err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}

	u, err := h.Users.Create(r.Context(), models.User{
		ID:       acct.Subject,
		FullName: req.FullName,
		Email:    req.Email,
		Tags:     req.Tags,
	})
	if err == userstore.ErrDuplicateID {
		apierr.Write(w, h.Log, apierr.BadPayload("a user already exists for this account"))
		return
	}
	if err != nil {
		// Roll back the provider account so a retry can succeed.
		if derr := h.IdP.DeleteAccount(context.WithoutCancel(r.Context()), acct.Subject); derr != nil {
			h.Log.Error("orphaned identity account after profile create failure",
				zap.String("subject", acct.Subject), zap.Error(derr))
		}
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	shared.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	limit, offset := shared.Paging(r, 100)
	list, err := h.Users.List(r.Context(), r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	if list == nil {
		list = []models.User{}
	}
	shared.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.GetByID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		apierr.Write(w, h.Log, shared.StoreError("user", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, u)
}

type updateUserRequest struct {
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Tags     []string `json:"tags,omitempty"`
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := shared.Decode(r, &req); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if req.FullName == "" || req.Email == "" {
		apierr.Write(w, h.Log, apierr.BadPayload("full_name and email are required"))
		return
	}
	id := chi.URLParam(r, "userID")
	if err := h.Users.Update(r.Context(), id, userstore.Update{
		FullName: req.FullName,
		Email:    req.Email,
		Tags:     req.Tags,
	}); err != nil {
		apierr.Write(w, h.Log, shared.StoreError("user", err))
		return
	}
	u, err := h.Users.GetByID(r.Context(), id)
	if err != nil {
		apierr.Write(w, h.Log, shared.StoreError("user", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, u)
}

// HandleDelete removes the account at the provider, then the profile and
// everything keyed to it (group memberships, recorded attributes).
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")
	if _, err := h.Users.GetByID(r.Context(), id); err != nil {
		apierr.Write(w, h.Log, shared.StoreError("user", err))
		return
	}

	if err := h.IdP.DeleteAccount(r.Context(), id); err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	if _, err := h.Users.Delete(r.Context(), id); err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	if _, err := h.Groups.RemoveParticipantEverywhere(r.Context(), id); err != nil {
		h.Log.Error("membership cleanup after user delete failed", zap.String("user", id), zap.Error(err))
	}
	if _, err := h.UserAttrs.DeleteForUser(r.Context(), id); err != nil {
		h.Log.Error("attribute cleanup after user delete failed", zap.String("user", id), zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

type setPasswordRequest struct {
	Password string `json:"password"`
}

func (h *Handler) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	var req setPasswordRequest
	if err := shared.Decode(r, &req); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if req.Password == "" {
		apierr.Write(w, h.Log, apierr.BadPayload("password is required"))
		return
	}
	id := chi.URLParam(r, "userID")
	if _, err := h.Users.GetByID(r.Context(), id); err != nil {
		apierr.Write(w, h.Log, shared.StoreError("user", err))
		return
	}
	if err := h.IdP.SetPassword(r.Context(), id, req.Password); err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setGrootRequest struct {
	Groot bool `json:"groot"`
}

func (h *Handler) HandleSetGroot(w http.ResponseWriter, r *http.Request) {
	var req setGrootRequest
	if err := shared.Decode(r, &req); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if err := h.Users.SetGroot(r.Context(), chi.URLParam(r, "userID"), req.Groot); err != nil {
		apierr.Write(w, h.Log, shared.StoreError("user", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeConversations lists the conversations the user can run, resolved
// through the grants of the groups the user participates in. A grant
// pointing at a deleted conversation is skipped.
func (h *Handler) ServeConversations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")
	if _, err := h.Users.GetByID(r.Context(), id); err != nil {
		apierr.Write(w, h.Log, shared.StoreError("user", err))
		return
	}
	groups, err := h.Groups.GroupsForMember(r.Context(), id)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	seen := map[string]bool{}
	out := []models.Conversation{}
	for _, g := range groups {
		role := g.Participants[id]
		for hex, granted := range g.Conversations {
			if seen[hex] || !roleGranted(role, granted) {
				continue
			}
			oid, err := primitive.ObjectIDFromHex(hex)
			if err != nil {
				continue
			}
			conv, err := h.Conversations.GetByID(r.Context(), oid)
			if err == mongo.ErrNoDocuments {
				continue
			}
			if err != nil {
				apierr.Write(w, h.Log, apierr.Backend(err))
				return
			}
			seen[hex] = true
			out = append(out, conv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NameCI < out[j].NameCI })
	shared.WriteJSON(w, http.StatusOK, out)
}

func roleGranted(r models.Role, granted []models.Role) bool {
	for _, g := range granted {
		if g == r {
			return true
		}
	}
	return false
}

// ServeAttributes lists everything recorded for the user, history included.
func (h *Handler) ServeAttributes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")
	if _, err := h.Users.GetByID(r.Context(), id); err != nil {
		apierr.Write(w, h.Log, shared.StoreError("user", err))
		return
	}
	list, err := h.UserAttrs.ListForUser(r.Context(), id)
	if err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	if list == nil {
		list = []models.UserAttribute{}
	}
	shared.WriteJSON(w, http.StatusOK, list)
}

// ServeAttribute returns one recorded attribute with its history.
func (h *Handler) ServeAttribute(w http.ResponseWriter, r *http.Request) {
	ua, err := h.UserAttrs.Get(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "attributeID"))
	if err != nil {
		apierr.Write(w, h.Log, shared.StoreError("attribute", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, ua)
}
