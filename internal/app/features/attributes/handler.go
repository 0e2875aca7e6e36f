// internal/app/features/attributes/handler.go

// Package attributes manages attribute definitions. Per-user values are
// served through the users feature.
package attributes

import (
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/features/shared"
	attrstore "github.com/dalemusser/mentorhub/internal/app/store/attributes"
	"github.com/dalemusser/mentorhub/internal/app/system/apierr"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Attributes *attrstore.Store
	Log        *zap.Logger
}

func NewHandler(attributes *attrstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Attributes: attributes, Log: logger}
}

func attributeID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "attributeID"))
	if err != nil {
		return primitive.NilObjectID, apierr.NotFound("attribute")
	}
	return id, nil
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
	def, err := h.Attributes.Create(r.Context(), models.AttributeDef{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err == attrstore.ErrDuplicateName {
		apierr.Write(w, h.Log, apierr.BadPayload(err.Error()))
		return
	}
	if err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	shared.WriteJSON(w, http.StatusCreated, def)
}

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	limit, offset := shared.Paging(r, 200)
	list, err := h.Attributes.List(r.Context(), limit, offset)
	if err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	if list == nil {
		list = []models.AttributeDef{}
	}
	shared.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) ServeAttribute(w http.ResponseWriter, r *http.Request) {
	id, err := attributeID(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	def, err := h.Attributes.GetByID(r.Context(), id)
	if err != nil {
		apierr.Write(w, h.Log, shared.StoreError("attribute", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, def)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := attributeID(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	var req upsertRequest
	if err := shared.Decode(r, &req); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if err := h.Attributes.UpdateInfo(r.Context(), id, req.Name, req.Description, req.Tags); err != nil {
		if err == attrstore.ErrDuplicateName {
			apierr.Write(w, h.Log, apierr.BadPayload(err.Error()))
			return
		}
		apierr.Write(w, h.Log, shared.StoreError("attribute", err))
		return
	}
	def, err := h.Attributes.GetByID(r.Context(), id)
	if err != nil {
		apierr.Write(w, h.Log, shared.StoreError("attribute", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, def)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := attributeID(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	n, err := h.Attributes.Delete(r.Context(), id)
	if err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	if n == 0 {
		apierr.Write(w, h.Log, apierr.NotFound("attribute"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
