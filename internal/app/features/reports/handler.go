// internal/app/features/reports/handler.go

// Package reports manages report definitions and renders a report's
// attributes for one user.
package reports

import (
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/features/shared"
	reportstore "github.com/dalemusser/mentorhub/internal/app/store/reports"
	userattrstore "github.com/dalemusser/mentorhub/internal/app/store/userattrs"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/apierr"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Reports   *reportstore.Store
	Users     *userstore.Store
	UserAttrs *userattrstore.Store
	Log       *zap.Logger
}

func NewHandler(reports *reportstore.Store, users *userstore.Store, userAttrs *userattrstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Reports: reports, Users: users, UserAttrs: userAttrs, Log: logger}
}

func reportID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "reportID"))
	if err != nil {
		return primitive.NilObjectID, apierr.NotFound("report")
	}
	return id, nil
}

type upsertRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Attributes  []string `json:"attributes"`
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
	rep, err := h.Reports.Create(r.Context(), models.Report{
		Name:        req.Name,
		Description: req.Description,
		Attributes:  req.Attributes,
		Tags:        req.Tags,
	})
	if err == reportstore.ErrDuplicateName {
		apierr.Write(w, h.Log, apierr.BadPayload(err.Error()))
		return
	}
	if err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	shared.WriteJSON(w, http.StatusCreated, rep)
}

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	limit, offset := shared.Paging(r, 100)
	list, err := h.Reports.List(r.Context(), limit, offset)
	if err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	if list == nil {
		list = []models.Report{}
	}
	shared.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) ServeReport(w http.ResponseWriter, r *http.Request) {
	id, err := reportID(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	rep, err := h.Reports.GetByID(r.Context(), id)
	if err != nil {
		apierr.Write(w, h.Log, shared.StoreError("report", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, rep)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := reportID(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	var req upsertRequest
	if err := shared.Decode(r, &req); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if err := h.Reports.Update(r.Context(), id, req.Name, req.Description, req.Attributes, req.Tags); err != nil {
		if err == reportstore.ErrDuplicateName {
			apierr.Write(w, h.Log, apierr.BadPayload(err.Error()))
			return
		}
		apierr.Write(w, h.Log, shared.StoreError("report", err))
		return
	}
	rep, err := h.Reports.GetByID(r.Context(), id)
	if err != nil {
		apierr.Write(w, h.Log, shared.StoreError("report", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, rep)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := reportID(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	n, err := h.Reports.Delete(r.Context(), id)
	if err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	if n == 0 {
		apierr.Write(w, h.Log, apierr.NotFound("report"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type rendered struct {
	Report     string                 `json:"report"`
	User       string                 `json:"user"`
	FullName   string                 `json:"full_name"`
	Attributes map[string]interface{} `json:"attributes"`
}

// ServeForUser renders the report for one user: the latest value of each
// listed attribute. Attributes never recorded for the user are omitted.
func (h *Handler) ServeForUser(w http.ResponseWriter, r *http.Request) {
	id, err := reportID(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	rep, err := h.Reports.GetByID(r.Context(), id)
	if err != nil {
		apierr.Write(w, h.Log, shared.StoreError("report", err))
		return
	}
	userID := chi.URLParam(r, "userID")
	u, err := h.Users.GetByID(r.Context(), userID)
	if err != nil {
		apierr.Write(w, h.Log, shared.StoreError("user", err))
		return
	}
	values, err := h.UserAttrs.Values(r.Context(), userID, rep.Attributes)
	if err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, rendered{
		Report:     rep.ID.Hex(),
		User:       u.ID,
		FullName:   u.FullName,
		Attributes: values,
	})
}
