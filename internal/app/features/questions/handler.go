// internal/app/features/questions/handler.go

// Package questions edits the question graph of a conversation.
package questions

import (
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/features/shared"
	questionstore "github.com/dalemusser/mentorhub/internal/app/store/questions"
	"github.com/dalemusser/mentorhub/internal/app/system/apierr"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Questions *questionstore.Store
	Log       *zap.Logger
}

func NewHandler(questions *questionstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Questions: questions, Log: logger}
}

func ids(r *http.Request) (conv, q primitive.ObjectID, err error) {
	conv, err = primitive.ObjectIDFromHex(chi.URLParam(r, "conversationID"))
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, apierr.NotFound("conversation")
	}
	if raw := chi.URLParam(r, "questionID"); raw != "" {
		q, err = primitive.ObjectIDFromHex(raw)
		if err != nil {
			return primitive.NilObjectID, primitive.NilObjectID, apierr.NotFound("question")
		}
	}
	return conv, q, nil
}

type questionRequest struct {
	Text      string          `json:"text"`
	First     bool            `json:"first"`
	Last      bool            `json:"last"`
	Randomize bool            `json:"randomize"`
	Options   []models.Option `json:"options"`
	Tags      []string        `json:"tags,omitempty"`
}

func (req *questionRequest) validate() error {
	if req.Text == "" {
		return apierr.BadPayload("text is required")
	}
	for _, o := range req.Options {
		if o.Type != models.OptionSelect && o.Type != models.OptionInput {
			return apierr.BadPayload("option type must be select or input")
		}
	}
	return nil
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	conv, _, err := ids(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	var req questionRequest
	if err := shared.Decode(r, &req); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if err := req.validate(); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	q, err := h.Questions.Create(r.Context(), models.Question{
		ConversationID: conv,
		Text:           req.Text,
		First:          req.First,
		Last:           req.Last,
		Randomize:      req.Randomize,
		Options:        req.Options,
		Tags:           req.Tags,
	})
	if err == questionstore.ErrFirstExists || err == questionstore.ErrDuplicatePositions {
		apierr.Write(w, h.Log, apierr.BadPayload(err.Error()))
		return
	}
	if err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	shared.WriteJSON(w, http.StatusCreated, q)
}

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	conv, _, err := ids(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	list, err := h.Questions.ListByConversation(r.Context(), conv)
	if err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	if list == nil {
		list = []models.Question{}
	}
	shared.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) ServeQuestion(w http.ResponseWriter, r *http.Request) {
	conv, qid, err := ids(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	q, err := h.Questions.Get(r.Context(), conv, qid)
	if err != nil {
		apierr.Write(w, h.Log, shared.StoreError("question", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, q)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	conv, qid, err := ids(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	var req questionRequest
	if err := shared.Decode(r, &req); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if err := req.validate(); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	err = h.Questions.Replace(r.Context(), conv, qid, models.Question{
		Text:      req.Text,
		First:     req.First,
		Last:      req.Last,
		Randomize: req.Randomize,
		Options:   req.Options,
		Tags:      req.Tags,
	})
	if err == questionstore.ErrFirstExists || err == questionstore.ErrDuplicatePositions {
		apierr.Write(w, h.Log, apierr.BadPayload(err.Error()))
		return
	}
	if err != nil {
		apierr.Write(w, h.Log, shared.StoreError("question", err))
		return
	}
	q, err := h.Questions.Get(r.Context(), conv, qid)
	if err != nil {
		apierr.Write(w, h.Log, shared.StoreError("question", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, q)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	conv, qid, err := ids(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	n, err := h.Questions.Delete(r.Context(), conv, qid)
	if err != nil {
		apierr.Write(w, h.Log, apierr.Backend(err))
		return
	}
	if n == 0 {
		apierr.Write(w, h.Log, apierr.NotFound("question"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
