package demanddrafts

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/keystone-erp/keystone-erp/internal/platform/httpx"
)

// Handler wires the letter rendering endpoint.
type Handler struct {
	logger    *slog.Logger
	validator *validator.Validate
}

// NewHandler constructs the demand draft handler.
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger, validator: validator.New()}
}

// MountRoutes registers demand draft routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/render", h.render)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request) {
	var draft Draft
	if err := httpx.DecodeJSON(r, &draft); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(draft); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	letter, err := Render(draft)
	if err != nil {
		if errors.Is(err, ErrMissingField) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("render demand draft", slog.Any("error", err), slog.String("ref_no", draft.RefNo))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, letter)
}
