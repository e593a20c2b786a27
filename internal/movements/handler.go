package movements

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/keystone-erp/keystone-erp/internal/platform/httpx"
	"github.com/keystone-erp/keystone-erp/internal/shared"
)

// Handler wires HTTP endpoints for the stock ledger.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountEntryRoutes registers entry routes.
func (h *Handler) MountEntryRoutes(r chi.Router) {
	r.Get("/", h.listEntries)
	r.Post("/", h.recordEntry)
	r.Get("/{id}", h.getEntry)
}

// MountExitRoutes registers exit routes.
func (h *Handler) MountExitRoutes(r chi.Router) {
	r.Get("/", h.listExits)
	r.Post("/", h.recordExit)
	r.Get("/{id}", h.getExit)
	r.Post("/{id}/return", h.markReturn)
}

// MountMaterialRoutes registers the material-scoped ledger routes. They
// live here rather than in the catalog package because both mutate or
// read the movement ledger.
func (h *Handler) MountMaterialRoutes(r chi.Router) {
	r.Patch("/{id}/stock", h.adjustStock)
	r.Get("/{id}/ledger", h.ledger)
}

func (h *Handler) recordEntry(w http.ResponseWriter, r *http.Request) {
	var req RecordEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entry, err := h.service.RecordEntry(r.Context(), RecordEntryInput{
		MaterialID: req.MaterialID,
		Type:       EntryType(req.EntryType),
		Quantity:   req.Quantity,
		UnitPrice:  req.UnitPrice,
		VendorID:   req.VendorID,
		InvoiceRef: req.InvoiceRef,
		Remarks:    req.Remarks,
		Actor:      shared.ActorFromContext(r.Context()),
		Code:       req.Code,
	})
	if err != nil {
		h.logger.Error("record entry", slog.Any("error", err), slog.Int64("material_id", req.MaterialID))
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) recordExit(w http.ResponseWriter, r *http.Request) {
	var req RecordExitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	exit, err := h.service.RecordExit(r.Context(), RecordExitInput{
		MaterialID:     req.MaterialID,
		Quantity:       req.Quantity,
		Purpose:        req.Purpose,
		IssuedTo:       req.IssuedTo,
		ProjectID:      req.ProjectID,
		ApprovedBy:     req.ApprovedBy,
		ReturnExpected: req.ReturnExpected,
		Remarks:        req.Remarks,
		Actor:          shared.ActorFromContext(r.Context()),
		Code:           req.Code,
	})
	if err != nil {
		h.logger.Error("record exit", slog.Any("error", err), slog.Int64("material_id", req.MaterialID))
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, exit)
}

func (h *Handler) getEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	entry, err := h.service.GetEntry(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) getExit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid exit id")
		return
	}
	exit, err := h.service.GetExit(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, exit)
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	filter := EntryFilter{}
	q := r.URL.Query()
	filter.MaterialID, _ = strconv.ParseInt(q.Get("material_id"), 10, 64)
	if v := q.Get("vendor_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.VendorID = &id
		}
	}
	if v := q.Get("entry_type"); v != "" {
		t := EntryType(v)
		if !ValidEntryType(t) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown entry_type")
			return
		}
		filter.Type = &t
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	entries, err := h.service.ListEntries(r.Context(), filter)
	if err != nil {
		h.logger.Error("list entries", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}

func (h *Handler) listExits(w http.ResponseWriter, r *http.Request) {
	filter := ExitFilter{}
	q := r.URL.Query()
	filter.MaterialID, _ = strconv.ParseInt(q.Get("material_id"), 10, 64)
	if v := q.Get("project_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.ProjectID = &id
		}
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	exits, err := h.service.ListExits(r.Context(), filter)
	if err != nil {
		h.logger.Error("list exits", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"exits": exits, "count": len(exits)})
}

func (h *Handler) markReturn(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid exit id")
		return
	}
	var req ReturnRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	exit, err := h.service.MarkExitReturn(r.Context(), id, req.Quantity, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("mark return", slog.Any("error", err), slog.Int64("exit_id", id))
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, exit)
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid material id")
		return
	}
	var req UpdateStockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	line, err := h.service.AdjustStock(r.Context(), AdjustStockInput{
		MaterialID: id,
		Quantity:   req.Quantity,
		Subtract:   req.Operation == "subtract",
		Reason:     req.Reason,
		Actor:      shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.logger.Error("adjust stock", slog.Any("error", err), slog.Int64("material_id", id))
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, line)
}

func (h *Handler) ledger(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid material id")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	ledger, err := h.service.Ledger(r.Context(), id, limit)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ledger)
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMaterialNotFound), errors.Is(err, ErrEntryNotFound), errors.Is(err, ErrExitNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrMaterialInactive),
		errors.Is(err, ErrAlreadyReturned),
		errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidUnitPrice),
		errors.Is(err, ErrInvalidEntryType),
		errors.Is(err, ErrReturnNotExpected),
		errors.Is(err, ErrReturnExceedsIssue):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}
