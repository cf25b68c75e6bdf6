package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dmpavlov/userkeeper/internal/common"
	"github.com/dmpavlov/userkeeper/internal/logging"
	"github.com/dmpavlov/userkeeper/internal/server/services"
)

// Handler translates wire requests into account service calls and service
// results back into wire responses. Business-rule failures pass through
// unchanged and are mapped to statuses here, at the boundary.
type Handler struct {
	service  *services.AccountService
	validate *validator.Validate
	logger   logging.Logger
}

func NewHandler(service *services.AccountService, logger logging.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("module", "httpapi"),
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.service.Create(r.Context(), services.CreateAccountParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phones:   toPhoneParams(req.Phones),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toUserResponse(view))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toUserResponse(view))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 0)
	size := queryInt(r, "size", 0)

	paged, err := h.service.List(r.Context(), page, size)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	content := make([]*UserResponse, 0, len(paged.Content))
	for _, view := range paged.Content {
		content = append(content, toUserResponse(view))
	}

	h.writeJSON(w, http.StatusOK, &PagedResponse{
		Content:       content,
		Page:          paged.Page,
		Size:          paged.Size,
		TotalElements: paged.TotalElements,
		TotalPages:    paged.TotalPages,
	})
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toUserResponse(view))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	params := services.UpdateAccountParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Active:   req.Active,
	}
	if req.Phones != nil {
		phones := toPhoneParams(*req.Phones)
		params.Phones = &phones
	}

	view, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toUserResponse(view))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- helpers below ---

func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, &ErrorResponse{
			Code:    "request.malformed",
			Message: "request body is not valid JSON",
		})
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, &ErrorResponse{
			Code:    "request.invalid",
			Message: err.Error(),
		})
		return false
	}

	return true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var be *common.BusinessError
	if errors.As(err, &be) {
		h.writeJSON(w, businessStatus(be), &ErrorResponse{Code: be.Code, Message: be.Error()})
		return
	}

	h.logger.Error(r.Context(), "internal error", "error", err.Error())
	h.writeJSON(w, http.StatusInternalServerError, &ErrorResponse{
		Code:    "internal",
		Message: "something went wrong",
	})
}

func businessStatus(be *common.BusinessError) int {
	switch {
	case errors.Is(be, common.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(be, common.ErrNotFound):
		return http.StatusNotFound
	default:
		// InvalidEmail, InvalidPassword, EmailAlreadyExists
		return http.StatusBadRequest
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error(context.Background(), "response encoding error", "error", err.Error())
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
