package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/recipe-mate/internal/model"
	"github.com/sakif/recipe-mate/internal/pagination"
	"github.com/sakif/recipe-mate/internal/respond"
	"github.com/sakif/recipe-mate/internal/service"
)

// UserHandler serves the admin user routes under /api/admin/user.
type UserHandler struct {
	users  *service.UserService
	rs     *respond.Responder
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, rs *respond.Responder, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, rs: rs, logger: logger}
}

type userCreatedResponse struct {
	Status string      `json:"status"`
	User   *model.User `json:"user"`
}

// HandleList returns one page of regular users.
//
// HTTP: GET /api/admin/user/all?page=&limit=
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, err := pagination.Parse(r.URL.Query())
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	page, err := h.users.List(r.Context(), p)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, page)
}

// HandleGet returns the resolved user.
//
// HTTP: GET /api/admin/user/{userId}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := resolved[model.User](r, "userId")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, user)
}

// HandleCreate adds a regular user.
//
// HTTP: POST /api/admin/user
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req model.UserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.rs.Error(w, r, err)
		return
	}
	user, err := h.users.Add(r.Context(), req)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusCreated, userCreatedResponse{Status: "success", User: user})
}

// HandleUpdate replaces the resolved user's names and email.
//
// HTTP: PUT /api/admin/user/{userId}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, err := resolved[model.User](r, "userId")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	var req model.UserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.rs.Error(w, r, err)
		return
	}
	updated, err := h.users.Update(r.Context(), user, req)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, userCreatedResponse{Status: "success", User: updated})
}

// HandleDelete removes the resolved user.
//
// HTTP: DELETE /api/admin/user/{userId}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, err := resolved[model.User](r, "userId")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	if err := h.users.Delete(r.Context(), user); err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, success())
}
