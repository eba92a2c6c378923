package handler

import (
	"net/http"

	"fsanano/mini-shop/internal/service"
)

type updateProfileRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// UpdateMe changes the caller's email or password. The role field is not
// accepted here.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	user, err := h.svc.Users.UpdateProfile(r.Context(), identity(r), service.ProfileUpdate{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Users.DeleteSelf(r.Context(), identity(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	users, err := h.svc.Users.List(r.Context(), identity(r), page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req changeRoleRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	user, err := h.svc.Users.ChangeRole(r.Context(), identity(r), userID, req.Role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, err := h.svc.Users.Delete(r.Context(), identity(r), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
