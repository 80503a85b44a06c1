package web

import (
	"errors"
	"net/http"

	"tienda/pkg/otel"
	"tienda/pkg/session"
	"tienda/pkg/user"
)

type usersPage struct {
	Current string        `json:"current"`
	IsAdmin bool          `json:"isAdmin"`
	Users   []user.User   `json:"users"`
	Flash   session.Flash `json:"flash"`
}

// listUsers shows every registered account.
// @Summary List users
// @Produce json
// @Success 200 {object} usersPage
// @Router /users [get]
func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	s := current(r)
	writeJSON(w, http.StatusOK, usersPage{
		Current: s.Username,
		IsAdmin: h.isAdmin(s),
		Users:   h.users.List(),
		Flash:   h.flash(r),
	})
}

// deleteUser removes an account. Only the admin may do it.
// @Summary Delete user
// @Accept x-www-form-urlencoded
// @Param username formData string true "Account to delete"
// @Success 303
// @Failure 403
// @Failure 404
// @Router /users/delete [post]
func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "deleteUser")
	defer span.End()

	s := current(r)
	target := r.PostFormValue("username")
	if !h.isAdmin(s) || target == "" {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if err := h.users.Delete(target); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		h.writeError(w, r, "delete user", err)
		return
	}
	h.log.Info(ctx, "user deleted", "username", target, "by", s.Username)
	redirect(w, r, "/users")
}

func (h *Handler) isAdmin(s session.Session) bool {
	u, err := h.users.Get(s.Username)
	return err == nil && u.IsAdmin()
}
