package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"tienda/pkg/otel"
	"tienda/pkg/session"
	"tienda/pkg/user"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type flashPage struct {
	Flash session.Flash `json:"flash"`
}

// readCredentials accepts JSON or form posts. Forms may use the short
// user/pass field names.
func readCredentials(r *http.Request) (credentials, error) {
	var c credentials
	if isJSON(r) {
		err := json.NewDecoder(r.Body).Decode(&c)
		return c, err
	}
	if err := r.ParseForm(); err != nil {
		return c, err
	}
	c.Username = r.PostForm.Get("username")
	if c.Username == "" {
		c.Username = r.PostForm.Get("user")
	}
	c.Password = r.PostForm.Get("password")
	if c.Password == "" {
		c.Password = r.PostForm.Get("pass")
	}
	return c, nil
}

// loginForm returns pending flash messages for the login page.
// @Summary Login page
// @Produce json
// @Success 200 {object} flashPage
// @Router /login [get]
func (h *Handler) loginForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, flashPage{Flash: h.flash(r)})
}

// login authenticates the user and attaches them to the session.
// @Summary Login
// @Accept json,x-www-form-urlencoded
// @Param creds body credentials true "Credentials"
// @Success 303
// @Router /login [post]
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "login")
	defer span.End()

	c, err := readCredentials(r)
	if err != nil {
		h.setError(r, "malformed credentials")
		redirect(w, r, "/login")
		return
	}
	u, err := h.users.Authenticate(c.Username, c.Password)
	if err != nil {
		h.log.Info(ctx, "login rejected", "username", c.Username)
		h.setError(r, "Authentication failed, please check your username and password")
		redirect(w, r, "/login")
		return
	}
	s := current(r)
	if err := h.sessions.Login(ctx, s.ID, u.Username); err != nil {
		h.writeError(w, r, "login", err)
		return
	}
	if u.AcceptedCookies && !s.AcceptedCookies {
		if err := h.sessions.AcceptCookies(ctx, s.ID); err != nil {
			h.log.Warn(ctx, "copy cookie consent", "error", err)
		}
	}
	h.log.Info(ctx, "user logged in", "username", u.Username)
	redirect(w, r, "/orders")
}

// logout ends the session. Cookie consent survives into the next one.
// @Summary Logout
// @Success 303
// @Router /logout [post]
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := current(r)
	consent := s.AcceptedCookies
	if u, err := h.users.Get(s.Username); err == nil && u.AcceptedCookies {
		consent = true
	}
	if err := h.sessions.Destroy(ctx, s.ID); err != nil {
		h.writeError(w, r, "logout", err)
		return
	}
	next, err := h.sessions.New(ctx)
	if err != nil {
		h.writeError(w, r, "logout", err)
		return
	}
	if consent {
		if err := h.sessions.AcceptCookies(ctx, next.ID); err != nil {
			h.log.Warn(ctx, "keep cookie consent", "error", err)
		}
	}
	http.SetCookie(w, h.sessions.Cookie(next.ID))
	redirect(w, r, "/")
}

// registerForm returns pending flash messages for the register page.
// @Summary Register page
// @Produce json
// @Success 200 {object} flashPage
// @Router /register [get]
func (h *Handler) registerForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, flashPage{Flash: h.flash(r)})
}

// register creates an account and logs it in.
// @Summary Register
// @Accept json,x-www-form-urlencoded
// @Param creds body credentials true "Credentials"
// @Success 303
// @Router /register [post]
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "register")
	defer span.End()

	c, err := readCredentials(r)
	if err != nil {
		h.setError(r, "malformed credentials")
		redirect(w, r, "/register")
		return
	}
	if err := h.users.Register(c.Username, c.Password); err != nil {
		if !errors.Is(err, user.ErrDuplicate) && !errors.Is(err, user.ErrInvalid) {
			h.log.Error(ctx, "register", "error", err)
		}
		h.setError(r, err.Error())
		redirect(w, r, "/register")
		return
	}
	u, err := h.users.Get(c.Username)
	if err != nil {
		h.writeError(w, r, "register", err)
		return
	}
	if err := h.sessions.Login(ctx, current(r).ID, u.Username); err != nil {
		h.writeError(w, r, "register", err)
		return
	}
	h.log.Info(ctx, "user registered", "username", u.Username)
	h.setMessage(r, "Registration successful!")
	redirect(w, r, "/orders")
}

// acceptCookies records cookie consent on the session and the account.
// @Summary Accept cookies
// @Success 200
// @Router /accept-cookies [post]
func (h *Handler) acceptCookies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := current(r)
	if err := h.sessions.AcceptCookies(ctx, s.ID); err != nil {
		h.writeError(w, r, "accept cookies", err)
		return
	}
	if s.LoggedIn() {
		if err := h.users.AcceptCookies(s.Username); err != nil {
			h.log.Warn(ctx, "persist cookie consent", "username", s.Username, "error", err)
		} else {
			h.log.Info(ctx, "cookies accepted", "username", s.Username)
		}
	}
	w.WriteHeader(http.StatusOK)
}
