// Package web exposes the storefront over HTTP.
package web

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/trace"

	"tienda/pkg/events"
	"tienda/pkg/logger"
	"tienda/pkg/order"
	"tienda/pkg/order/store"
	"tienda/pkg/passgen"
	"tienda/pkg/session"
	"tienda/pkg/user"
)

// Deps are the collaborators of the HTTP layer.
type Deps struct {
	Orders    *store.Store
	Users     *user.Store
	Sessions  *session.Manager
	Hub       *events.Hub
	Passwords *passgen.Generator
	Log       *logger.Logger
	Tracer    trace.Tracer
}

// Handler serves every storefront route.
type Handler struct {
	orders    *store.Store
	users     *user.Store
	sessions  *session.Manager
	hub       *events.Hub
	passwords *passgen.Generator
	log       *logger.Logger
	tracer    trace.Tracer
}

// New builds a Handler. Hub and Passwords may be nil.
func New(d Deps) *Handler {
	if d.Hub == nil {
		d.Hub = events.NewHub(0)
	}
	if d.Passwords == nil {
		d.Passwords = passgen.Default()
	}
	return &Handler{
		orders:    d.Orders,
		users:     d.Users,
		sessions:  d.Sessions,
		hub:       d.Hub,
		passwords: d.Passwords,
		log:       d.Log,
		tracer:    d.Tracer,
	}
}

// Router returns the full route table wrapped in the request middlewares.
//
// @title Tienda API
// @version 1.0
// @description Storefront orders, accounts and password generator
// @host localhost:8443
// @BasePath /
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(h.traceMiddleware)

	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	site := r.NewRoute().Subrouter()
	site.Use(h.sessions.Middleware)
	site.HandleFunc("/", h.index).Methods(http.MethodGet)
	site.HandleFunc("/login", h.loginForm).Methods(http.MethodGet)
	site.HandleFunc("/login", h.login).Methods(http.MethodPost)
	site.HandleFunc("/logout", h.logout).Methods(http.MethodPost, http.MethodGet)
	site.HandleFunc("/register", h.registerForm).Methods(http.MethodGet)
	site.HandleFunc("/register", h.register).Methods(http.MethodPost)
	site.HandleFunc("/accept-cookies", h.acceptCookies).Methods(http.MethodPost)

	orders := site.PathPrefix("/orders").Subrouter()
	orders.Use(h.restrict)
	orders.HandleFunc("", h.listOrders).Methods(http.MethodGet)
	orders.HandleFunc("", h.createOrder).Methods(http.MethodPost)
	orders.HandleFunc("/new", h.newOrder).Methods(http.MethodGet)
	orders.Handle("/events", h.hub).Methods(http.MethodGet)
	orders.HandleFunc("/{id}", h.getOrder).Methods(http.MethodGet)
	orders.HandleFunc("/{id}", h.updateOrder).Methods(http.MethodPut, http.MethodPatch)
	orders.HandleFunc("/{id}", h.deleteOrder).Methods(http.MethodDelete)

	users := site.PathPrefix("/users").Subrouter()
	users.Use(h.restrict)
	users.HandleFunc("", h.listUsers).Methods(http.MethodGet)
	users.HandleFunc("/delete", h.deleteUser).Methods(http.MethodPost)

	pw := site.PathPrefix("/password-generator").Subrouter()
	pw.Use(h.restrict)
	pw.HandleFunc("", h.generatePassword).Methods(http.MethodGet)
	pw.HandleFunc("/dictionary", h.dictionary).Methods(http.MethodGet)

	return h.logMiddleware(methodOverride(r))
}

// healthz reports whether the order store finished hydrating.
// @Summary Health check
// @Success 200
// @Failure 503
// @Router /healthz [get]
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.orders.Ready():
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	default:
		http.Error(w, "hydrating", http.StatusServiceUnavailable)
	}
}

type homePage struct {
	User             string        `json:"user,omitempty"`
	ShowCookieBanner bool          `json:"showCookieBanner"`
	Flash            session.Flash `json:"flash"`
}

// index describes the landing page.
// @Summary Home
// @Produce json
// @Success 200 {object} homePage
// @Router / [get]
func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	s := current(r)
	consent := s.AcceptedCookies
	if u, err := h.users.Get(s.Username); err == nil {
		consent = consent || u.AcceptedCookies
	}
	writeJSON(w, http.StatusOK, homePage{User: s.Username, ShowCookieBanner: !consent, Flash: h.flash(r)})
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, order.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrNotFound), errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.log.Error(r.Context(), op, "error", err)
		http.Error(w, http.StatusText(code), code)
		return
	}
	http.Error(w, flashText(err), code)
}

// flashText strips the sentinel prefix so users see only the detail.
func flashText(err error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, order.ErrValidation.Error()+": "); ok {
		return rest
	}
	return msg
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// current returns the request session. The session middleware always sets one.
func current(r *http.Request) session.Session {
	s, _ := session.FromContext(r.Context())
	return s
}

func (h *Handler) flash(r *http.Request) session.Flash {
	s := current(r)
	if s.ID == "" {
		return session.Flash{}
	}
	f, err := h.sessions.PopFlash(r.Context(), s.ID)
	if err != nil {
		h.log.Warn(r.Context(), "read flash", "error", err)
	}
	return f
}

func (h *Handler) setError(r *http.Request, msg string) {
	if err := h.sessions.SetError(r.Context(), current(r).ID, msg); err != nil {
		h.log.Warn(r.Context(), "store flash", "error", err)
	}
}

func (h *Handler) setMessage(r *http.Request, msg string) {
	if err := h.sessions.SetMessage(r.Context(), current(r).ID, msg); err != nil {
		h.log.Warn(r.Context(), "store flash", "error", err)
	}
}
