// Package httpapi exposes the accounts HTTP API: registration, login,
// email confirmation and profile management.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/kunjika/accounts/internal/errs"
	"github.com/kunjika/accounts/internal/model"
	"github.com/kunjika/accounts/internal/service"
	"github.com/kunjika/accounts/internal/session"
)

// Server wires the account service into HTTP handlers.
type Server struct {
	accounts     service.AccountService
	sessions     *session.Service
	log          *zap.Logger
	cookieDomain string
}

// New constructs a server with injected services.
func New(accounts service.AccountService, sessions *session.Service, log *zap.Logger, cookieDomain string) *Server {
	return &Server{accounts: accounts, sessions: sessions, log: log, cookieDomain: cookieDomain}
}

// Routes builds the router with middleware and all endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(s.log))
	r.Use(Logging(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Post("/register", s.register)
	r.Post("/login", s.login)
	r.Post("/check-username-availability", s.checkUsername)
	r.Get("/confirm-email/{token}", s.confirmEmail)
	r.Post("/users", s.listUsers)
	r.Get("/user/{id}/{username}", s.getProfile)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(s.sessions))
		r.Get("/profile/{id}/username/{username}", s.updateUsername)
		r.Get("/profile/{id}/title/{title}", s.updateField(model.FieldTitle, "title"))
		r.Get("/profile/{id}/name/{name}", s.updateField(model.FieldUsername, "name"))
		r.Get("/profile/{id}/designation/{designation}", s.updateField(model.FieldDesignation, "designation"))
		r.Get("/profile/{id}/location/{location}", s.updateField(model.FieldLocation, "location"))
		r.Get("/edit-links/{id}", s.getLinks)
		r.Post("/edit-links/{id}", s.updateLinks)
		r.Delete("/user/{id}", s.deleteAccount)
	})
	return r
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResult(w, APIResult{Code: http.StatusBadRequest, Msg: "invalid request body"})
		return
	}
	sent, err := s.accounts.Register(r.Context(), req.Username, req.Email, req.Password, req.ConfirmPassword)
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		writeResult(w, APIResult{Code: http.StatusBadRequest, Msg: err.Error()})
	case errors.Is(err, errs.ErrAlreadyExists):
		// Generic on purpose: never reveal which field collided.
		writeResult(w, APIResult{Code: http.StatusConflict, Msg: "Either email or username is taken."})
	case err != nil:
		s.log.Error("register", zap.Error(err))
		writeResult(w, APIResult{Code: http.StatusInternalServerError, Msg: "internal error"})
	case !sent:
		// Account exists; only the confirmation email failed.
		writeResult(w, APIResult{Code: http.StatusBadGateway, Msg: "ok"})
	default:
		writeResult(w, APIResult{Code: http.StatusOK, Msg: "ok"})
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResult(w, APIResult{Code: http.StatusBadRequest, Msg: "invalid request body"})
		return
	}
	cred, _, err := s.accounts.Login(r.Context(), req.Email, req.Password, req.RememberMe)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    cred,
		Domain:   s.cookieDomain,
		Path:     "/",
		Secure:   true,
		HttpOnly: true,
	})
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(LoginResponse{Success: true})
}

func (s *Server) checkUsername(w http.ResponseWriter, r *http.Request) {
	var req UsernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResult(w, APIResult{Code: http.StatusBadRequest, Msg: "invalid request body"})
		return
	}
	if s.accounts.CheckUsername(r.Context(), req.Username) {
		writeResult(w, APIResult{Code: http.StatusOK, Msg: "username available", Data: AvailabilityResponse{Success: true}})
		return
	}
	writeResult(w, APIResult{Code: http.StatusOK, Msg: "username unavailable", Data: AvailabilityResponse{Success: false}})
}

func (s *Server) confirmEmail(w http.ResponseWriter, r *http.Request) {
	tok := chi.URLParam(r, "token")
	err := s.accounts.ConfirmEmail(r.Context(), tok)
	switch {
	case errors.Is(err, errs.ErrTokenExpired), errors.Is(err, errs.ErrBadSignature):
		writeResult(w, APIResult{Code: http.StatusBadRequest, Msg: "Bad request"})
	case err != nil:
		writeResult(w, APIResult{Code: http.StatusBadRequest, Msg: "Your email is not registered with us!"})
	default:
		writeResult(w, APIResult{Code: http.StatusOK, Msg: "Email verified"})
	}
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	var req UsersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResult(w, APIResult{Code: http.StatusBadRequest, Msg: "invalid request body"})
		return
	}
	page, err := s.accounts.ListUsers(r.Context(), req.LastUser)
	if err != nil {
		s.log.Error("list users", zap.Error(err))
		writeResult(w, APIResult{Code: http.StatusBadRequest, Msg: "Bad request!"})
		return
	}
	writeResult(w, APIResult{Code: http.StatusOK, Data: map[string]any{"users": page}})
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	uid, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeResult(w, APIResult{Code: http.StatusBadRequest, Msg: "Bad request!"})
		return
	}
	p, err := s.accounts.GetProfile(r.Context(), uid)
	if err != nil {
		writeResult(w, APIResult{Code: http.StatusBadRequest, Msg: "Bad request!"})
		return
	}
	writeResult(w, APIResult{Code: http.StatusOK, Data: p})
}

// ownerCall parses the {id} route param and the authenticated claims.
func (s *Server) ownerCall(w http.ResponseWriter, r *http.Request) (int64, *session.Claims, bool) {
	uid, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeResult(w, APIResult{Code: http.StatusBadRequest, Msg: "Bad request!"})
		return 0, nil, false
	}
	claims, ok := ClaimsFromCtx(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return 0, nil, false
	}
	return uid, claims, true
}

func (s *Server) updateUsername(w http.ResponseWriter, r *http.Request) {
	uid, claims, ok := s.ownerCall(w, r)
	if !ok {
		return
	}
	success, err := s.accounts.UpdateUsername(r.Context(), claims, uid, chi.URLParam(r, "username"))
	s.writeMutation(w, success, err)
}

// updateField returns a handler updating one profile column from the named
// route parameter.
func (s *Server) updateField(field model.ProfileField, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, claims, ok := s.ownerCall(w, r)
		if !ok {
			return
		}
		success, err := s.accounts.UpdateField(r.Context(), claims, uid, field, chi.URLParam(r, param))
		s.writeMutation(w, success, err)
	}
}

func (s *Server) getLinks(w http.ResponseWriter, r *http.Request) {
	uid, claims, ok := s.ownerCall(w, r)
	if !ok {
		return
	}
	links, err := s.accounts.GetLinks(r.Context(), claims, uid)
	if err != nil {
		s.writeMutation(w, false, err)
		return
	}
	writeResult(w, APIResult{Code: http.StatusOK, Data: links})
}

func (s *Server) updateLinks(w http.ResponseWriter, r *http.Request) {
	uid, claims, ok := s.ownerCall(w, r)
	if !ok {
		return
	}
	var links model.Links
	if err := json.NewDecoder(r.Body).Decode(&links); err != nil {
		writeResult(w, APIResult{Code: http.StatusBadRequest, Msg: "invalid request body"})
		return
	}
	success, err := s.accounts.UpdateLinks(r.Context(), claims, uid, links)
	s.writeMutation(w, success, err)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	uid, claims, ok := s.ownerCall(w, r)
	if !ok {
		return
	}
	err := s.accounts.DeleteAccount(r.Context(), claims, uid)
	s.writeMutation(w, err == nil, err)
}

// writeMutation maps a mutation outcome to the response envelope. Ownership
// failures stay a bare 401, mirroring the rest of the auth surface.
func (s *Server) writeMutation(w http.ResponseWriter, success bool, err error) {
	switch {
	case errors.Is(err, errs.ErrForbidden):
		w.WriteHeader(http.StatusUnauthorized)
	case err != nil:
		s.log.Error("mutation", zap.Error(err))
		writeResult(w, APIResult{Code: http.StatusInternalServerError, Msg: "internal error"})
	default:
		writeResult(w, APIResult{Code: http.StatusOK, Data: success})
	}
}
