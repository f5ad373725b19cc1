// Package http exposes the portal over REST plus a server-sent-events feed
// for live question lists.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"codeceylon/portal/internal/auth"
	"codeceylon/portal/internal/catalog"
	"codeceylon/portal/internal/config"
	"codeceylon/portal/internal/model"
	"codeceylon/portal/internal/questions"
	"codeceylon/portal/internal/routeguard"
	"codeceylon/portal/internal/scope"
	"codeceylon/portal/internal/session"
)

type Server struct {
	cfg       config.Config
	sessions  *session.Resolver
	questions *questions.Service
	revoker   auth.Revoker
}

func NewServer(cfg config.Config, sessions *session.Resolver, qs *questions.Service, revoker auth.Revoker) *Server {
	return &Server{cfg: cfg, sessions: sessions, questions: qs, revoker: revoker}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", s.handleSignUp)
		r.Post("/login", s.handleLogIn)
		r.Post("/admin/login", s.handleAdminLogIn)
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/logout", s.handleLogOut)
			r.Get("/me", s.handleMe)
			r.With(s.requireAdmin).Post("/admins", s.handleCreateAdmin)
		})
	})

	r.With(s.optionalAuth).Get("/route", s.handleRoute)

	r.Route("/catalog", func(r chi.Router) {
		r.Get("/stacks", s.handleStacks)
		r.Get("/districts", s.handleDistricts)
		r.Get("/districts/{district}/companies", s.handleCompanies)
	})

	r.Route("/questions", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/", s.handleListQuestions)
		r.Get("/stream", s.handleStreamQuestions)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/", s.handleCreateQuestion)
			r.Patch("/{questionId}", s.handleUpdateQuestion)
			r.Delete("/{questionId}", s.handleDeleteQuestion)
		})
	})

	return r
}

type claimsKey struct{}

func claimsFrom(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims, ok
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(h, "Bearer ")
}

func (s *Server) parseBearer(r *http.Request) (*auth.Claims, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, errors.New("missing bearer token")
	}
	claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revoker.IsRevoked(r.Context(), claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, errors.New("token revoked")
	}
	return claims, nil
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.parseBearer(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

// optionalAuth attaches claims when a valid token is presented but lets
// anonymous callers through.
func (s *Server) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if bearerToken(r) != "" {
			if claims, err := s.parseBearer(r); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFrom(r.Context())
		if !ok || claims.Role != model.RoleAdmin {
			writeError(w, http.StatusForbidden, "not_authorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeServiceError maps domain errors onto HTTP codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "missing_fields")
	case errors.Is(err, session.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "weak_password")
	case errors.Is(err, session.ErrEmailTaken), errors.Is(err, model.ErrDuplicate):
		writeError(w, http.StatusConflict, "email_taken")
	case errors.Is(err, session.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
	case errors.Is(err, session.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, "not_authorized")
	case errors.Is(err, questions.ErrNoScope):
		writeError(w, http.StatusBadRequest, "missing_scope")
	case errors.Is(err, questions.ErrUnknownStack):
		writeError(w, http.StatusNotFound, "unknown_stack")
	case errors.Is(err, questions.ErrUnknownCompany):
		writeError(w, http.StatusNotFound, "unknown_company")
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	default:
		log.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type userResponse struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  model.Role `json:"role"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func (s *Server) issueSession(w http.ResponseWriter, status int, sess session.Session) {
	token, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL,
		sess.User.ID, sess.User.Email, sess.User.Name, sess.Role)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, status, sessionResponse{
		Token: token,
		User: userResponse{
			ID:    sess.User.ID,
			Email: sess.User.Email,
			Name:  sess.User.Name,
			Role:  sess.Role,
		},
	})
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	sess, err := s.sessions.SignUp(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.issueSession(w, http.StatusCreated, sess)
}

type logInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogIn(w http.ResponseWriter, r *http.Request) {
	var req logInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	sess, err := s.sessions.LogIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.issueSession(w, http.StatusOK, sess)
}

// handleAdminLogIn rejects correct credentials on a non-admin account
// without establishing any session.
func (s *Server) handleAdminLogIn(w http.ResponseWriter, r *http.Request) {
	var req logInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	sess, err := s.sessions.LogInAsAdmin(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.issueSession(w, http.StatusOK, sess)
}

func (s *Server) handleLogOut(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.sessions.LogOut(r.Context(), claims.ID, expiresAt); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	writeJSON(w, http.StatusOK, userResponse{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
	})
}

type createAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req createAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	user, err := s.sessions.CreateAdmin(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	})
}

type routeResponse struct {
	Action routeguard.Action `json:"action"`
	Target string            `json:"target,omitempty"`
}

// handleRoute answers "what happens if this caller navigates to path".
// Anonymous callers simply present no token.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	role := model.RoleAnonymous
	if claims, ok := claimsFrom(r.Context()); ok {
		role = claims.Role
	}
	decision := routeguard.Decide(role, r.URL.Query().Get("path"))
	writeJSON(w, http.StatusOK, routeResponse{Action: decision.Action, Target: decision.Target})
}

type stackResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

func (s *Server) handleStacks(w http.ResponseWriter, r *http.Request) {
	stacks := catalog.Stacks()
	out := make([]stackResponse, 0, len(stacks))
	for _, st := range stacks {
		out = append(out, stackResponse{ID: st.ID, Label: st.Label})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDistricts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Districts())
}

type companyResponse struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Stacks  []string `json:"stacks"`
}

func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	district := chi.URLParam(r, "district")
	companies := catalog.CompaniesIn(district)
	if len(companies) == 0 {
		writeError(w, http.StatusNotFound, "unknown_district")
		return
	}
	out := make([]companyResponse, 0, len(companies))
	for _, c := range companies {
		out = append(out, companyResponse{ID: c.ID, Name: c.Name, Address: c.Address, Stacks: c.Stacks})
	}
	writeJSON(w, http.StatusOK, out)
}

func scopeFromQuery(r *http.Request) scope.Scope {
	q := r.URL.Query()
	return scope.Scope{
		Stack:     q.Get("stack"),
		District:  q.Get("district"),
		CompanyID: q.Get("companyId"),
	}
}

type questionResponse struct {
	ID          string     `json:"id"`
	Question    string     `json:"question"`
	Answer      string     `json:"answer"`
	District    string     `json:"district"`
	CompanyName string     `json:"companyName"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

func toQuestionResponses(records []model.QARecord) []questionResponse {
	out := make([]questionResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, questionResponse{
			ID:          rec.ID,
			Question:    rec.Question,
			Answer:      rec.Answer,
			District:    rec.District,
			CompanyName: rec.CompanyName,
			CreatedAt:   rec.CreatedAt,
			UpdatedAt:   rec.UpdatedAt,
		})
	}
	return out
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	records, err := s.questions.List(r.Context(), scopeFromQuery(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuestionResponses(records))
}

type createQuestionRequest struct {
	Stack     string `json:"stack"`
	District  string `json:"district"`
	CompanyID string `json:"companyId"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}

func (s *Server) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	sc := scope.Scope{Stack: req.Stack, District: req.District, CompanyID: req.CompanyID}
	rec, err := s.questions.Create(r.Context(), sc, req.Question, req.Answer)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQuestionResponses([]model.QARecord{rec})[0])
}

type updateQuestionRequest struct {
	Stack     string `json:"stack"`
	District  string `json:"district"`
	CompanyID string `json:"companyId"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}

func (s *Server) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var req updateQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	sc := scope.Scope{Stack: req.Stack, District: req.District, CompanyID: req.CompanyID}
	if err := s.questions.Update(r.Context(), sc, chi.URLParam(r, "questionId"), req.Question, req.Answer); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	sc := scopeFromQuery(r)
	if err := s.questions.Delete(r.Context(), sc, chi.URLParam(r, "questionId")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStreamQuestions streams the scope's list over SSE: a full snapshot
// immediately, then a fresh snapshot after every change signal. Watchers
// never receive diffs.
func (s *Server) handleStreamQuestions(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported")
		return
	}

	sc := scopeFromQuery(r)
	sub, err := s.questions.Watch(r.Context(), sc)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sendSnapshot := func() bool {
		records, err := s.questions.List(r.Context(), sc)
		if err != nil {
			log.Warn().Err(err).Msg("snapshot failed, closing stream")
			return false
		}
		payload, err := json.Marshal(toQuestionResponses(records))
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !sendSnapshot() {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case _, ok := <-sub.C():
			if !ok {
				return
			}
			if !sendSnapshot() {
				return
			}
		}
	}
}
