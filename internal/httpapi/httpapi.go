package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"shoezclean/backend/internal/auth"
	"shoezclean/backend/internal/domain"
	"shoezclean/backend/internal/service"
	"shoezclean/backend/internal/store"
	"shoezclean/backend/internal/syncer"
)

const (
	maxBodyBytes   = 1 << 20
	loginPerMinute = 5
)

// Roles allowed on back-office routes.
var (
	staffRoles = []domain.Role{domain.RoleSuperuser, domain.RoleAdmin, domain.RoleCashier}
	adminRoles = []domain.Role{domain.RoleSuperuser, domain.RoleAdmin}
)

type Options struct {
	AllowedOrigin      string
	RateLimitPerMinute int
	Log                *logrus.Entry
	// Metrics is served at /metrics. Defaults to the prometheus default registry.
	Metrics http.Handler
}

type API struct {
	service *service.Service
	opts    Options
	log     *logrus.Entry
}

func New(svc *service.Service, opts Options) *API {
	if opts.Log == nil {
		opts.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.Metrics == nil {
		opts.Metrics = promhttp.Handler()
	}
	if opts.RateLimitPerMinute < 1 {
		opts.RateLimitPerMinute = 120
	}
	return &API{service: svc, opts: opts, log: opts.Log.WithField("module", "httpapi")}
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{a.opts.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(a.opts.RateLimitPerMinute, time.Minute))
	r.Use(a.accessLog)

	r.Get("/healthz", a.handleHealth)
	r.Method(http.MethodGet, "/metrics", a.opts.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(httprate.LimitByIP(loginPerMinute, time.Minute)).Post("/auth/login", a.handleLogin)
		r.Get("/track/{invoice}", a.handleTrack)

		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth(staffRoles...))

			r.Post("/auth/logout", a.handleLogout)
			r.Get("/auth/me", a.handleMe)
			r.Get("/events", a.handleEvents)

			r.Get("/catalog", a.handleCatalog)
			r.Post("/pricing/quote", a.handleQuote)

			r.Get("/orders", a.handleListOrders)
			r.Post("/orders", a.handleCreateOrder)
			r.Get("/orders/{id}", a.handleGetOrder)
			r.Patch("/orders/{id}", a.handleUpdateOrder)
			r.Patch("/orders/{id}/items/{itemID}/process", a.handleProcess)
			r.Get("/orders/{id}/whatsapp", a.handleInvoiceText)

			r.Get("/customers", a.handleListCustomers)
			r.Post("/customers", a.handleCreateCustomer)
			r.Get("/customers/lookup", a.handleLookupCustomer)
			r.Patch("/customers/{id}", a.handleUpdateCustomer)

			r.Get("/discounts", a.handleListDiscounts)
			r.Get("/branches", a.handleListBranches)
			r.Get("/settings", a.handleGetSettings)
		})

		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth(adminRoles...))

			r.Delete("/orders/{id}", a.handleDeleteOrder)

			r.Post("/discounts", a.handleCreateDiscount)
			r.Patch("/discounts/{id}", a.handleUpdateDiscount)
			r.Delete("/discounts/{id}", a.handleDeleteDiscount)

			r.Get("/cash-flows", a.handleListCashFlows)
			r.Post("/cash-flows", a.handleCreateCashFlow)
			r.Delete("/cash-flows/{id}", a.handleDeleteCashFlow)

			r.Get("/users", a.handleListUsers)
			r.Post("/users", a.handleCreateUser)
			r.Patch("/users/{id}", a.handleUpdateUser)
			r.Delete("/users/{id}", a.handleDeleteUser)

			r.Post("/branches", a.handleCreateBranch)
			r.Patch("/branches/{id}", a.handleUpdateBranch)
			r.Delete("/branches/{id}", a.handleDeleteBranch)

			r.Patch("/settings", a.handleUpdateSettings)

			r.Get("/reports/summary", a.handleReportSummary)
			r.Get("/reports/export.xlsx", a.handleReportExport)
		})
	})

	return r
}

func (a *API) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		startedAt := time.Now()
		next.ServeHTTP(ww, r)
		a.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(startedAt).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

// waitForSync reports whether the caller asked to block until the remote
// write finished (?sync=wait).
func waitForSync(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("sync"), "wait")
}

// respondWithAck writes payload once the remote write is settled when the
// caller asked for it, and immediately otherwise.
func respondWithAck(w http.ResponseWriter, r *http.Request, status int, payload any, ack *syncer.Ack) {
	if ack != nil && waitForSync(r) {
		if err := ack.Wait(r.Context()); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	writeJSON(w, status, payload)
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return domain.NewValidationError("body", "is not valid JSON: "+err.Error())
	}
	return nil
}

var errBodyTooLarge = errors.New("request body too large")

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func statusFor(err error) int {
	var remote *syncer.RemoteWriteError
	switch {
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoSession), errors.Is(err, service.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden), errors.Is(err, auth.ErrSelfDelete):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &remote):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError maps a service error to its status code. Validation
// errors carry their field list.
func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, status, map[string]any{"error": verr.Error(), "fields": verr.Fields})
		return
	}
	writeError(w, status, err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx bodies stay generic; the cause is logged instead.
	msg := err.Error()
	if status >= 500 {
		logrus.WithField("module", "httpapi").WithError(err).WithField("status", status).Error("request failed")
		msg = http.StatusText(status)
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
