package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"praxis.legal/internal/obs"
	"praxis.legal/internal/practice"
)

const serviceName = "praxis-api"

// ReadyProbe reports whether the datastore behind the API is reachable.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// CredentialStore looks up the stored password hash for a login attempt.
// Absent users surface as authz.ErrNotFound.
type CredentialStore interface {
	FindPasswordHash(ctx context.Context, email string) (string, error)
}

// API is the HTTP layer.
type API struct {
	mux         *http.ServeMux
	svc         *practice.Service
	credentials CredentialStore
	readyProbe  ReadyProbe
	version     string
}

func New(svc *practice.Service, creds CredentialStore, rp ReadyProbe, version string) *API {
	a := &API{
		mux:         http.NewServeMux(),
		svc:         svc,
		credentials: creds,
		readyProbe:  rp,
		version:     version,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/auth/token", a.handleAuthToken)

	a.mux.HandleFunc("/v1/processes", a.handleProcessesCollection)
	a.mux.HandleFunc("/v1/processes/", a.handleProcessResource)
	a.mux.HandleFunc("/v1/clients", a.handleClientsCollection)
	a.mux.HandleFunc("/v1/clients/", a.handleClientResource)
	a.mux.HandleFunc("/v1/deadlines", a.handleDeadlinesCollection)
	a.mux.HandleFunc("/v1/deadlines/", a.handleDeadlineResource)
	a.mux.HandleFunc("/v1/products", a.handleProductsCollection)
	a.mux.HandleFunc("/v1/users", a.handleUsersCollection)
	a.mux.HandleFunc("/v1/tribunals", a.handleTribunalsCollection)
	a.mux.HandleFunc("/v1/tribunals/", a.handleTribunalResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the composed http.Handler for the server.
func (a *API) Handler() http.Handler {
	return obs.Instrument(RequestID(a.withAuth(a.mux)))
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    serviceName,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
