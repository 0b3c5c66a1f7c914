package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"praxis.legal/internal/authz"
	"praxis.legal/internal/practice"
)

type createProcessRequest struct {
	AccountID  string `json:"account_id"`
	ClientID   string `json:"client_id"`
	TribunalID string `json:"tribunal_id"`
	Number     string `json:"number"`
	Subject    string `json:"subject"`
}

type updateProcessRequest struct {
	Subject    *string `json:"subject"`
	Status     *string `json:"status"`
	TribunalID *string `json:"tribunal_id"`
}

type createClientRequest struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type createDeadlineRequest struct {
	ProcessID string    `json:"process_id"`
	Title     string    `json:"title"`
	DueAt     time.Time `json:"due_at"`
}

type createProductRequest struct {
	AccountID   string `json:"account_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type createUserRequest struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

type createTribunalRequest struct {
	Name         string `json:"name"`
	Jurisdiction string `json:"jurisdiction"`
	Region       string `json:"region"`
}

type listResponse[T any] struct {
	Items []T       `json:"items"`
	AsOf  time.Time `json:"as_of"`
}

// --- processes ---

func (a *API) handleProcessesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createProcess(w, r)
	case http.MethodGet:
		a.listProcesses(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleProcessResource(w http.ResponseWriter, r *http.Request) {
	id := resourceID(r.URL.Path, "/v1/processes/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		p, err := a.svc.GetProcess(r.Context(), id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodPatch:
		a.updateProcess(w, r, id)
	case http.MethodDelete:
		if err := a.svc.DeleteProcess(r.Context(), id); err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) createProcess(w http.ResponseWriter, r *http.Request) {
	var req createProcessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	p, err := a.svc.CreateProcess(r.Context(), practice.CreateProcessRequest{
		AccountID:  req.AccountID,
		ClientID:   req.ClientID,
		TribunalID: req.TribunalID,
		Number:     req.Number,
		Subject:    req.Subject,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/processes/"+p.ID)
	writeJSON(w, http.StatusCreated, p)
}

func (a *API) listProcesses(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccountParam(w, r)
	if !ok {
		return
	}
	items, err := a.svc.ListProcesses(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[practice.Process]{Items: items, AsOf: time.Now().UTC()})
}

func (a *API) updateProcess(w http.ResponseWriter, r *http.Request, id string) {
	var req updateProcessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	p, err := a.svc.UpdateProcess(r.Context(), id, practice.ProcessUpdate{
		Subject:    req.Subject,
		Status:     req.Status,
		TribunalID: req.TribunalID,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// --- clients ---

func (a *API) handleClientsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createClient(w, r)
	case http.MethodGet:
		a.listClients(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleClientResource(w http.ResponseWriter, r *http.Request) {
	id := resourceID(r.URL.Path, "/v1/clients/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	c, err := a.svc.GetClient(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) createClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	c, err := a.svc.CreateClient(r.Context(), practice.CreateClientRequest{
		AccountID: req.AccountID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/clients/"+c.ID)
	writeJSON(w, http.StatusCreated, c)
}

func (a *API) listClients(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccountParam(w, r)
	if !ok {
		return
	}
	items, err := a.svc.ListClients(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[practice.Client]{Items: items, AsOf: time.Now().UTC()})
}

// --- deadlines ---

func (a *API) handleDeadlinesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createDeadline(w, r)
	case http.MethodGet:
		a.listDeadlines(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleDeadlineResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/deadlines/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "complete" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	d, err := a.svc.CompleteDeadline(r.Context(), parts[0])
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *API) createDeadline(w http.ResponseWriter, r *http.Request) {
	var req createDeadlineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	d, err := a.svc.CreateDeadline(r.Context(), practice.CreateDeadlineRequest{
		ProcessID: req.ProcessID,
		Title:     req.Title,
		DueAt:     req.DueAt,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/deadlines/"+d.ID)
	writeJSON(w, http.StatusCreated, d)
}

func (a *API) listDeadlines(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccountParam(w, r)
	if !ok {
		return
	}
	items, err := a.svc.ListDeadlines(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[practice.Deadline]{Items: items, AsOf: time.Now().UTC()})
}

// --- products ---

func (a *API) handleProductsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createProduct(w, r)
	case http.MethodGet:
		a.listProducts(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	p, err := a.svc.CreateProduct(r.Context(), practice.CreateProductRequest{
		AccountID:   req.AccountID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/products/"+p.ID)
	writeJSON(w, http.StatusCreated, p)
}

func (a *API) listProducts(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccountParam(w, r)
	if !ok {
		return
	}
	items, err := a.svc.ListProducts(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[practice.Product]{Items: items, AsOf: time.Now().UTC()})
}

// --- users ---

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	u, err := a.svc.CreateUser(r.Context(), practice.CreateUserRequest{
		AccountID: req.AccountID,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/users/"+u.ID)
	writeJSON(w, http.StatusCreated, u)
}

// --- tribunals ---

func (a *API) handleTribunalsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createTribunal(w, r)
	case http.MethodGet:
		items, err := a.svc.ListTribunals(r.Context())
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, listResponse[practice.Tribunal]{Items: items, AsOf: time.Now().UTC()})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTribunalResource(w http.ResponseWriter, r *http.Request) {
	id := resourceID(r.URL.Path, "/v1/tribunals/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	t, err := a.svc.GetTribunal(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) createTribunal(w http.ResponseWriter, r *http.Request) {
	var req createTribunalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	t, err := a.svc.CreateTribunal(r.Context(), practice.CreateTribunalRequest{
		Name:         req.Name,
		Jurisdiction: req.Jurisdiction,
		Region:       req.Region,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/tribunals/"+t.ID)
	writeJSON(w, http.StatusCreated, t)
}

// --- shared request plumbing ---

func resourceID(path, prefix string) string {
	id := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}

func requireAccountParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	accountID := strings.TrimSpace(r.URL.Query().Get("account_id"))
	if accountID == "" {
		writeError(w, r, http.StatusBadRequest, "account_id query parameter is required")
		return "", false
	}
	return accountID, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleServiceError maps guard and quota failures to HTTP statuses. Quota
// exhaustion is a conflict with the configured limit echoed back; rate
// limiting is reported before any identity details leak.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var quotaErr *authz.QuotaError
	switch {
	case errors.As(err, &quotaErr):
		payload := map[string]any{
			"error": quotaErr.Error(),
			"limit": quotaErr.Limit,
		}
		if rid := RequestIDFromContext(r.Context()); rid != "" {
			payload["request_id"] = rid
		}
		writeJSON(w, http.StatusConflict, payload)
	case errors.Is(err, authz.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, authz.ErrUnauthenticated):
		writeError(w, r, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, authz.ErrForbidden):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, authz.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, authz.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, authz.ErrRateLimited):
		writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
