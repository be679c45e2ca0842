package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"adresolver/internal/directory"
	domainmodels "adresolver/internal/domains/models"
	"adresolver/internal/projection"
	"adresolver/pkg/requestcontext"
)

// DomainService is the domain resolution surface the transport needs.
type DomainService interface {
	Resolve(ctx context.Context, name string, shape projection.Shape, conn directory.ConnectionParams) (any, error)
	RegisterForest(ctx context.Context, conn directory.ConnectionParams, recurse bool) error
	List(ctx context.Context) ([]*domainmodels.Domain, error)
	Clear(ctx context.Context) error
}

// DomainsHandler wires domain endpoints to the domain service.
type DomainsHandler struct {
	service DomainService
	logger  *slog.Logger
}

func NewDomainsHandler(service DomainService, logger *slog.Logger) *DomainsHandler {
	return &DomainsHandler{service: service, logger: logger}
}

// Register mounts domain endpoints on the router.
func (h *DomainsHandler) Register(r chi.Router) {
	r.Post("/domains/resolve", h.HandleResolve)
	r.Post("/domains/register", h.HandleRegister)
	r.Get("/domains", h.HandleList)
	r.Delete("/domains/cache", h.HandleClear)
}

type resolveDomainRequest struct {
	// Name identifies the domain: short name, FQDN, NetBIOS name or SID.
	// Empty means the caller's own domain.
	Name  string `json:"name"`
	Shape string `json:"shape,omitempty"`
	// Server routes the query to a specific directory endpoint.
	Server string `json:"server,omitempty"`
	// Credential authenticates the query. Opaque; never logged.
	Credential string `json:"credential,omitempty"`
}

type resolveResponse struct {
	Result any `json:"result"`
}

// HandleResolve handles POST /domains/resolve requests.
func (h *DomainsHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := decode[resolveDomainRequest](w, r)
	if !ok {
		return
	}
	if req.Shape == "" {
		req.Shape = string(projection.ShapeRecord)
	}
	shape, err := projection.ParseDomainShape(req.Shape)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	result, err := h.service.Resolve(ctx, req.Name, shape, directory.ConnectionParams{
		Server:     req.Server,
		Credential: directory.Credential(req.Credential),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{Result: result})
}

type registerForestRequest struct {
	Server     string `json:"server,omitempty"`
	Credential string `json:"credential,omitempty"`
	// Recurse registers every reachable domain of the forest, not just the
	// one behind the connection.
	Recurse bool `json:"recurse"`
}

// HandleRegister handles POST /domains/register requests.
func (h *DomainsHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := decode[registerForestRequest](w, r)
	if !ok {
		return
	}

	err := h.service.RegisterForest(ctx, directory.ConnectionParams{
		Server:     req.Server,
		Credential: directory.Credential(req.Credential),
	}, req.Recurse)
	if err != nil {
		h.logger.ErrorContext(ctx, "forest registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"server", req.Server,
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleList handles GET /domains requests.
func (h *DomainsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	domains, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"domains": domains})
}

// HandleClear handles DELETE /domains/cache requests.
func (h *DomainsHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
