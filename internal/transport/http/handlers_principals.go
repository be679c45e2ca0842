package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"adresolver/internal/directory"
	principalmodels "adresolver/internal/principals/models"
	"adresolver/internal/projection"
)

// PrincipalService is the principal resolution surface the transport needs.
type PrincipalService interface {
	Resolve(ctx context.Context, name string, shape projection.Shape, conn directory.ConnectionParams) (any, error)
	List(ctx context.Context) ([]*principalmodels.Principal, error)
	Clear(ctx context.Context) error
}

// PrincipalsHandler wires principal endpoints to the principal service.
type PrincipalsHandler struct {
	service PrincipalService
	logger  *slog.Logger
}

func NewPrincipalsHandler(service PrincipalService, logger *slog.Logger) *PrincipalsHandler {
	return &PrincipalsHandler{service: service, logger: logger}
}

// Register mounts principal endpoints on the router.
func (h *PrincipalsHandler) Register(r chi.Router) {
	r.Post("/principals/resolve", h.HandleResolve)
	r.Get("/principals", h.HandleList)
	r.Delete("/principals/cache", h.HandleClear)
}

type resolvePrincipalRequest struct {
	// Name identifies the principal in any supported notation: bare,
	// user@suffix, DOMAIN\user, or a SID string.
	Name       string `json:"name"`
	Shape      string `json:"shape,omitempty"`
	Server     string `json:"server,omitempty"`
	Credential string `json:"credential,omitempty"`
}

// HandleResolve handles POST /principals/resolve requests.
func (h *PrincipalsHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := decode[resolvePrincipalRequest](w, r)
	if !ok {
		return
	}
	if req.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}
	if req.Shape == "" {
		req.Shape = string(projection.ShapeRecord)
	}
	shape, err := projection.ParsePrincipalShape(req.Shape)
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

// HandleList handles GET /principals requests.
func (h *PrincipalsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	principals, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"principals": principals})
}

// HandleClear handles DELETE /principals/cache requests.
func (h *PrincipalsHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
