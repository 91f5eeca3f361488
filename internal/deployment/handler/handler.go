// Package handler publishes where a deployment's components live, so clients can build
// EIP-712 domains, name the bundled resolvers in schemas and predict contract wallets.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"provenance/internal/deployment"
	"provenance/pkg/platform/httputil"
)

type Handler struct {
	deployment *deployment.Deployment
}

func New(d *deployment.Deployment) *Handler {
	return &Handler{deployment: d}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/deployment", h.HandleDeployment)
}

type DeploymentResponse struct {
	ChainID       string            `json:"chain_id"`
	Owner         string            `json:"owner"`
	Addresses     map[string]string `json:"addresses"`
	ResolverPrice string            `json:"resolver_price"`
}

// HandleDeployment handles GET /v1/deployment.
func (h *Handler) HandleDeployment(w http.ResponseWriter, _ *http.Request) {
	d := h.deployment
	a := d.Addresses
	httputil.WriteJSON(w, http.StatusOK, DeploymentResponse{
		ChainID: d.ChainID.String(),
		Owner:   d.Owner.Hex(),
		Addresses: map[string]string{
			deployment.ComponentIdentityRegistry:    a.IdentityRegistry.Hex(),
			deployment.ComponentIdentityGateway:     a.IdentityGateway.Hex(),
			"delegation":                            a.Delegation.Hex(),
			deployment.ComponentProvenanceRegistry:  a.ProvenanceRegistry.Hex(),
			deployment.ComponentProvenanceGateway:   a.ProvenanceGateway.Hex(),
			deployment.ComponentSchemaRegistry:      a.SchemaRegistry.Hex(),
			deployment.ComponentAttestationRegistry: a.AttestationRegistry.Hex(),
			"wallet-factory":                        a.WalletFactory.Hex(),
			"allowlist-resolver":                    a.AllowlistResolver.Hex(),
			"paid-resolver":                         a.PaidResolver.Hex(),
		},
		ResolverPrice: d.PaidResolver.Price().String(),
	})
}
