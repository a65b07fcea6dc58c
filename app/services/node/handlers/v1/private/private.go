// Package private maintains the group of handlers for node administration.
package private

import (
	"context"
	"net/http"

	v1 "github.com/ardanlabs/proofchain/business/web/v1"
	"github.com/ardanlabs/proofchain/foundation/continuity/signature"
	"github.com/ardanlabs/proofchain/foundation/continuity/state"
	"github.com/ardanlabs/proofchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of private endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Status returns the current identity and hierarchy counts for this node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pk := h.State.ProverKey()
	root := h.State.GlobalRoot()

	resp := struct {
		ChainID     string `json:"chain_id"`
		ProverKey   string `json:"prover_key"`
		TotalChunks uint64 `json:"total_chunks"`
		Chains      int    `json:"chains"`
		Groups      int    `json:"groups"`
		Regions     int    `json:"regions"`
		GlobalRoot  string `json:"global_root"`
	}{
		ChainID:     h.State.ChainID(),
		ProverKey:   signature.HashHex(pk),
		TotalChunks: h.State.TotalChunks(),
		Chains:      h.State.ChainCount(),
		Groups:      h.State.GroupCount(),
		Regions:     h.State.RegionCount(),
		GlobalRoot:  signature.HashHex(root),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// StartProving signals the worker to begin a proving round.
func (h Handlers) StartProving(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.State.Worker.SignalStartProving()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "proving signaled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// CancelProving signals the worker to cancel any in flight proving round.
func (h Handlers) CancelProving(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.State.Worker.SignalCancelProving()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "cancel signaled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// DeregisterChain removes a chain from this node's aggregation hierarchy.
func (h Handlers) DeregisterChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	chainID := web.Param(r, "id")

	if err := h.State.DeregisterChain(chainID); err != nil {
		return v1.NewRequestError(err, http.StatusNotFound)
	}

	resp := struct {
		Status  string `json:"status"`
		ChainID string `json:"chain_id"`
	}{
		Status:  "chain deregistered",
		ChainID: chainID,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
