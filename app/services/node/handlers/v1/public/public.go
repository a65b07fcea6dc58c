// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"fmt"
	"net/http"
	"time"

	v1 "github.com/ardanlabs/proofchain/business/web/v1"
	"github.com/ardanlabs/proofchain/foundation/continuity/signature"
	"github.com/ardanlabs/proofchain/foundation/continuity/state"
	"github.com/ardanlabs/proofchain/foundation/events"
	"github.com/ardanlabs/proofchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the consensus parameters.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// LatestCommitment returns the most recent commitment this node produced.
func (h Handlers) LatestCommitment(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	sc, exists := h.State.LatestCommitment()
	if !exists {
		return v1.NewRequestError(fmt.Errorf("no commitment produced yet"), http.StatusNotFound)
	}

	return web.Respond(ctx, w, sc, http.StatusOK)
}

// GlobalRoot returns the current global aggregate root.
func (h Handlers) GlobalRoot(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	root := h.State.GlobalRoot()

	resp := struct {
		Root string `json:"root"`
	}{
		Root: signature.HashHex(root),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// AggregateProof returns the root and child roots of a hierarchy node.
func (h Handlers) AggregateProof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	level, err := parseLevel(web.Param(r, "level"))
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	proof, err := h.State.AggregateProof(level, web.Param(r, "id"))
	if err != nil {
		return v1.NewRequestError(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, proof, http.StatusOK)
}

// CompactProof returns the merkle inclusion path from a chain's commitment
// up to the requested aggregate root.
func (h Handlers) CompactProof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	level, err := parseLevel(web.Param(r, "level"))
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	proof, err := h.State.CompactProof(web.Param(r, "chain"), level)
	if err != nil {
		return v1.NewRequestError(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, proof, http.StatusOK)
}

// SubmitCommitment verifies a signed commitment from another prover and
// folds it into the aggregation hierarchy.
func (h Handlers) SubmitCommitment(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var sub submitCommitment
	if err := web.Decode(r, &sub); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	h.Log.Infow("submit commitment", "traceid", v.TraceID, "chain", sub.ChainID, "commitment", signature.HashHex(sub.Commitment.CommitmentHash))

	if err := h.State.SubmitCommitment(sub.ChainID, sub.Commitment, sub.TotalChunks); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "commitment accepted",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
