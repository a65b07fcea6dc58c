// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/proofchain/app/services/node/handlers/v1/private"
	"github.com/ardanlabs/proofchain/app/services/node/handlers/v1/public"
	"github.com/ardanlabs/proofchain/foundation/continuity/state"
	"github.com/ardanlabs/proofchain/foundation/events"
	"github.com/ardanlabs/proofchain/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/commitment/latest", pbl.LatestCommitment)
	app.Handle(http.MethodGet, version, "/root/global", pbl.GlobalRoot)
	app.Handle(http.MethodGet, version, "/proof/compact/:level/:chain", pbl.CompactProof)
	app.Handle(http.MethodGet, version, "/proof/:level/:id", pbl.AggregateProof)
	app.Handle(http.MethodPost, version, "/commitment/submit", pbl.SubmitCommitment)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodPost, version, "/node/prove", prv.StartProving)
	app.Handle(http.MethodPost, version, "/node/prove/cancel", prv.CancelProving)
	app.Handle(http.MethodDelete, version, "/node/chain/:id", prv.DeregisterChain)
}
