// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/medledger/blockchain/app/services/node/handlers/v1/public"
	"github.com/medledger/blockchain/foundation/blockchain/state"
	"github.com/medledger/blockchain/foundation/events"
	"github.com/medledger/blockchain/foundation/web"
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
	app.Handle(http.MethodGet, version, "/genesis/list", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/chain/list", pbl.BlocksByNumber)
	app.Handle(http.MethodGet, version, "/chain/list/:from/:to", pbl.BlocksByNumber)
	app.Handle(http.MethodGet, version, "/chain/stats", pbl.Stats)
	app.Handle(http.MethodGet, version, "/chain/validate", pbl.Validate)
	app.Handle(http.MethodGet, version, "/records/pending", pbl.Mempool)
	app.Handle(http.MethodPost, version, "/records/add", pbl.AddRecords)
	app.Handle(http.MethodGet, version, "/mining/signal", pbl.SignalMining)
	app.Handle(http.MethodGet, version, "/proof/:block/:leaf", pbl.Proof)
	app.Handle(http.MethodPost, version, "/proof/verify", pbl.VerifyProof)
	app.Handle(http.MethodPost, version, "/benchmark/estimate", pbl.Estimate)
}
