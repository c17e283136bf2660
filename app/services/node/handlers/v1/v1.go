// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/blockdemo/app/services/node/handlers/v1/public"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/state"
	"github.com/ardanlabs/blockdemo/foundation/events"
	"github.com/ardanlabs/blockdemo/foundation/web"
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

	app.Handle(http.MethodGet, version, "/peers", pbl.Peers)
	app.Handle(http.MethodPost, version, "/peers", pbl.AddPeer)
	app.Handle(http.MethodGet, version, "/peers/:peer", pbl.Peer)
	app.Handle(http.MethodDelete, version, "/peers/:peer", pbl.RemovePeer)
	app.Handle(http.MethodGet, version, "/peers/:peer/status", pbl.Status)
	app.Handle(http.MethodPost, version, "/peers/:peer/connect", pbl.Connect)
	app.Handle(http.MethodDelete, version, "/peers/:peer/connect/:to", pbl.Disconnect)
	app.Handle(http.MethodPost, version, "/peers/:peer/messages", pbl.SendMessage)

	app.Handle(http.MethodPost, version, "/peers/:peer/mine", pbl.Mine)
	app.Handle(http.MethodPost, version, "/peers/:peer/mine/pending", pbl.MinePending)
	app.Handle(http.MethodPut, version, "/peers/:peer/blocks/:index/data", pbl.SetData)
	app.Handle(http.MethodPost, version, "/peers/:peer/blocks/:index/remine", pbl.ReMine)
	app.Handle(http.MethodGet, version, "/peers/:peer/validate", pbl.Validate)

	app.Handle(http.MethodGet, version, "/tx/list", pbl.Mempool)
	app.Handle(http.MethodPost, version, "/tx/add", pbl.AddTransaction)
	app.Handle(http.MethodPost, version, "/tx/remove", pbl.RemoveTransaction)
}
