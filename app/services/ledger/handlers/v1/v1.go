// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/ledger/app/services/ledger/handlers/v1/public"
	"github.com/ardanlabs/ledger/foundation/blockchain/chain"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/ardanlabs/ledger/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log         *zap.SugaredLogger
	Chain       *chain.Chain
	Beneficiary []byte
	Reward      float64
	NS          *nameservice.NameService
	Evts        *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:         cfg.Log,
		Chain:       cfg.Chain,
		Beneficiary: cfg.Beneficiary,
		Reward:      cfg.Reward,
		NS:          cfg.NS,
		Evts:        cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/chain/status", pbl.Status)
	app.Handle(http.MethodGet, version, "/chain/tip", pbl.Tip)
	app.Handle(http.MethodGet, version, "/blocks/:hash", pbl.Block)
	app.Handle(http.MethodGet, version, "/utxos", pbl.UTXOs)
	app.Handle(http.MethodGet, version, "/utxos/:owner", pbl.UTXOs)
	app.Handle(http.MethodPost, version, "/blocks/submit", pbl.SubmitBlock)
	app.Handle(http.MethodPost, version, "/blocks/propose", pbl.ProposeBlock)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitTransaction)
	app.Handle(http.MethodGet, version, "/tx/pending", pbl.Pending)
}
