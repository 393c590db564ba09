// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/blockchain/chain"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/ardanlabs/ledger/foundation/validate"
	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log         *zap.SugaredLogger
	Chain       *chain.Chain
	Beneficiary []byte
	Reward      float64
	NS          *nameservice.NameService
	WS          websocket.Upgrader
	Evts        *events.Events
}

// Status returns a summary of the chain.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Chain.Status(), http.StatusOK)
}

// Tip returns the block at the greatest height.
func (h Handlers) Tip(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	info, err := h.Chain.QueryBlock(h.Chain.MaxHeightBlock().Hash)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, info, http.StatusOK)
}

// Block returns a retained block by hash.
func (h Handlers) Block(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	info, err := h.Chain.QueryBlock(web.Param(r, "hash"))
	if err != nil {
		if errors.Is(err, chain.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, info, http.StatusOK)
}

// UTXOs returns the unspent outputs at the tip, optionally for one owner.
// The owner is an account name or a hex public key.
func (h Handlers) UTXOs(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var owner []byte

	if param := web.Param(r, "owner"); param != "" {
		var err error
		if owner, err = h.NS.Resolve(param); err != nil {
			return errs.NewTrusted(fmt.Errorf("owner: %w", err), http.StatusBadRequest)
		}
	}

	infos := h.Chain.QueryUTXOs(owner)

	utxos := make([]utxo, len(infos))
	for i, info := range infos {
		utxos[i] = utxo{
			UTXOInfo: info,
			Name:     h.NS.Lookup(info.PublicKey),
		}
	}

	return web.Respond(ctx, w, utxos, http.StatusOK)
}

// SubmitBlock adds a block built somewhere else to the chain.
func (h Handlers) SubmitBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var block database.Block
	if err := decode(r, &block); err != nil {
		return err
	}

	h.Log.Infow("submit block", "traceid", v.TraceID, "block", block, "prev", block.PrevBlockHash)

	if err := h.Chain.AddBlock(block); err != nil {
		return errs.NewTrusted(err, http.StatusNotAcceptable)
	}

	resp := submitted{
		Status: "block accepted",
		Hash:   block.Hash,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ProposeBlock builds a block from the pending transactions and adds it to
// the chain, paying this node's beneficiary.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	block, err := h.Chain.ProposeBlock(h.Beneficiary, h.Reward)
	if err != nil {
		if errors.Is(err, chain.ErrNoTransactions) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return err
	}

	h.Log.Infow("propose block", "traceid", v.TraceID, "block", block, "txs", len(block.Txs))

	return web.Respond(ctx, w, block, http.StatusOK)
}

// SubmitTransaction adds a transaction to the pending pool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tx database.Tx
	if err := decode(r, &tx); err != nil {
		return err
	}

	h.Log.Infow("submit tx", "traceid", v.TraceID, "tx", tx)

	if err := h.Chain.AddTransaction(tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := submitted{
		Status: "transaction added to mempool",
		Hash:   tx.Hash,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Pending returns the transactions waiting for a block.
func (h Handlers) Pending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Chain.PendingTransactions(), http.StatusOK)
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

// =============================================================================

// decode reads the payload. Field errors are passed on as they are, anything
// else is a bad request.
func decode(r *http.Request, val any) error {
	if err := web.Decode(r, val); err != nil {
		if validate.IsFieldErrors(err) {
			return err
		}
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	return nil
}
