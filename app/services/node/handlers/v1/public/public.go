// Package public maintains the group of handlers for driving the simulated
// network.
package public

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/blockdemo/business/sys/validate"
	"github.com/ardanlabs/blockdemo/business/web/errs"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/mempool"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/state"
	"github.com/ardanlabs/blockdemo/foundation/events"
	"github.com/ardanlabs/blockdemo/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of network endpoints.
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
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis block.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveGenesis(), http.StatusOK)
}

// =============================================================================

// Peers returns every peer in the network with its chain and connections.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveNodes(), http.StatusOK)
}

// Peer returns the specified peer.
func (h Handlers) Peer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	node, err := h.State.RetrieveNode(web.Param(r, "peer"))
	if err != nil {
		return trusted(err)
	}

	return web.Respond(ctx, w, node, http.StatusOK)
}

// Status returns a summary of the specified peer's chain.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	node, err := h.State.RetrieveNode(web.Param(r, "peer"))
	if err != nil {
		return trusted(err)
	}

	return web.Respond(ctx, w, node.Status(), http.StatusOK)
}

// AddPeer adds a new peer to the network. A name is generated if none is
// provided.
func (h Handlers) AddPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	// An empty body asks for a generated name.
	var np newPeer
	if err := web.Decode(r, &np); err != nil && !errors.Is(err, io.EOF) {
		return decodeErr(err)
	}

	node, err := h.State.AddPeer(np.Name)
	if err != nil {
		return trusted(err)
	}

	return web.Respond(ctx, w, node, http.StatusCreated)
}

// RemovePeer removes the specified peer from the network.
func (h Handlers) RemovePeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.State.RemovePeer(web.Param(r, "peer")); err != nil {
		return trusted(err)
	}

	return web.Respond(ctx, w, nil, http.StatusNoContent)
}

// Connect links the specified peer to another peer.
func (h Handlers) Connect(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var conn connection
	if err := web.Decode(r, &conn); err != nil {
		return decodeErr(err)
	}

	if err := h.State.ConnectPeer(web.Param(r, "peer"), conn.To); err != nil {
		return trusted(err)
	}

	return web.Respond(ctx, w, status{Status: "connected"}, http.StatusOK)
}

// Disconnect removes the link between the specified peer and another peer.
func (h Handlers) Disconnect(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.State.DisconnectPeer(web.Param(r, "peer"), web.Param(r, "to")); err != nil {
		return trusted(err)
	}

	return web.Respond(ctx, w, nil, http.StatusNoContent)
}

// SendMessage sends a text message from the specified peer.
func (h Handlers) SendMessage(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var msg message
	if err := web.Decode(r, &msg); err != nil {
		return decodeErr(err)
	}

	if err := h.State.SendMessage(web.Param(r, "peer"), msg.To, msg.Text); err != nil {
		return trusted(err)
	}

	return web.Respond(ctx, w, status{Status: "message sent"}, http.StatusOK)
}

// =============================================================================

// Mine starts mining a new block for the specified peer.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var bd blockData
	if err := web.Decode(r, &bd); err != nil {
		return decodeErr(err)
	}

	j, err := h.State.MineBlock(web.Param(r, "peer"), bd.Data)
	if err != nil {
		return trusted(err)
	}

	return web.Respond(ctx, w, toJob(j), http.StatusAccepted)
}

// MinePending starts mining a block holding the pending transactions.
func (h Handlers) MinePending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	j, err := h.State.MinePending(web.Param(r, "peer"))
	if err != nil {
		return trusted(err)
	}

	return web.Respond(ctx, w, toJob(j), http.StatusAccepted)
}

// SetData tampers with the data of a block in the specified peer's chain.
func (h Handlers) SetData(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := blockIndex(r)
	if err != nil {
		return err
	}

	var bd blockData
	if err := web.Decode(r, &bd); err != nil {
		return decodeErr(err)
	}

	chain, err := h.State.MutateData(web.Param(r, "peer"), index, bd.Data)
	if err != nil {
		return trusted(err)
	}

	return web.Respond(ctx, w, chain, http.StatusOK)
}

// ReMine starts a search for a new solution for a block in the specified
// peer's chain.
func (h Handlers) ReMine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := blockIndex(r)
	if err != nil {
		return err
	}

	j, err := h.State.RequestReMine(web.Param(r, "peer"), index)
	if err != nil {
		return trusted(err)
	}

	return web.Respond(ctx, w, toJob(j), http.StatusAccepted)
}

// Validate reports the validity of the specified peer's chain.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	name := web.Param(r, "peer")

	valid, blocks, err := h.State.ValidateChain(name)
	if err != nil {
		return trusted(err)
	}

	resp := validation{
		Peer:   name,
		Valid:  valid,
		Blocks: blocks,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// Mempool returns the set of pending transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrievePending(), http.StatusOK)
}

// AddTransaction adds a new transaction to the pending pool.
func (h Handlers) AddTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var tx mempool.Tx
	if err := web.Decode(r, &tx); err != nil {
		return decodeErr(err)
	}
	if err := validate.Check(tx); err != nil {
		return err
	}

	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}
	h.Log.Infow("add tran", "traceid", v.TraceID, "from", tx.From, "to", tx.To, "amount", tx.Amount)

	count := h.State.AddTransaction(tx)

	return web.Respond(ctx, w, pending{Count: count}, http.StatusOK)
}

// RemoveTransaction removes every equal transaction from the pending pool.
func (h Handlers) RemoveTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var tx mempool.Tx
	if err := web.Decode(r, &tx); err != nil {
		return decodeErr(err)
	}

	count := h.State.RemoveTransaction(tx)

	return web.Respond(ctx, w, pending{Count: count}, http.StatusOK)
}

// =============================================================================

// blockIndex parses the block index parameter.
func blockIndex(r *http.Request) (int, error) {
	index, err := strconv.Atoi(web.Param(r, "index"))
	if err != nil || index < 0 {
		return 0, errs.NewTrusted(fmt.Errorf("invalid block index %q", web.Param(r, "index")), http.StatusBadRequest)
	}
	return index, nil
}

// decodeErr passes validation errors through and marks anything else as a
// bad request.
func decodeErr(err error) error {
	if validate.IsFieldErrors(err) {
		return err
	}
	return errs.NewTrusted(err, http.StatusBadRequest)
}

// trusted maps the errors returned by the state to a status code.
func trusted(err error) error {
	switch {
	case errors.Is(err, state.ErrPeerNotFound),
		errors.Is(err, state.ErrBlockNotFound):
		return errs.NewTrusted(err, http.StatusNotFound)

	case errors.Is(err, state.ErrDuplicatePeer),
		errors.Is(err, state.ErrAlreadyConnected):
		return errs.NewTrusted(err, http.StatusConflict)

	case errors.Is(err, state.ErrInvalidChain):
		return errs.NewTrusted(err, http.StatusConflict)

	case errors.Is(err, state.ErrNoWorker):
		return errs.NewTrusted(err, http.StatusServiceUnavailable)

	case errors.Is(err, state.ErrSelfConnect),
		errors.Is(err, state.ErrNotConnected),
		errors.Is(err, state.ErrGenesisBlock),
		errors.Is(err, state.ErrNoTransactions),
		errors.Is(err, state.ErrNoNames):
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return err
}
