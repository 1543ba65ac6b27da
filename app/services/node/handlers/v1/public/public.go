// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/medledger/blockchain/foundation/blockchain/database"
	"github.com/medledger/blockchain/foundation/blockchain/perf"
	"github.com/medledger/blockchain/foundation/blockchain/state"
	"github.com/medledger/blockchain/foundation/events"
	"github.com/medledger/blockchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of record ledger endpoints.
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

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Stats returns the chain height, latest hash and validity.
func (h Handlers) Stats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Stats(), http.StatusOK)
}

// Validate re-checks every block on the chain and returns the result.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.ValidateChain(), http.StatusOK)
}

// BlocksByNumber returns the blocks in the specified range. If the range is
// not provided the whole chain is returned.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	fromStr := web.Param(r, "from")
	toStr := web.Param(r, "to")

	var blocks []database.BlockData

	switch {
	case fromStr == "" && toStr == "":
		blocks = h.State.RetrieveChain()

	default:
		from, err := strconv.ParseUint(fromStr, 10, 64)
		if err != nil {
			return web.NewRequestError(fmt.Errorf("invalid from block number: %q", fromStr), http.StatusBadRequest)
		}
		to, err := strconv.ParseUint(toStr, 10, 64)
		if err != nil {
			return web.NewRequestError(fmt.Errorf("invalid to block number: %q", toStr), http.StatusBadRequest)
		}
		if from > to {
			return web.NewRequestError(fmt.Errorf("from %d greater than to %d", from, to), http.StatusBadRequest)
		}

		blocks = h.State.RetrieveBlocks(from, to)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// Mempool returns the set of records waiting to be mined.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txs := h.State.RetrieveMempool()

	resp := pendingRecords{
		Count:   len(txs),
		Records: txs,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// AddRecords adds new record references to the mempool.
func (h Handlers) AddRecords(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var records []newRecord
	if err := web.Decode(r, &records); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	pending := 0
	for _, rec := range records {
		tx, err := database.NewTx(rec.RecordID, rec.Kind, rec.DataHash)
		if err != nil {
			return web.NewRequestError(err, http.StatusBadRequest)
		}

		h.Log.Infow("add record", "traceid", v.TraceID, "record", tx.RecordID, "kind", tx.Kind)
		pending = h.State.SubmitRecord(tx)
	}

	resp := struct {
		Status  string `json:"status"`
		Pending int    `json:"pending"`
	}{
		Status:  "records added to mempool",
		Pending: pending,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SignalMining signals the mining worker to start a mining operation.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.State.Worker.SignalStartMining()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signalled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Proof returns the inclusion proof for the record at the specified leaf
// of the specified block.
func (h Handlers) Proof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blockNum, err := strconv.ParseUint(web.Param(r, "block"), 10, 64)
	if err != nil {
		return web.NewRequestError(fmt.Errorf("invalid block number: %q", web.Param(r, "block")), http.StatusBadRequest)
	}

	leaf, err := strconv.Atoi(web.Param(r, "leaf"))
	if err != nil {
		return web.NewRequestError(fmt.Errorf("invalid leaf index: %q", web.Param(r, "leaf")), http.StatusBadRequest)
	}

	proof, err := h.State.GenerateProof(blockNum, leaf)
	if err != nil {
		return web.NewRequestError(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, proof, http.StatusOK)
}

// VerifyProof verifies a submitted inclusion proof using nothing but the
// proof value itself.
func (h Handlers) VerifyProof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req proofRequest
	if err := web.Decode(r, &req); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	resp := struct {
		Valid bool `json:"valid"`
	}{
		Valid: h.State.VerifyProof(req.Proof),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Estimate runs the performance model for the requested operation and
// workload and returns the CPU and GPU results side by side.
func (h Handlers) Estimate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req estimateRequest
	if err := web.Decode(r, &req); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	cpu, gpu, err := h.State.RetrieveModel().Compare(perf.Operation(req.Operation), req.Workload)
	if err != nil {
		return web.NewRequestError(err, http.StatusBadRequest)
	}

	costs := perf.DefaultCostModel().Costs(cpu, gpu)

	resp := estimateResponse{
		CPU:         cpu,
		GPU:         gpu,
		Improvement: perf.ImprovementFactor(cpu, gpu),
		Costs:       costs,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
