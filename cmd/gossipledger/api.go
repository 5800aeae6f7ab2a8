// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/blinklabs-io/gossipledger"
	"github.com/blinklabs-io/gossipledger/ledger"
)

const maxRequestBodySize = 1 << 20

// ledgerNode is the part of gossipledger.Node served over HTTP
type ledgerNode interface {
	GetChain() ledger.Chain
	GetHead() ledger.Block
	MineNext(payload string) (ledger.Block, error)
	ListPeers() []string
	ConnectPeer(ctx context.Context, address string) error
}

type mineBlockRequest struct {
	Data string `json:"data"`
}

type addPeerRequest struct {
	Peer string `json:"peer"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type apiHandler struct {
	node   ledgerNode
	logger *slog.Logger
	// Context for peer connection attempts, which outlive the request
	peerCtx context.Context
}

func newApiHandler(ctx context.Context, node ledgerNode, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &apiHandler{
		node:    node,
		logger:  logger,
		peerCtx: ctx,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /blocks", h.handleBlocks)
	mux.HandleFunc("GET /head", h.handleHead)
	mux.HandleFunc("POST /mineBlock", h.handleMineBlock)
	mux.HandleFunc("GET /peers", h.handlePeers)
	mux.HandleFunc("POST /addPeer", h.handleAddPeer)
	return mux
}

func (h *apiHandler) handleBlocks(w http.ResponseWriter, r *http.Request) {
	h.writeJson(w, http.StatusOK, h.node.GetChain().Blocks())
}

func (h *apiHandler) handleHead(w http.ResponseWriter, r *http.Request) {
	h.writeJson(w, http.StatusOK, h.node.GetHead())
}

func (h *apiHandler) handleMineBlock(w http.ResponseWriter, r *http.Request) {
	var req mineBlockRequest
	if err := decodeRequest(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	block, err := h.node.MineNext(req.Data)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, gossipledger.ErrNodeStopped):
			status = http.StatusServiceUnavailable
		case errors.Is(err, ledger.ErrInvalidData):
			status = http.StatusBadRequest
		}
		h.writeError(w, status, err)
		return
	}
	h.writeJson(w, http.StatusOK, block)
}

func (h *apiHandler) handlePeers(w http.ResponseWriter, r *http.Request) {
	peers := h.node.ListPeers()
	if peers == nil {
		peers = []string{}
	}
	h.writeJson(w, http.StatusOK, peers)
}

func (h *apiHandler) handleAddPeer(w http.ResponseWriter, r *http.Request) {
	var req addPeerRequest
	if err := decodeRequest(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Peer == "" {
		h.writeError(w, http.StatusBadRequest, errors.New("peer address is required"))
		return
	}
	if err := h.node.ConnectPeer(h.peerCtx, req.Peer); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, gossipledger.ErrNodeStopped) {
			status = http.StatusServiceUnavailable
		}
		h.writeError(w, status, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func decodeRequest(r *http.Request, dest any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodySize))
	if err := dec.Decode(dest); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

func (h *apiHandler) writeJson(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		h.logger.Debug(
			"failed to write response",
			"component", "api",
			"error", err,
		)
	}
}

func (h *apiHandler) writeError(w http.ResponseWriter, status int, err error) {
	h.logger.Debug(
		"request failed",
		"component", "api",
		"status", status,
		"error", err,
	)
	h.writeJson(w, status, errorResponse{Error: err.Error()})
}
