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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/gossipledger/ledger"
	"github.com/pterm/pterm"
)

const apiClientTimeout = 10 * time.Second

// apiClient talks to the HTTP API of a running node
type apiClient struct {
	baseUrl    string
	httpClient *http.Client
}

func newApiClient(baseUrl string) *apiClient {
	return &apiClient{
		baseUrl:    strings.TrimRight(baseUrl, "/"),
		httpClient: &http.Client{Timeout: apiClientTimeout},
	}
}

func (c *apiClient) blocks() ([]ledger.Block, error) {
	var blocks []ledger.Block
	if err := c.do(http.MethodGet, "/blocks", nil, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

func (c *apiClient) head() (ledger.Block, error) {
	var block ledger.Block
	err := c.do(http.MethodGet, "/head", nil, &block)
	return block, err
}

func (c *apiClient) peers() ([]string, error) {
	var peers []string
	if err := c.do(http.MethodGet, "/peers", nil, &peers); err != nil {
		return nil, err
	}
	return peers, nil
}

func (c *apiClient) mine(data string) (ledger.Block, error) {
	var block ledger.Block
	err := c.do(http.MethodPost, "/mineBlock", mineBlockRequest{Data: data}, &block)
	return block, err
}

func (c *apiClient) connect(peer string) error {
	return c.do(http.MethodPost, "/addPeer", addPeerRequest{Peer: peer}, nil)
}

func (c *apiClient) do(method string, path string, body any, dest any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.baseUrl+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, errResp.Error)
		}
		return fmt.Errorf("%s %s: unexpected status %s", method, path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, dest); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}

func (c *apiClient) printBlocks() error {
	blocks, err := c.blocks()
	if err != nil {
		return err
	}
	tableData := pterm.TableData{
		{"Index", "Hash", "Previous hash", "Timestamp", "Data"},
	}
	for _, block := range blocks {
		tableData = append(tableData, blockRow(block))
	}
	return pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
}

func (c *apiClient) printHead() error {
	block, err := c.head()
	if err != nil {
		return err
	}
	return pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"Index", "Hash", "Previous hash", "Timestamp", "Data"},
		blockRow(block),
	}).Render()
}

func (c *apiClient) printPeers() error {
	peers, err := c.peers()
	if err != nil {
		return err
	}
	if len(peers) == 0 {
		pterm.Info.Println("No connected peers")
		return nil
	}
	items := make([]pterm.BulletListItem, 0, len(peers))
	for _, peer := range peers {
		items = append(items, pterm.BulletListItem{Level: 0, Text: peer})
	}
	return pterm.DefaultBulletList.WithItems(items).Render()
}

func (c *apiClient) mineBlock(data string) error {
	block, err := c.mine(data)
	if err != nil {
		return err
	}
	pterm.Success.Printfln("Mined block %d (%s)", block.Index, block.Hash)
	return nil
}

func (c *apiClient) addPeer(peer string) error {
	if err := c.connect(peer); err != nil {
		return err
	}
	pterm.Success.Printfln("Connecting to peer %s", peer)
	return nil
}

func blockRow(block ledger.Block) []string {
	return []string{
		strconv.FormatUint(block.Index, 10),
		block.Hash,
		block.PreviousHash,
		block.Time().UTC().Format(time.RFC3339),
		block.Data,
	}
}
