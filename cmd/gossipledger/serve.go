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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/gossipledger"
	"github.com/blinklabs-io/gossipledger/config"
	"github.com/pterm/pterm"
	"golang.org/x/sync/errgroup"
)

const httpShutdownTimeout = 5 * time.Second

func runServe(f *globalFlags) error {
	cfg, err := config.Load(f.configPath, f.envPath)
	if err != nil {
		return err
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	logger := newLogger(level)
	slog.SetDefault(logger)

	topology, err := cfg.Topology()
	if err != nil {
		return err
	}
	node, err := gossipledger.NewNode(
		gossipledger.WithGenesis(cfg.Genesis),
		gossipledger.WithNodeLogger(logger),
		gossipledger.WithRetryPolicy(cfg.RetryPolicy()),
		gossipledger.WithTopology(topology),
	)
	if err != nil {
		return err
	}
	defer node.Stop()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	httpServer := &http.Server{
		Addr:              cfg.HttpListenAddress,
		Handler:           newApiHandler(ctx, node, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return node.ListenAndServe(gctx, cfg.P2PListenAddress)
	})
	g.Go(func() error {
		logger.Info(
			"listening for HTTP requests",
			"component", "api",
			"address", cfg.HttpListenAddress,
		)
		if err := httpServer.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			httpShutdownTimeout,
		)
		defer cancel()
		node.Stop()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newLogger(level slog.Level) *slog.Logger {
	ptermLevel := pterm.LogLevelInfo
	switch {
	case level <= slog.LevelDebug:
		ptermLevel = pterm.LogLevelDebug
	case level >= slog.LevelError:
		ptermLevel = pterm.LogLevelError
	case level >= slog.LevelWarn:
		ptermLevel = pterm.LogLevelWarn
	}
	handler := pterm.NewSlogHandler(pterm.DefaultLogger.WithLevel(ptermLevel))
	return slog.New(handler)
}
