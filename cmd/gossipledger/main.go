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
	"flag"
	"fmt"
	"os"
)

const defaultApiUrl = "http://localhost:3001"

type globalFlags struct {
	flagset    *flag.FlagSet
	configPath string
	envPath    string
	logLevel   string
	apiUrl     string
}

func newGlobalFlags() *globalFlags {
	f := &globalFlags{
		flagset: flag.NewFlagSet(os.Args[0], flag.ExitOnError),
	}
	f.flagset.StringVar(
		&f.configPath,
		"config",
		"",
		"path to JSON config file",
	)
	f.flagset.StringVar(
		&f.envPath,
		"env-file",
		"",
		"path to dotenv file with environment overrides",
	)
	f.flagset.StringVar(
		&f.logLevel,
		"log-level",
		"",
		"log level (debug, info, warn, error). this overrides LOG_LEVEL",
	)
	f.flagset.StringVar(
		&f.apiUrl,
		"api",
		defaultApiUrl,
		"base URL of the node HTTP API used by client subcommands",
	)
	return f
}

func main() {
	f := newGlobalFlags()
	err := f.flagset.Parse(os.Args[1:])
	if err != nil {
		fmt.Printf("failed to parse command args: %s\n", err)
		os.Exit(1)
	}

	subcommand := "serve"
	if len(f.flagset.Args()) > 0 {
		subcommand = f.flagset.Arg(0)
	}
	args := []string{}
	if len(f.flagset.Args()) > 1 {
		args = f.flagset.Args()[1:]
	}
	switch subcommand {
	case "serve":
		err = runServe(f)
	case "blocks":
		err = newApiClient(f.apiUrl).printBlocks()
	case "head":
		err = newApiClient(f.apiUrl).printHead()
	case "peers":
		err = newApiClient(f.apiUrl).printPeers()
	case "mine":
		if len(args) != 1 {
			fmt.Printf("Usage: %s mine <data>\n", os.Args[0])
			os.Exit(1)
		}
		err = newApiClient(f.apiUrl).mineBlock(args[0])
	case "add-peer":
		if len(args) != 1 {
			fmt.Printf("Usage: %s add-peer <host:port>\n", os.Args[0])
			os.Exit(1)
		}
		err = newApiClient(f.apiUrl).addPeer(args[0])
	default:
		fmt.Printf("Unknown subcommand: %s\n", subcommand)
		os.Exit(1)
	}
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
}
