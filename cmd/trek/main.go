// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/relabs-tech/trek/internal/app"
	"github.com/relabs-tech/trek/internal/config"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logFile := app.SetupLogging(cfg.AppLog)
	log.Println("starting trek (modem + GPS dashboard)")

	err = app.RunTrek(cfg)
	if err != nil {
		log.Printf("fatal: %v", err)
		fmt.Fprintln(os.Stderr, err)
	}
	logFile.Close()
	if err != nil {
		os.Exit(1)
	}
}
