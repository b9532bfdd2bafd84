package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	_ "time/tzdata"

	"LottoStats/internal/di"
	"LottoStats/pkg/config"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	checkOnly := flag.Bool("check", false, "validate the configuration and exit")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("lottostats", version)
		return
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(2)
	}
	if *checkOnly {
		fmt.Printf("config ok: env=%s backend=%s lotteries=%s\n",
			cfg.Environment, cfg.Backend.Type, strings.Join(cfg.Lotteries, ","))
		return
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "app initialization failed: %v\n", err)
		os.Exit(1)
	}

	// blocks until SIGINT or SIGTERM
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "app error: %v\n", err)
		os.Exit(1)
	}
}
