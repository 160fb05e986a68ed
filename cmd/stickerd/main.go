package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vhqueiroz/stickerd/internal/config"
	"github.com/vhqueiroz/stickerd/internal/daemon"
	"go.uber.org/fx"
)

func main() {
	configFlag := flag.String("config", "", "path to config file (default ~/.stickerd/config.toml)")
	flag.Parse()

	path := *configFlag
	if path == "" {
		path = config.DefaultPath()
	}

	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		cfg, err = config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	} else if *configFlag != "" {
		fmt.Fprintf(os.Stderr, "error: config file %s not found\n", path)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(cfg),
	)

	app.Run()
}
