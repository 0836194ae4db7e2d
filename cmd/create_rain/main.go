// Package main runs the "Tools/Create Rain System in Scene" editor command
// against a headless host and persists the modified scene.
//
// Usage:
//
//	go run ./cmd/create_rain [-config data/rain.yaml] [-env .env] [-scene main] [-list]
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/decker502/rainfx/pkg/config"
	"github.com/decker502/rainfx/pkg/editor"
	"github.com/decker502/rainfx/pkg/effect"
	"github.com/decker502/rainfx/pkg/game"
	"github.com/decker502/rainfx/pkg/host"
)

var (
	configFlag  = flag.String("config", "", "Path to rain config (.yaml or .toml)")
	envFlag     = flag.String("env", "", "Optional .env file with RAINFX_* overrides")
	sceneFlag   = flag.String("scene", "", "Scene name (default from config)")
	commandFlag = flag.String("command", editor.MenuCreateRain, "Editor menu command to run")
	listFlag    = flag.Bool("list", false, "List editor commands and exit")
)

func run() error {
	if *listFlag {
		for _, p := range editor.MenuPaths() {
			fmt.Println(p)
		}
		return nil
	}

	cfg := config.DefaultRainConfig()
	if *configFlag != "" {
		loaded, err := config.LoadRainConfig(*configFlag)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(*envFlag); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if *sceneFlag != "" {
		cfg.Viewer.Scene = *sceneFlag
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	store := game.OpenSceneStore(cfg.Viewer.AppName, logger)
	scene, err := store.Load(cfg.Viewer.Scene)
	if err != nil {
		return err
	}

	eng := host.NewEngine(nil, scene, host.Options{Logger: logger})
	ctrl := effect.NewController(eng, logger)

	inst, err := editor.Run(*commandFlag, ctrl, eng)
	if err != nil {
		return err
	}

	saved, err := store.SaveIfDirty(eng.Scene())
	if err != nil {
		return err
	}
	logger.Info("editor command finished",
		zap.String("command", *commandFlag),
		zap.Uint64("handle", uint64(inst.Handle())),
		zap.Bool("saved", saved),
		zap.Bool("persistent", store.Persistent()))
	return nil
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "create_rain:", err)
		os.Exit(1)
	}
}
