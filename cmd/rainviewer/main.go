// Package main provides an interactive viewer for the rain particle system.
//
// Usage:
//
//	go run ./cmd/rainviewer [flags]
//
// Flags:
//
//	-config <path>    YAML or TOML config file (default: built-in runtime preset)
//	-preset <name>    Override the effect preset (editor, runtime, setup, simple)
//	-env <path>       Optional .env file with RAINFX_* overrides
//	-script <path>    Lua script run after start-up (see package scripting)
//
// Controls:
//
//	C          - Create the rain system (no-op when it already exists)
//	T          - Toggle rain on/off
//	X          - Destroy the rain system
//	B          - Show/hide emitter bounds
//	S          - Save the scene now
//	Q/Escape   - Quit (saves the scene when it was modified)
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/decker502/rainfx/pkg/config"
	"github.com/decker502/rainfx/pkg/effect"
	"github.com/decker502/rainfx/pkg/entities"
	"github.com/decker502/rainfx/pkg/game"
	"github.com/decker502/rainfx/pkg/host"
	"github.com/decker502/rainfx/pkg/modules"
	"github.com/decker502/rainfx/pkg/scripting"
)

var (
	configFlag = flag.String("config", "", "Path to rain config (.yaml or .toml)")
	presetFlag = flag.String("preset", "", "Effect preset override")
	envFlag    = flag.String("env", "", "Optional .env file with RAINFX_* overrides")
	scriptFlag = flag.String("script", "", "Lua script to run after start-up")
)

var background = color.NRGBA{R: 18, G: 22, B: 32, A: 255}

// RainViewerGame implements ebiten.Game for the rain viewer
type RainViewerGame struct {
	cfg    *config.RainConfig
	engine *host.Engine
	ctrl   *effect.Controller
	module *modules.RainModule
	store  *game.SceneStore
	lua    *scripting.Engine
	log    *zap.Logger

	drawBounds    bool
	statusMessage string
}

// NewRainViewerGame wires the host engine, controller and runtime module
func NewRainViewerGame(cfg *config.RainConfig, logger *zap.Logger) (*RainViewerGame, error) {
	resources := game.NewResourceManager()
	if cfg.Viewer.MaterialsFile != "" {
		if err := resources.LoadMaterialConfig(cfg.Viewer.MaterialsFile); err != nil {
			return nil, err
		}
	}

	store := game.OpenSceneStore(cfg.Viewer.AppName, logger)
	eng := host.NewEngine(resources, game.NewSceneDocument(cfg.Viewer.Scene), host.Options{
		ScreenWidth:  cfg.Viewer.Width,
		ScreenHeight: cfg.Viewer.Height,
		Seed:         cfg.Viewer.Seed,
		Logger:       logger,
	})
	eng.SetDrawBounds(cfg.Viewer.DrawBounds)

	ctrl := effect.NewController(eng, logger)
	g := &RainViewerGame{
		cfg:        cfg,
		engine:     eng,
		ctrl:       ctrl,
		module:     modules.NewRainModule(ctrl, cfg.Effect, logger),
		store:      store,
		lua:        scripting.NewEngine(ctrl, eng, cfg.Effect.Builder(), logger),
		log:        logger.Named("Viewer"),
		drawBounds: cfg.Viewer.DrawBounds,
	}

	if err := g.restoreScene(); err != nil {
		g.log.Warn("failed to restore scene", zap.Error(err))
	}
	if err := g.module.Start(); err != nil {
		g.statusMessage = err.Error()
	}
	return g, nil
}

// restoreScene 重建上次保存的雨效果（保存的句柄在新会话中无意义，只恢复参数）
func (g *RainViewerGame) restoreScene() error {
	saved, err := g.store.Load(g.cfg.Viewer.Scene)
	if err != nil {
		return err
	}
	for _, obj := range saved.Objects {
		if obj.Name != effect.EffectName && obj.Name != entities.SimpleRainName {
			continue
		}
		params := g.module.Parameters()
		params.Position = obj.Position
		params.Extents = obj.Extents
		params.EmissionRate = obj.EmissionRate
		if obj.Shader == effect.ShaderLit {
			params.Material = effect.MaterialLit
		} else {
			params.Material = effect.MaterialUnlit
		}
		g.module.SetParameters(params)
		if err := g.module.CreateRainSystem(); err != nil {
			return err
		}
		g.module.ToggleRain(obj.Active)
		// 恢复不算修改
		g.engine.Scene().ClearDirty()
		g.log.Info("scene restored", zap.String("scene", saved.Name))
		return nil
	}
	return nil
}

// Update advances the simulation and handles keyboard input
func (g *RainViewerGame) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		if err := g.module.CreateRainSystem(); err != nil {
			g.statusMessage = err.Error()
		} else {
			g.engine.Select(g.module.Instance().Handle())
			g.statusMessage = "rain created"
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyT) {
		g.module.ToggleRain(g.ctrl.State() != effect.StateActive)
		g.statusMessage = "rain " + g.ctrl.State().String()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyX) {
		if g.ctrl.State() != effect.StateAbsent {
			g.module.DestroyRainSystem()
			g.engine.MarkSceneDirty()
			g.statusMessage = "rain destroyed"
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		g.drawBounds = !g.drawBounds
		g.engine.SetDrawBounds(g.drawBounds)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		if err := g.store.Save(g.engine.Scene()); err != nil {
			g.statusMessage = err.Error()
		} else {
			g.statusMessage = "scene saved"
		}
	}

	g.engine.Update(1.0 / float64(ebiten.TPS()))
	return nil
}

// Draw renders the rain and the status overlay
func (g *RainViewerGame) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	g.engine.Draw(screen)

	count := 0
	if inst := g.ctrl.Current(); inst != nil {
		count = g.engine.ParticleCount(inst.Handle())
	}
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Rain: %s  particles: %d  FPS: %.0f",
		g.ctrl.State(), count, ebiten.ActualFPS()), 10, 10)
	ebitenutil.DebugPrintAt(screen, "C create  T toggle  X destroy  B bounds  S save  Q quit", 10, 30)
	if g.statusMessage != "" {
		ebitenutil.DebugPrintAt(screen, g.statusMessage, 10, 50)
	}
}

// Layout returns the logical screen size
func (g *RainViewerGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.cfg.Viewer.Width, g.cfg.Viewer.Height
}

// Close saves the modified scene and releases resources
func (g *RainViewerGame) Close() {
	if g.cfg.Viewer.SaveOnExit {
		if _, err := g.store.SaveIfDirty(g.engine.Scene()); err != nil {
			g.log.Error("failed to save scene", zap.Error(err))
		}
	}
	g.lua.Close()
	g.ctrl.Close()
}

func loadConfig() (*config.RainConfig, error) {
	cfg := config.DefaultRainConfig()
	if *configFlag != "" {
		loaded, err := config.LoadRainConfig(*configFlag)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(*envFlag); err != nil {
		return nil, err
	}
	if *presetFlag != "" {
		if err := cfg.Effect.ApplyPreset(*presetFlag); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	g, err := NewRainViewerGame(cfg, logger)
	if err != nil {
		return err
	}
	defer g.Close()

	if *scriptFlag != "" {
		if err := g.lua.DoFile(*scriptFlag); err != nil {
			return err
		}
	}

	ebiten.SetWindowSize(cfg.Viewer.Width, cfg.Viewer.Height)
	ebiten.SetWindowTitle(cfg.Viewer.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "rainviewer:", err)
		os.Exit(1)
	}
}
