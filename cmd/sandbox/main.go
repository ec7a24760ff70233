// Command sandbox opens a window on a demo scene, or on a scene file, with
// Lua scripts hot reloaded from the scripts directory and the debug overlay
// on F1.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/plus3/quadforge/app"
	"github.com/plus3/quadforge/config"
	"github.com/plus3/quadforge/logging"
	"github.com/plus3/quadforge/scene"
)

func main() {
	configPath := flag.String("config", "quadforge.toml", "TOML config file; defaults apply when missing")
	scenePath := flag.String("scene", "", "YAML scene to load instead of the demo")
	savePath := flag.String("save", "", "write the scene to this YAML file on exit")
	flag.Parse()

	if err := run(*configPath, *scenePath, *savePath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, scenePath, savePath string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	s := newDemoScene(cfg.Window.Title, scene.WithLogger(log), scene.WithDebug(cfg.Debug.PanicOnError))
	if scenePath != "" {
		if err := scene.NewSerializer(s).DeserializeFile(scenePath); err != nil {
			return err
		}
	} else {
		populate(s)
	}

	game, err := app.New(cfg, log, app.WithScene(s))
	if err != nil {
		return err
	}
	defer game.Close()

	log.Info("sandbox started",
		zap.String("scene", s.Name),
		zap.Int("entities", s.Storage().Len()),
		zap.String("scripts", cfg.Scripts.Dir),
	)
	if err := game.Run(); err != nil {
		return err
	}

	if savePath != "" {
		if err := scene.NewSerializer(s).SerializeFile(savePath); err != nil {
			return err
		}
		log.Info("scene saved", zap.String("path", savePath))
	}
	return nil
}
