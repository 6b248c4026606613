package engine

import (
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/helix-engine/helix/engine/assets"
	"github.com/helix-engine/helix/engine/assets/loaders"
	"github.com/helix-engine/helix/engine/core"
	"github.com/helix-engine/helix/engine/platform"
	"github.com/helix-engine/helix/engine/renderer"
	"github.com/helix-engine/helix/engine/renderer/vulkan"
)

// ApplicationConfig is the TOML engine configuration.
type ApplicationConfig struct {
	// The application name used in windowing.
	Name string `toml:"name"`
	// Window starting width.
	StartWidth uint32 `toml:"width"`
	// Window starting height.
	StartHeight uint32 `toml:"height"`
	// Directory holding the .asset files.
	AssetRoot string `toml:"asset_root"`
	// Minimum log level: debug, info, warn, error.
	LogLevel string `toml:"log_level"`
	// Headless skips window and GPU bootstrap; asset systems still run.
	Headless bool `toml:"headless"`
}

// LoadConfig reads an ApplicationConfig from a TOML file.
func LoadConfig(path string) (*ApplicationConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config := &ApplicationConfig{
		Name:        "Helix",
		StartWidth:  1280,
		StartHeight: 720,
		AssetRoot:   "assets",
		LogLevel:    "info",
	}
	if err := toml.Unmarshal(raw, config); err != nil {
		return nil, err
	}
	return config, nil
}

// Game is implemented by the application driving the engine.
type Game interface {
	Initialize(e *Engine) error
	Update(deltaTime float64) error
	Shutdown() error
}

// Engine wires the asset database, the platform window and the render
// context together and owns their teardown ordering.
type Engine struct {
	config   *ApplicationConfig
	game     Game
	events   *core.EventBus
	database *assets.Database
	platform *platform.Platform
	backend  *vulkan.Backend
	context  *renderer.Context

	clock   core.Clock
	stats   core.FrameStats
	running bool
}

func New(config *ApplicationConfig, game Game) (*Engine, error) {
	core.SetLogLevel(core.ParseLogLevel(config.LogLevel))
	return &Engine{
		config: config,
		game:   game,
		events: core.NewEventBus(),
	}, nil
}

// Assets returns the asset provider.
func (e *Engine) Assets() *assets.Database {
	return e.database
}

// RenderContext returns the graphics context, nil in headless mode.
func (e *Engine) RenderContext() *renderer.Context {
	return e.context
}

// Events returns the engine event bus.
func (e *Engine) Events() *core.EventBus {
	return e.events
}

// FrameStats returns the frame timing figures of the running loop.
func (e *Engine) FrameStats() *core.FrameStats {
	return &e.stats
}

// RequestShutdown stops the frame loop after the current frame.
func (e *Engine) RequestShutdown() {
	e.running = false
}

func (e *Engine) Initialize() error {
	db, err := assets.NewDatabase(e.config.AssetRoot)
	if err != nil {
		return err
	}
	e.database = db

	for _, l := range []assets.Loader{
		&loaders.TextureLoader{},
		&loaders.BitmapFontLoader{},
		&loaders.MaterialLoader{},
		&loaders.ShaderLoader{},
	} {
		if err := db.RegisterLoader(l); err != nil {
			return err
		}
	}

	e.events.Register(core.EventCodeQuit, e, func(core.Event) bool {
		e.RequestShutdown()
		return true
	})

	if !e.config.Headless {
		p, err := platform.New()
		if err != nil {
			return err
		}
		if err := p.Startup(e.config.Name, e.config.StartWidth, e.config.StartHeight); err != nil {
			return err
		}
		e.platform = p
		p.SetResizeCallback(func(width, height uint32) {
			e.events.Fire(core.Event{
				Code:   core.EventCodeWindowResized,
				Sender: e,
				Data:   [2]uint32{width, height},
			})
		})

		backend, err := vulkan.New(vulkan.Config{
			AppName:    e.config.Name,
			ProcAddr:   p.VulkanProcAddr(),
			Extensions: p.RequiredVulkanExtensions(),
		}, db)
		if err != nil {
			return err
		}
		e.backend = backend
		e.context = renderer.NewContext(backend)
	}

	return e.game.Initialize(e)
}

// Run pumps the frame loop until the window closes or a shutdown is
// requested. Asset reload notifications are drained once per frame and
// republished on the event bus.
func (e *Engine) Run() error {
	e.running = true
	e.clock.Start()

	for e.running {
		if e.platform != nil {
			if e.platform.ShouldClose() {
				break
			}
			e.platform.PumpMessages()
		}

		for _, id := range e.database.DrainReloads() {
			e.events.Fire(core.Event{
				Code:   core.EventCodeAssetReloaded,
				Sender: e,
				Data:   id,
			})
		}

		delta := e.clock.Tick()
		if e.stats.Update(delta) {
			core.LogDebug("frame: %.0f fps, %.2f ms avg", e.stats.FPS(), e.stats.FrameTimeMS())
		}

		if err := e.game.Update(delta); err != nil {
			return err
		}

		if e.platform == nil {
			// Headless loops are driven by the game; avoid spinning.
			time.Sleep(time.Millisecond)
		}
	}
	return nil
}

// Shutdown tears everything down in reverse initialization order: the
// pipeline cache is disposed while the device still exists.
func (e *Engine) Shutdown() error {
	e.running = false

	if err := e.game.Shutdown(); err != nil {
		core.LogError("game shutdown: %v", err)
	}
	if e.context != nil {
		e.context.Shutdown()
	}
	if e.backend != nil {
		e.backend.Shutdown()
	}
	if e.database != nil {
		if err := e.database.Close(); err != nil {
			core.LogError("asset database close: %v", err)
		}
	}
	if e.platform != nil {
		if err := e.platform.Shutdown(); err != nil {
			return err
		}
	}
	core.LogInfo("engine shut down")
	return nil
}
