// Entry point running the testbed game on top of the engine package.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/helix-engine/helix/engine"
	"github.com/helix-engine/helix/testbed"
)

func main() {
	config, err := engine.LoadConfig("helix.toml")
	if err != nil {
		panic(err)
	}

	eng, err := engine.New(config, testbed.NewTestGame())
	if err != nil {
		panic(err)
	}

	if err := eng.Initialize(); err != nil {
		panic(err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// start shutdown goroutine
	go func() {
		<-sigCh
		_ = eng.Shutdown()
	}()

	// run engine
	if err := eng.Run(); err != nil {
		panic(err)
	}
}
