/*
Bouncing quad example: loads anima2d.toml and runs the testbed until the
window is closed, Escape is pressed or the process is interrupted.
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima2d/engine"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/testbed"
)

func main() {
	configPath := flag.String("config", "anima2d.toml", "path to the configuration file")
	flag.Parse()

	cfg, err := engine.LoadApplicationConfig(*configPath)
	if err != nil {
		core.LogFatal("invalid configuration: %s", err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	err = engine.Run(cfg, func(el *engine.EventLoop[os.Signal], proxy *engine.EventProxy[os.Signal]) (engine.App[os.Signal], error) {
		// forward signals to the loop goroutine
		go func() {
			for sig := range sigCh {
				if err := proxy.Send(sig); err != nil {
					proxy.Exit()
				}
			}
		}()
		q, err := testbed.NewBouncingQuad(el)
		if err != nil {
			return nil, err
		}
		return q, nil
	})
	if err != nil {
		core.LogFatal("testbed failed: %s", err)
	}
}
