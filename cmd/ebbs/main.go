package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sasha-s/go-deadlock"
	"github.com/spf13/viper"

	"ebbs/consensus/conductor"
	"ebbs/ebbs"
	"ebbs/messaging/eventers"
	"ebbs/messaging/nostrelay"
)

func main() {
	delve := false //problem: keep forgetting to turn this off after debug
	deadlock.Opts.DisableLockOrderDetection = true
	deadlock.Opts.DeadlockTimeout = time.Millisecond * 30000

	// Various aspect of this application require global and local settings. To keep things
	// clean and tidy we put these settings in a Viper configuration.
	conf := viper.New()
	ebbs.InitConfig(conf)
	// make the config accessible globally
	ebbs.SetConfig(conf)

	// the terminator channel blocks until shutdown, anything requiring a clean shutdown should
	// wait on this channel and clean up when it stops blocking.
	terminator := make(chan struct{})

	// anything requiring a clean shutdown (databases etc) need to either directly or
	// by proxy add to this waitgroup and remove from this waitgroup when they
	// have cleanly shut down.
	wg := &sync.WaitGroup{}

	// interrupt: see cliListener
	interrupt := make(chan struct{})
	if delve {
		// If we've been waiting for a mutex lock for an Uncomfortable Period of Time (UPT),
		// we exit and dump all our goroutine stacks to the terminal. This is usually *very*
		// helpful *except* while debugging where breakpoints cause us to exceed UPT limits.
		deadlock.Opts.Disable = true
	}
	ebbs.RegisterShutdownChan(interrupt)

	c, err := start(terminator, wg, conf)
	if err != nil {
		ebbs.LogCLI(err.Error(), 1)
		os.Exit(1)
	}
	if !delve {
		go cliListener(interrupt, c)
	}
	ebbs.LogCLI("Waiting for terminate signal, press q to quit", 4)

	<-interrupt
	ebbs.MakeOrGetConfig().Set("firstRun", false)
	if err := ebbs.MakeOrGetConfig().WriteConfig(); err != nil {
		ebbs.LogCLI(err.Error(), 3)
	}
	close(terminator)
	wg.Wait()
	os.Exit(0)
}

// start brings up everything needed during normal operation: the forum behind its conductor, the local relay
// feeding it events, and the eventers answering requests for state.
func start(terminator chan struct{}, wg *sync.WaitGroup, conf *viper.Viper) (*conductor.Conductor, error) {
	b, err := bootstrapFromConfig(conf, ebbs.MyWallet())
	if err != nil {
		return nil, err
	}
	c, err := conductor.Start(terminator, wg, b)
	if err != nil {
		return nil, fmt.Errorf("starting the forum: %w", err)
	}
	relay := nostrelay.New()
	relay.SetEventHandler(c.HandleEvent)
	eventers.Start(c, relay)
	relay.Start(terminator, wg)
	return c, nil
}
