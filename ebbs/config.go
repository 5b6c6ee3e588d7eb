package ebbs

import (
	"os"
	"time"

	"github.com/sasha-s/go-deadlock"
	"github.com/spf13/viper"
)

// Version is reported by getEbbsVersion.
const Version int64 = 1

var conf *viper.Viper
var confMutex = &deadlock.Mutex{}

func MakeOrGetConfig() *viper.Viper {
	confMutex.Lock()
	defer confMutex.Unlock()
	return conf
}

func SetConfig(config *viper.Viper) {
	confMutex.Lock()
	defer confMutex.Unlock()
	conf = config
}

type State struct {
	Shutdown chan struct{}
}

var currentState = State{}
var stateMutex = &deadlock.Mutex{}

// Shutdown closes the registered shutdown channel (once). If anything fails to close within 120 seconds we exit anyway.
func Shutdown() {
	LogCLI("Calling Shutdown", 2)
	stateMutex.Lock()
	defer stateMutex.Unlock()
	if currentState.Shutdown == nil {
		return
	}
	select {
	case <-currentState.Shutdown:
		return
	default:
		close(currentState.Shutdown)
	}
	go func() {
		LogCLI("Shutting down. If any databases fail to close gracefully within 120 seconds they will be destroyed.", 4)
		time.Sleep(time.Second * 120)
		println("Something didn't shutdown cleanly, the forum snapshot on disk is probably stale.")
		os.Exit(0)
	}()
}

func RegisterShutdownChan(shutdown chan struct{}) {
	stateMutex.Lock()
	defer stateMutex.Unlock()
	currentState.Shutdown = shutdown
}
