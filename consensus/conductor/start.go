package conductor

import (
	"sync"

	"ebbs/consensus/forum"
	"ebbs/consensus/sequence"
	"ebbs/database"
	"ebbs/ebbs"
)

// Start starts the databases behind the Conductor and returns it ready to accept events. The databases are shut
// down, after everything else, when terminate is closed.
func Start(terminate chan struct{}, wg *sync.WaitGroup, b forum.Bootstrap) (*Conductor, error) {
	ebbs.LogCLI("Starting the Conductor", 4)
	if err := database.Ready(); err != nil {
		return nil, err
	}
	// We need a local waitgroup to wait for our databases to shut down when terminating the application.
	databaseWg := &sync.WaitGroup{}
	terminateDatabases := make(chan struct{})

	sequences := sequence.StartDb(terminateDatabases, databaseWg)
	f, err := forum.StartDb(terminateDatabases, databaseWg, b)
	if err != nil {
		close(terminateDatabases)
		databaseWg.Wait()
		return nil, err
	}
	c := New(f, sequences)
	// Add a waitgroup delta to the calling function so it knows we are doing something
	wg.Add(1)
	go func() {
		ebbs.LogCLI("Conductor: I'm now accepting Events", 4)
		<-terminate
		ebbs.LogCLI("Conductor: I received terminate signal, shutting down", 4)
		// take the lock so that nothing is half way through an event while the databases close
		c.mutex.Lock()
		close(terminateDatabases)
		databaseWg.Wait()
		c.mutex.Unlock()
		ebbs.LogCLI("Conductor: shutdown complete", 4)
		wg.Done()
	}()
	return c, nil
}
