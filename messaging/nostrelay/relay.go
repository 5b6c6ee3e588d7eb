// Package nostrelay is the local websocket relay that the interfarce (and anyone else) talks to. Events coming in
// are verified and handed to the EventHandler, requests are handed to whoever subscribed to them.
package nostrelay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sasha-s/go-deadlock"
	"github.com/stackerstan/go-nostr"

	"ebbs/consensus/forum"
	"ebbs/ebbs"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EventHandler consumes a verified event, normally conductor.HandleEvent.
type EventHandler func(ebbs.Event) (forum.Result, error)

type Subscription struct {
	Filters   nostr.Filters
	Events    chan nostr.Event
	Terminate chan bool //close this to stop watching for new events
}

type Relay struct {
	router        *mux.Router
	mutex         *deadlock.Mutex
	handler       EventHandler
	subscriptions map[string]chan Subscription
	listeners     *listeners
}

func New() *Relay {
	r := &Relay{
		router:        mux.NewRouter(),
		mutex:         &deadlock.Mutex{},
		subscriptions: make(map[string]chan Subscription),
		listeners:     newListeners(),
	}
	// catch the websocket call before anything else
	r.router.Path("/").Headers("Upgrade", "websocket").HandlerFunc(r.handleWebsocket())
	r.router.Path("/").Methods(http.MethodGet).HandlerFunc(handleInfo)
	r.router.Path("/metrics").Handler(promhttp.Handler())
	return r
}

func (r *Relay) SetEventHandler(h EventHandler) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.handler = h
}

func (r *Relay) eventHandler() EventHandler {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.handler
}

// SubscribeToRequests returns a channel that receives every REQ carrying a filter with a tag named after the
// subscriber (e.g. {"#eventer": ["posts"]}).
func (r *Relay) SubscribeToRequests(name string) chan Subscription {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	c := make(chan Subscription)
	r.subscriptions[name] = c
	return c
}

func (r *Relay) subscriberFor(filters nostr.Filters) (chan Subscription, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for name, c := range r.subscriptions {
		for _, filter := range filters {
			if _, ok := filter.Tags[name]; ok {
				return c, true
			}
		}
	}
	return nil, false
}

func (r *Relay) Handler() http.Handler {
	return cors.Default().Handler(r.router)
}

// Start listens on websocketAddr until terminate is closed.
func (r *Relay) Start(terminate chan struct{}, wg *sync.WaitGroup) {
	ebbs.LogCLI("Starting our local Nostr Relay for the frontend", 4)
	srv := &http.Server{
		Handler:           r.Handler(),
		Addr:              ebbs.MakeOrGetConfig().GetString("websocketAddr"),
		WriteTimeout:      2 * time.Second,
		ReadTimeout:       2 * time.Second,
		IdleTimeout:       30 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}
	wg.Add(1)
	go func() {
		<-terminate
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			ebbs.LogCLI(err.Error(), 2)
		}
		ebbs.LogCLI("Nostr Relay has shut down", 4)
		wg.Done()
	}()
	go func() {
		ebbs.LogCLI(fmt.Sprintf("listening on %s", srv.Addr), 4)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ebbs.LogCLI(err.Error(), 0)
		}
	}()
}

type info struct {
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	PubKey        string           `json:"pubkey"`
	SupportedNIPs []int            `json:"supported_nips"`
	Software      string           `json:"software"`
	Version       int64            `json:"version"`
	Kinds         map[int64]string `json:"kinds"`
}

func handleInfo(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/nostr+json")
	var pubkey string
	if ebbs.MakeOrGetConfig() != nil {
		pubkey = ebbs.MyWallet().Account
	}
	if err := json.NewEncoder(w).Encode(info{
		Name:          "ebbs",
		Description:   "a forum ledger",
		PubKey:        pubkey,
		SupportedNIPs: []int{1, 11, 20},
		Software:      "ebbs",
		Version:       ebbs.Version,
		Kinds:         ebbs.GetAllKinds(),
	}); err != nil {
		ebbs.LogCLI(err.Error(), 3)
	}
}
