package nostrelay

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/stackerstan/go-nostr"
	"golang.org/x/time/rate"

	"ebbs/ebbs"
)

const (
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = pongWait / 2

	// Maximum message size allowed from peer.
	maxMessageSize = 524288
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func newLimiter() *rate.Limiter {
	every, burst := 200*time.Millisecond, 20
	if conf := ebbs.MakeOrGetConfig(); conf != nil {
		if d := conf.GetDuration("wsRateEvery"); d > 0 {
			every = d
		}
		if b := conf.GetInt("wsRateBurst"); b > 0 {
			burst = b
		}
	}
	return rate.NewLimiter(rate.Every(every), burst)
}

//handleWebsocket handles connections from the interfarce
func (r *Relay) handleWebsocket() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			ebbs.LogCLI("failed to upgrade websocket", 3)
			return
		}
		ticker := time.NewTicker(pingPeriod)
		ws := &WebSocket{conn: conn}
		limiter := newLimiter()
		done := make(chan struct{})

		// reader
		go func() {
			defer func() {
				close(done)
				r.listeners.drop(ws)
				conn.Close()
			}()
			conn.SetReadLimit(maxMessageSize)
			conn.SetReadDeadline(time.Now().Add(pongWait))
			conn.SetPongHandler(func(string) error {
				conn.SetReadDeadline(time.Now().Add(pongWait))
				return nil
			})
			for {
				typ, message, err := conn.ReadMessage()
				if err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
						ebbs.LogCLI("unexpected close of websocket", 3)
					}
					return
				}
				if typ == websocket.PingMessage {
					ws.WriteMessage(websocket.PongMessage, nil)
					continue
				}
				// events are handled in the order they arrive on this connection
				r.handleMessage(ws, limiter, message)
			}
		}()

		// writer
		go func() {
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
						ebbs.LogCLI("couldn't ping, exterminating socket", 3)
						conn.Close()
						return
					}
				}
			}
		}()
	}
}

func (r *Relay) handleMessage(ws *WebSocket, limiter *rate.Limiter, message []byte) {
	var clientErrorResp string
	defer func() {
		if clientErrorResp != "" {
			ws.WriteJSON([]interface{}{"NOTICE", clientErrorResp})
		}
	}()

	var request []jsoniter.RawMessage
	if err := json.Unmarshal(message, &request); err != nil {
		// stop silently
		return
	}
	if len(request) < 2 {
		clientErrorResp = "request has less than 2 parameters"
		return
	}
	var typ string
	json.Unmarshal(request[0], &typ)

	switch typ {
	case "EVENT":
		var evt nostr.Event
		if err := json.Unmarshal(request[1], &evt); err != nil {
			clientErrorResp = "failed to decode event"
			return
		}
		// assign ID
		hash := sha256.Sum256(evt.Serialize())
		evt.ID = hex.EncodeToString(hash[:])
		if !limiter.Allow() {
			ws.WriteJSON([]interface{}{"OK", evt.ID, false, "rate-limited: slow down"})
			return
		}
		if ok, err := evt.CheckSignature(); err != nil {
			ws.WriteJSON([]interface{}{"OK", evt.ID, false, "invalid: signature verification error"})
			return
		} else if !ok {
			ws.WriteJSON([]interface{}{"OK", evt.ID, false, "invalid: signature invalid"})
			return
		}
		handler := r.eventHandler()
		if handler == nil {
			ws.WriteJSON([]interface{}{"OK", evt.ID, false, "error: not accepting events yet"})
			return
		}
		res, err := handler(ebbs.ConvertToInternalEvent(&evt))
		if err != nil {
			ws.WriteJSON([]interface{}{"OK", evt.ID, false, "error: " + err.Error()})
			return
		}
		ws.WriteJSON([]interface{}{"OK", evt.ID, true, res.Note})
		r.listeners.broadcast(evt)
	case "REQ":
		var id string
		if err := json.Unmarshal(request[1], &id); err != nil || id == "" {
			clientErrorResp = "REQ has no <id>"
			return
		}
		filters := make(nostr.Filters, len(request)-2)
		for i, filterReq := range request[2:] {
			if err := json.Unmarshal(filterReq, &filters[i]); err != nil {
				clientErrorResp = "failed to decode filter"
				return
			}
		}
		if c, ok := r.subscriberFor(filters); ok {
			sub := Subscription{
				Filters:   filters,
				Events:    make(chan nostr.Event),
				Terminate: make(chan bool),
			}
			c <- sub
			go func() {
				for {
					select {
					case event := <-sub.Events:
						if err := ws.WriteJSON([]interface{}{"EVENT", id, event}); err != nil {
							ebbs.LogCLI(err.Error(), 3)
						}
					case <-sub.Terminate:
						ws.WriteJSON([]interface{}{"EOSE", id})
						return
					}
				}
			}()
			return
		}
		r.listeners.set(ws, id, filters)
		ws.WriteJSON([]interface{}{"EOSE", id})
	case "CLOSE":
		var id string
		json.Unmarshal(request[1], &id)
		if id == "" {
			clientErrorResp = "CLOSE has no <id>"
			return
		}
		r.listeners.remove(ws, id)
	default:
		clientErrorResp = fmt.Sprintf("unknown message type %s", typ)
	}
}
