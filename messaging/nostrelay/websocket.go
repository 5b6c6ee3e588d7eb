package nostrelay

import (
	"github.com/gorilla/websocket"
	"github.com/sasha-s/go-deadlock"
)

// WebSocket serialises writes, gorilla connections support one concurrent writer.
type WebSocket struct {
	conn  *websocket.Conn
	mutex deadlock.Mutex
}

func (ws *WebSocket) WriteJSON(any interface{}) error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()
	return ws.conn.WriteJSON(any)
}

func (ws *WebSocket) WriteMessage(t int, b []byte) error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()
	return ws.conn.WriteMessage(t, b)
}
