// Package client talks to a forum node over its websocket relay: it looks up our sequence through the eventers and
// publishes signed forum events.
package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/stackerstan/go-nostr"

	"ebbs/consensus/sequence"
	"ebbs/ebbs"
	"ebbs/messaging/eventers"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrRejected     = errors.New("event rejected by the node")
	ErrBadSignature = errors.New("forum status signature does not match the node")
)

type Client struct {
	conn    *websocket.Conn
	wallet  ebbs.Wallet
	timeout time.Duration
	subs    int
}

// Dial connects to a relay, e.g. ws://127.0.0.1:1032. Everything published is signed by w.
func Dial(url string, w ebbs.Wallet) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, wallet: w, timeout: 10 * time.Second}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) read() (msg []jsoniter.RawMessage, typ string, err error) {
	if err = c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return
	}
	_, b, err := c.conn.ReadMessage()
	if err != nil {
		return
	}
	if err = json.Unmarshal(b, &msg); err != nil {
		return
	}
	if len(msg) == 0 {
		return nil, "", fmt.Errorf("empty message from relay")
	}
	err = json.Unmarshal(msg[0], &typ)
	return
}

// request sends a REQ for one eventer and hands every event to each until the relay signals EOSE.
func (c *Client) request(eventer string, filter map[string]interface{}, each func(ev nostr.Event) error) error {
	c.subs++
	id := fmt.Sprintf("%s-%d", eventer, c.subs)
	filter["#eventer"] = []string{eventer}
	if err := c.conn.WriteJSON([]interface{}{"REQ", id, filter}); err != nil {
		return err
	}
	for {
		msg, typ, err := c.read()
		if err != nil {
			return err
		}
		switch typ {
		case "EVENT":
			var ev nostr.Event
			if len(msg) < 3 {
				continue
			}
			if err := json.Unmarshal(msg[2], &ev); err != nil {
				return err
			}
			if err := each(ev); err != nil {
				return err
			}
		case "EOSE":
			c.conn.WriteJSON([]interface{}{"CLOSE", id})
			return nil
		case "NOTICE":
			return fmt.Errorf("relay: %s", msg[1])
		}
	}
}

// Sequence asks the node for the last sequence it accepted from account.
func (c *Client) Sequence(account ebbs.Account) (seq int64, err error) {
	err = c.request("sequence", map[string]interface{}{"authors": []string{account}}, func(ev nostr.Event) error {
		var all []sequence.Sequence
		if err := json.Unmarshal([]byte(ev.Content), &all); err != nil {
			return err
		}
		for _, s := range all {
			if s.Account == account {
				seq = s.Sequence
			}
		}
		return nil
	})
	return
}

// Status fetches the forum status and checks that the node signed its state hash.
func (c *Client) Status() (s eventers.ForumStatus, err error) {
	found := false
	err = c.request("forum", map[string]interface{}{}, func(ev nostr.Event) error {
		if err := json.Unmarshal([]byte(ev.Content), &s); err != nil {
			return err
		}
		if len(s.Hash) > 0 && !ebbs.VerifySignature([]byte(s.Hash), s.Signature, ev.PubKey) {
			return ErrBadSignature
		}
		found = true
		return nil
	})
	if err == nil && !found {
		err = fmt.Errorf("the node sent no forum status")
	}
	return
}

// Publish signs a forum event with the next sequence for our wallet and waits for the relay to answer. The
// returned string is the node's note on success.
func (c *Client) Publish(kind int64, content interface{}) (string, error) {
	current, err := c.Sequence(c.wallet.Account)
	if err != nil {
		return "", fmt.Errorf("fetching sequence: %w", err)
	}
	var body = []byte("{}")
	if content != nil {
		if body, err = json.Marshal(content); err != nil {
			return "", err
		}
	}
	ev := ebbs.SignedEvent(c.wallet, kind, nostr.Tags{{"sequence", fmt.Sprint(current + 1)}}, fmt.Sprintf("%s", body))
	if err := c.conn.WriteJSON([]interface{}{"EVENT", ev}); err != nil {
		return "", err
	}
	for {
		msg, typ, err := c.read()
		if err != nil {
			return "", err
		}
		if typ != "OK" || len(msg) < 4 {
			continue
		}
		var id, note string
		var accepted bool
		json.Unmarshal(msg[1], &id)
		if id != ev.ID {
			continue
		}
		json.Unmarshal(msg[2], &accepted)
		json.Unmarshal(msg[3], &note)
		if !accepted {
			return note, fmt.Errorf("%s: %w", note, ErrRejected)
		}
		return note, nil
	}
}
