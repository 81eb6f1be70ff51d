package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// Client is a thin websocket client for the game server, used by the
// CLI commands to drive a session from the terminal.
type Client struct {
	conn *websocket.Conn
}

// Dial connects to the server's websocket endpoint. serverURL accepts
// http(s) or ws(s) schemes.
func Dial(serverURL string) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if !strings.HasSuffix(u.Path, "/ws") {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.String(), err)
	}
	return &Client{conn: conn}, nil
}

// Send writes one intent to the server.
func (c *Client) Send(intent any) error {
	data, err := json.Marshal(intent)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Next reads the next server message as raw JSON.
func (c *Client) Next() (json.RawMessage, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
