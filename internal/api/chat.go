package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type chatMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// supportChat relays a visitor's messages to the configured chat backend and
// streams the reply back over the socket chunk by chunk, so the widget can
// render the answer as it arrives.
func (a *API) supportChat(c *gin.Context) {
	if a.chatUpstream == "" {
		c.JSON(503, gin.H{"error": gin.H{
			"code":    "Unavailable",
			"message": "Support chat is not available right now",
		}})
		return
	}

	conn, err := chatUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "chat: websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		var msg chatMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type != "message" || msg.Text == "" {
			_ = conn.WriteJSON(chatMessage{Type: "error", Text: "Send a message to chat"})
			continue
		}

		if err := a.relayChatMessage(c, conn, msg.Text); err != nil {
			slog.WarnContext(c.Request.Context(), "chat: relay failed", "error", err)
			_ = conn.WriteJSON(chatMessage{Type: "error", Text: "Something went wrong, try again"})
		}
	}
}

func (a *API) relayChatMessage(c *gin.Context, conn *websocket.Conn, text string) error {
	body, err := json.Marshal(map[string]string{"message": text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, a.chatUpstream, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("chat upstream responded %s", resp.Status)
	}

	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if werr := conn.WriteJSON(chatMessage{Type: "chunk", Text: string(buf[:n])}); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	return conn.WriteJSON(chatMessage{Type: "done"})
}
