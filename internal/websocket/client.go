package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"codeberg.org/qapilot/server/internal/errors"
	"codeberg.org/qapilot/server/internal/logger"
)

// creates a new webSocket client connection
func NewClient(id, sessionID, subject, ipAddress, initialEnvironment string, initialHistory []HistoryMessage, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:                     id,
		SessionID:              sessionID,
		Subject:                subject,
		IPAddress:              ipAddress,
		InitialEnvironment:     initialEnvironment,
		InitialHistory:         initialHistory,
		conn:                   conn,
		hub:                    hub,
		send:                   make(chan []byte, 256),
		agentRequestTimestamps: make([]time.Time, 0, maxAgentRequestsPerMinute),
	}
}

// reads messages from the webSocket connection to the hub for processing
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister <- c
		c.conn.Close() //nolint:errcheck,gosec // G104: defer cleanup
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // G104: websocket setup
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // G104: pong handler
		return nil
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket error",
					"client_id", c.ID,
					"session_id", c.SessionID,
					"error", err,
				)
			}

			break
		}

		var msg Message
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			logger.ErrorErr(err, "failed to unmarshal message",
				"client_id", c.ID,
				"session_id", c.SessionID,
			)

			c.SendError("", errors.CodeBadRequest, "invalid message format", err.Error())
			continue
		}

		// identity comes from the connection, never from the payload
		msg.SessionID = c.SessionID
		msg.ClientID = c.ID
		msg.Subject = c.Subject
		msg.Timestamp = time.Now()

		c.hub.Inbound <- &msg
	}
}

// writes queued messages to the webSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close() //nolint:errcheck,gosec // G104: defer cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // G104: websocket timing

			if !ok {
				// hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck,gosec // G104: close message
				return
			}

			// one frame per message; clients decode each frame as a single JSON document
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // G104: websocket ping timing

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sends a message to the client
func (c *Client) Send(msg *Message) (err error) {
	// recover from panic if channel is closed
	defer func() {
		if r := recover(); r != nil {
			err = ErrConnectionClosed
		}
	}()

	c.mu.RLock()

	if c.closed {
		c.mu.RUnlock()
		return ErrConnectionClosed
	}

	c.mu.RUnlock()

	messageBytes, marshalErr := json.Marshal(msg)
	if marshalErr != nil {
		return marshalErr
	}

	select {
	case c.send <- messageBytes:
		return nil
	default:
		// slow reader; drop the connection rather than block the agent
		c.Close()
		return ErrConnectionClosed
	}
}

// sends an error message to the client
func (c *Client) SendError(requestID, code, message, details string) {
	errorMsg, err := NewMessage(TypeError, c.SessionID, errors.ErrorResponse{
		Error:   code,
		Message: message,
		Details: details,
	})
	if err != nil {
		logger.ErrorErr(err, "failed to create error message",
			"client_id", c.ID,
			"session_id", c.SessionID,
			"error_code", code,
		)
		return
	}

	errorMsg.RequestID = requestID

	c.Send(errorMsg) //nolint:errcheck,gosec // G104: best effort error notification
}

// closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// checks if the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.closed
}

// marks the client busy; false when an agent request is already running
func (c *Client) beginRequest() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return false
	}

	c.busy = true
	return true
}

func (c *Client) endRequest() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
}

// checks if the client can send an agent request
func (c *Client) checkAgentRequestRateLimit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	oneMinuteAgo := now.Add(-1 * time.Minute)

	// remove timestamps older than 1 minute
	validTimestamps := make([]time.Time, 0, maxAgentRequestsPerMinute)
	for _, ts := range c.agentRequestTimestamps {
		if ts.After(oneMinuteAgo) {
			validTimestamps = append(validTimestamps, ts)
		}
	}

	c.agentRequestTimestamps = validTimestamps

	if len(c.agentRequestTimestamps) >= maxAgentRequestsPerMinute {
		return false
	}

	c.agentRequestTimestamps = append(c.agentRequestTimestamps, now)
	return true
}

// returns current rate limit status for agent requests
func (c *Client) GetAgentRateLimitStatus() *RateLimit {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	oneMinuteAgo := now.Add(-1 * time.Minute)

	validCount := 0
	var oldestTimestamp time.Time

	for _, ts := range c.agentRequestTimestamps {
		if ts.After(oneMinuteAgo) {
			validCount++
			if oldestTimestamp.IsZero() || ts.Before(oldestTimestamp) {
				oldestTimestamp = ts
			}
		}
	}

	// seconds until the oldest request leaves the window
	resetSeconds := 60
	if !oldestTimestamp.IsZero() {
		resetSeconds = max(int(oldestTimestamp.Add(time.Minute).Sub(now).Seconds()), 0)
	}

	return &RateLimit{
		RequestsRemaining: max(maxAgentRequestsPerMinute-validCount, 0),
		RequestsLimit:     maxAgentRequestsPerMinute,
		ResetSeconds:      resetSeconds,
	}
}
