package websocket

import (
	"time"

	"codeberg.org/qapilot/server/internal/errors"
	"codeberg.org/qapilot/server/internal/logger"
)

func NewHub() *Hub {
	return &Hub{
		sessions:           make(map[string]map[string]*Client),
		Register:           make(chan *Client),
		Unregister:         make(chan *Client),
		Inbound:            make(chan *Message, 256),
		handlers:           make(map[string]MessageHandler),
		shutdown:           make(chan struct{}),
		subjectConnections: make(map[string]int),
		ipConnections:      make(map[string]int),
		sessionSequences:   make(map[string]uint64),
	}
}

// registers a handler for a specific message type
func (h *Hub) RegisterHandler(messageType string, handler MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[messageType] = handler
}

// starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case message := <-h.Inbound:
			h.handleMessage(message)

		case <-h.shutdown:
			h.closeAllConnections()
			return
		}
	}
}

// adds a client to the hub and sends it the session state
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[client.SessionID] == nil {
		h.sessions[client.SessionID] = make(map[string]*Client)
	}

	h.sessions[client.SessionID][client.ID] = client

	if client.Subject != "" {
		h.subjectConnections[client.Subject]++
	}

	logger.Info("client registered",
		"client_id", client.ID,
		"session_id", client.SessionID,
		"subject", client.Subject,
	)

	history := client.InitialHistory
	if history == nil {
		history = []HistoryMessage{}
	}

	stateMsg, err := NewMessage(TypeSessionState, client.SessionID, SessionStatePayload{
		SessionID:   client.SessionID,
		Environment: client.InitialEnvironment,
		History:     history,
	})
	if err == nil {
		if sendErr := client.Send(stateMsg); sendErr != nil {
			logger.ErrorErr(sendErr, "failed to send session state",
				"client_id", client.ID,
				"session_id", client.SessionID,
			)
		}
	}
}

// removes a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessionClients, exists := h.sessions[client.SessionID]
	if !exists {
		return
	}

	if _, exists := sessionClients[client.ID]; !exists {
		return
	}

	delete(sessionClients, client.ID)
	client.Close()

	h.untrack(client)

	logger.Info("client unregistered",
		"client_id", client.ID,
		"session_id", client.SessionID,
	)

	if len(sessionClients) == 0 {
		delete(h.sessions, client.SessionID)
		delete(h.sessionSequences, client.SessionID)
	}
}

// must be called with lock held
func (h *Hub) untrack(client *Client) {
	if client.Subject != "" {
		h.subjectConnections[client.Subject]--

		if h.subjectConnections[client.Subject] <= 0 {
			delete(h.subjectConnections, client.Subject)
		}
	}

	if client.IPAddress != "" {
		h.ipConnections[client.IPAddress]--

		if h.ipConnections[client.IPAddress] <= 0 {
			delete(h.ipConnections, client.IPAddress)
		}
	}
}

// processes an incoming message
func (h *Hub) handleMessage(msg *Message) {
	h.mu.RLock()

	sender, exists := h.sessions[msg.SessionID][msg.ClientID]
	handler, handled := h.handlers[msg.Type]

	h.mu.RUnlock()

	if !exists {
		logger.Warn("sender client not found for message",
			"client_id", msg.ClientID,
			"session_id", msg.SessionID,
			"message_type", msg.Type,
		)
		return
	}

	if !handled {
		logger.Warn("unhandled message type received",
			"message_type", msg.Type,
			"client_id", sender.ID,
			"session_id", msg.SessionID,
		)

		sender.SendError(msg.RequestID, errors.CodeBadRequest, "unsupported message type", "message type not recognized")
		return
	}

	// run handler asynchronously to avoid blocking the hub
	go func() {
		if err := handler(h, sender, msg); err != nil {
			logger.ErrorErr(err, "handler error",
				"message_type", msg.Type,
				"client_id", sender.ID,
				"session_id", msg.SessionID,
			)
		}
	}()
}

// sends a message to all clients in a session
func (h *Hub) BroadcastToSession(sessionID string, msg *Message, excludeClientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessionClients, exists := h.sessions[sessionID]
	if !exists {
		return
	}

	h.sessionSequences[sessionID]++
	msg.Sequence = h.sessionSequences[sessionID]

	for clientID, client := range sessionClients {
		if clientID == excludeClientID {
			continue
		}

		if err := client.Send(msg); err != nil {
			logger.ErrorErr(err, "failed to send message to client",
				"client_id", clientID,
				"session_id", sessionID,
			)
		}
	}
}

// returns the number of clients in a session
func (h *Hub) GetClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.sessions[sessionID])
}

func (h *Hub) GetSessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// safe to call more than once
func (h *Hub) Shutdown() {
	h.shutdownOnce.Do(func() {
		close(h.shutdown)
	})
}

func (h *Hub) closeAllConnections() {
	h.mu.Lock()

	logger.Info("notifying clients of server shutdown")

	for sessionID, sessionClients := range h.sessions {
		shutdownMsg, err := NewMessage(TypeServerShutdown, sessionID, ServerShutdownPayload{
			Reason: "server is shutting down",
		})
		if err != nil {
			logger.ErrorErr(err, "failed to create shutdown message")
			continue
		}

		for _, client := range sessionClients {
			client.Send(shutdownMsg) //nolint:errcheck,gosec // best effort
		}
	}

	h.mu.Unlock()

	// give clients time to receive the shutdown message
	time.Sleep(500 * time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()

	logger.Info("closing all websocket connections")

	for _, sessionClients := range h.sessions {
		for _, client := range sessionClients {
			client.Close()
		}
	}

	h.sessions = make(map[string]map[string]*Client)
	h.subjectConnections = make(map[string]int)
	h.ipConnections = make(map[string]int)
	h.sessionSequences = make(map[string]uint64)
}

// checks if a new connection should be allowed based on limits
func (h *Hub) CanAcceptConnection(subject, ipAddress string) (bool, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if subject != "" && h.subjectConnections[subject] >= maxConnectionsPerUser {
		return false, "maximum connections per user exceeded"
	}

	if h.ipConnections[ipAddress] >= maxConnectionsPerIP {
		return false, "maximum connections per IP address exceeded"
	}

	return true, ""
}

// increments the connection count for an IP address
func (h *Hub) TrackIPConnection(ipAddress string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ipConnections[ipAddress]++
}

// decrements the connection count for an IP address
func (h *Hub) UntrackIPConnection(ipAddress string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ipConnections[ipAddress]--

	if h.ipConnections[ipAddress] <= 0 {
		delete(h.ipConnections, ipAddress)
	}
}
