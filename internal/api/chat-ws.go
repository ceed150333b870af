package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/dorakhq/dorak/internal/model"
	"github.com/dorakhq/dorak/internal/usecase"
)

// clientMessage is one frame sent by the browser over the chat socket.
type clientMessage struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Model string `json:"model,omitempty"`
}

type sessionEvent struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type errorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func (h *Handlers) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return r.Header.Get("Origin") == h.cfg.AllowedOrigin
		},
	}
}

// HandleChatWS runs one chat session per connection. The server pushes
// progress, delta and complete events while an exchange is running; the
// client sends send, model and remove-attachment frames. Frames are handled
// one at a time, which also serializes exchanges on the session.
func (h *Handlers) HandleChatWS(w http.ResponseWriter, r *http.Request) {
	if _, err := h.emailFromRequest(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("failed to upgrade connection: %v", err)
		return
	}
	defer conn.Close()

	session := usecase.NewChatSession()
	h.mu.Lock()
	h.sessions[session.ID] = session
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.sessions, session.ID)
		h.mu.Unlock()
	}()

	if err = conn.WriteJSON(sessionEvent{Type: "session", ID: session.ID.String()}); err != nil {
		return
	}

	for {
		var msg clientMessage
		if err = conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("chat socket read error: %v", err)
			}
			return
		}

		switch msg.Type {
		case "model":
			session.SetModel(model.AiModel(msg.Model))
		case "remove-attachment":
			session.RemoveAttachment()
		case "send":
			if err = h.runExchange(r, conn, session, msg.Text); err != nil {
				return
			}
		}
	}
}

// runExchange drives one Send call, forwarding its events to the socket.
// The events channel must be drained until Send returns, so write errors
// stop writing but keep draining.
func (h *Handlers) runExchange(r *http.Request, conn *websocket.Conn, session *usecase.ChatSession, text string) error {
	events := make(chan usecase.ChatEvent)
	sendErr := make(chan error, 1)
	go func() {
		sendErr <- h.chat.Send(r.Context(), session, text, events)
		close(events)
	}()

	var writeErr error
	for event := range events {
		if writeErr != nil {
			continue
		}
		writeErr = conn.WriteJSON(event)
	}
	if writeErr != nil {
		return writeErr
	}

	if err := <-sendErr; err != nil {
		if errors.Is(err, usecase.ErrEmptyMessage) {
			return nil
		}
		return conn.WriteJSON(errorEvent{Type: "error", Error: displayError(err)})
	}
	return nil
}

// displayError maps an exchange failure to the message shown in the chat.
func displayError(err error) string {
	switch {
	case errors.Is(err, usecase.ErrExchangeInFlight):
		return "Please wait for the current response to finish."
	case errors.Is(err, usecase.ErrEmptyResponse):
		return "Received an empty response from the AI."
	default:
		return "Sorry, something went wrong. Please try again."
	}
}
