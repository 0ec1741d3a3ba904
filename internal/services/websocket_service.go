package services

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"emirates-studios/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// CommandHandler applies browser commands to the carousels
type CommandHandler interface {
	HandleCommand(cmd *models.CarouselCommand) (*models.CarouselState, error)
	States() []*models.CarouselState
}

type directMessage struct {
	client *Client
	data   []byte
}

// Client is a connected browser
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// WebSocketService fans carousel events out to connected browsers
type WebSocketService struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	direct     chan directMessage
	done       chan struct{}
	stopOnce   sync.Once
	count      atomic.Int32
	commands   CommandHandler
	logger     *zap.Logger
}

// NewWebSocketService creates a new WebSocket hub
func NewWebSocketService(logger *zap.Logger) *WebSocketService {
	return &WebSocketService{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, sendBuffer),
		direct:     make(chan directMessage, sendBuffer),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// SetCommandHandler sets the handler for inbound commands. Must be called
// before clients connect.
func (ws *WebSocketService) SetCommandHandler(handler CommandHandler) {
	ws.commands = handler
}

// Run processes registrations and broadcasts until Stop is called
func (ws *WebSocketService) Run() {
	for {
		select {
		case client := <-ws.register:
			ws.clients[client] = true
			ws.count.Add(1)
			ws.logger.Debug("websocket client connected", zap.Int32("clients", ws.count.Load()))

		case client := <-ws.unregister:
			ws.remove(client)

		case message := <-ws.broadcast:
			for client := range ws.clients {
				select {
				case client.send <- message:
				default:
					ws.logger.Warn("dropping slow websocket client")
					ws.remove(client)
				}
			}

		case msg := <-ws.direct:
			if ws.clients[msg.client] {
				select {
				case msg.client.send <- msg.data:
				default:
				}
			}

		case <-ws.done:
			for client := range ws.clients {
				ws.remove(client)
			}
			return
		}
	}
}

// remove must only be called from Run
func (ws *WebSocketService) remove(client *Client) {
	if _, ok := ws.clients[client]; !ok {
		return
	}
	delete(ws.clients, client)
	close(client.send)
	ws.count.Add(-1)
	ws.logger.Debug("websocket client disconnected", zap.Int32("clients", ws.count.Load()))
}

// Stop ends Run and disconnects every client
func (ws *WebSocketService) Stop() {
	ws.stopOnce.Do(func() {
		close(ws.done)
	})
}

// ClientCount returns the number of connected clients
func (ws *WebSocketService) ClientCount() int {
	return int(ws.count.Load())
}

// Broadcast sends an event to every connected client
func (ws *WebSocketService) Broadcast(event *models.CarouselEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		ws.logger.Error("failed to marshal carousel event", zap.Error(err))
		return
	}

	select {
	case ws.broadcast <- data:
	case <-ws.done:
	}
}

// ServeClient registers an upgraded connection and starts its pumps. The
// client receives the current carousel states first.
func (ws *WebSocketService) ServeClient(conn *websocket.Conn) {
	client := &Client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	if ws.commands != nil {
		if data, err := json.Marshal(&models.CarouselEvent{
			Type:   models.EventCarouselState,
			States: ws.commands.States(),
		}); err == nil {
			client.send <- data
		}
	}

	select {
	case ws.register <- client:
	case <-ws.done:
		conn.Close()
		return
	}

	go ws.writePump(client)
	go ws.readPump(client)
}

// reply sends an event to a single registered client through Run
func (ws *WebSocketService) reply(client *Client, event *models.CarouselEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		ws.logger.Error("failed to marshal carousel event", zap.Error(err))
		return
	}

	select {
	case ws.direct <- directMessage{client: client, data: data}:
	case <-ws.done:
	}
}

func (ws *WebSocketService) readPump(client *Client) {
	defer func() {
		select {
		case ws.unregister <- client:
		case <-ws.done:
		}
		client.conn.Close()
	}()

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var cmd models.CarouselCommand
		if err := client.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		if ws.commands == nil {
			continue
		}
		if _, err := ws.commands.HandleCommand(&cmd); err != nil {
			ws.logger.Debug("carousel command rejected",
				zap.String("action", cmd.Action),
				zap.String("showcase", cmd.Showcase),
				zap.Error(err))
			ws.reply(client, &models.CarouselEvent{
				Type:     models.EventError,
				Showcase: cmd.Showcase,
				Message:  err.Error(),
			})
		}
	}
}

func (ws *WebSocketService) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				ws.logger.Debug("websocket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
