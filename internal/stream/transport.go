package stream

import (
	"encoding/binary"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// EncodeWireFrame serializes n as the §6 wire format: a 4-byte big-endian
// length prefix followed by n's minimal-length big-endian magnitude.
func EncodeWireFrame(n *big.Int) ([]byte, error) {
	if n.Sign() < 0 {
		return nil, fmt.Errorf("stream: cannot encode negative value on the wire")
	}
	mag := n.Bytes()
	if len(mag) > 0xFFFFFFFF {
		return nil, fmt.Errorf("stream: value too large for a 4-byte length prefix")
	}
	frame := make([]byte, 4+len(mag))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(mag)))
	copy(frame[4:], mag)
	return frame, nil
}

// DecodeWireFrame reads one length-prefixed bigint from the front of buf,
// returning the value and the number of bytes consumed.
func DecodeWireFrame(buf []byte) (*big.Int, int, error) {
	if len(buf) < 4 {
		return nil, 0, fmt.Errorf("stream: buffer too short for a length prefix")
	}
	length := binary.BigEndian.Uint32(buf[:4])
	end := 4 + int(length)
	if len(buf) < end {
		return nil, 0, fmt.Errorf("stream: buffer too short for declared frame length %d", length)
	}
	return new(big.Int).SetBytes(buf[4:end]), end, nil
}

// Hub maintains the set of subscribed websocket clients and broadcasts
// wire-encoded chunk values to them. Lifted directly from the teacher's
// api.Hub (same field shape, same write-deadline-then-drop disconnect
// handling), retargeted from JSON dashboard payloads to the §6 wire format.
type Hub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
	mutex     sync.Mutex
}

// NewHub returns an unstarted Hub; call Run in its own goroutine to begin
// dispatching.
func NewHub() *Hub {
	return &Hub{
		broadcast: make(chan []byte, 256),
		clients:   make(map[*websocket.Conn]bool),
	}
}

// Run drains the broadcast channel until it's closed, fanning each frame
// out to every currently-subscribed client.
func (h *Hub) Run() {
	for message := range h.broadcast {
		h.mutex.Lock()
		for client := range h.clients {
			_ = client.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := client.WriteMessage(websocket.BinaryMessage, message); err != nil {
				log.Printf("[Stream] websocket write error: %v", err)
				client.Close()
				delete(h.clients, client)
			}
		}
		h.mutex.Unlock()
	}
}

// Subscribe upgrades an HTTP connection to a websocket and registers it as
// a broadcast recipient until it disconnects.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Stream] failed to upgrade websocket: %v", err)
		return
	}

	h.mutex.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mutex.Unlock()
	log.Printf("[Stream] client subscribed, total=%d", count)

	go func() {
		defer func() {
			h.mutex.Lock()
			delete(h.clients, conn)
			remaining := len(h.clients)
			h.mutex.Unlock()
			conn.Close()
			log.Printf("[Stream] client disconnected, total=%d", remaining)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// BroadcastValue wire-encodes n and queues it for delivery to every
// subscriber.
func (h *Hub) BroadcastValue(n *big.Int) error {
	frame, err := EncodeWireFrame(n)
	if err != nil {
		return err
	}
	h.broadcast <- frame
	return nil
}

// Close stops accepting broadcasts; Run's range loop exits once drained.
func (h *Hub) Close() {
	close(h.broadcast)
}
