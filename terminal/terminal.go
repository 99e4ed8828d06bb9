// Package terminal serves an interactive shell over a websocket, so the file
// manager UI can offer a terminal next to the file listing. Binary frames
// carry raw terminal bytes in both directions; text frames carry JSON control
// messages (resize, ping).
package terminal

import (
	"encoding/json"
	"net/http"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type controlMessage struct {
	Action string `json:"action"`
	Cols   uint16 `json:"cols,omitempty"`
	Rows   uint16 `json:"rows,omitempty"`
}

// Handler spawns one shell per websocket connection.
type Handler struct {
	shell       string
	dir         string
	idleTimeout time.Duration
	log         *zap.Logger
}

// NewHandler configures the terminal endpoint. An empty shell falls back to
// $SHELL, then /bin/sh. dir is the working directory new shells start in.
func NewHandler(shell, dir string, idleTimeout time.Duration, log *zap.Logger) *Handler {
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{shell: shell, dir: dir, idleTimeout: idleTimeout, log: log}
}

type session struct {
	conn *websocket.Conn

	mu         sync.Mutex
	lastActive time.Time
}

func (s *session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *session) idle() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActive)
}

func (s *session) writeBinary(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

// Serve upgrades the request and pumps bytes between the websocket and a
// fresh pty until either side goes away or the session idles out.
func (h *Handler) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}

	id := uuid.NewString()
	log := h.log.With(zap.String("session", id))

	cmd := exec.Command(h.shell)
	cmd.Dir = h.dir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.Start(cmd)
	if err != nil {
		log.Error("error starting shell", zap.Error(err))
		conn.Close()
		return
	}
	log.Info("terminal started", zap.String("shell", h.shell))

	s := &session{conn: conn, lastActive: time.Now()}
	done := make(chan struct{})

	// Shell output to client. The pty read fails once the shell exits,
	// which tears down the websocket and unblocks the read loop below.
	go func() {
		defer close(done)
		buf := make([]byte, 4096)
		for {
			n, err := ptmx.Read(buf)
			if n > 0 {
				if werr := s.writeBinary(buf[:n]); werr != nil {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	// Idle watchdog, same scheme the connection timeout uses elsewhere:
	// poll every 10s, close when the session has been quiet too long.
	if h.idleTimeout > 0 {
		go func() {
			ticker := time.NewTicker(10 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if s.idle() > h.idleTimeout {
						log.Info("terminal idle timeout")
						conn.Close()
						return
					}
				}
			}
		}()
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.touch()

		switch msgType {
		case websocket.BinaryMessage:
			if _, err := ptmx.Write(data); err != nil {
				log.Error("error writing to shell", zap.Error(err))
				break
			}
		case websocket.TextMessage:
			var msg controlMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				log.Error("error unmarshalling control message", zap.Error(err))
				continue
			}
			switch msg.Action {
			case "resize":
				if err := pty.Setsize(ptmx, &pty.Winsize{Rows: msg.Rows, Cols: msg.Cols}); err != nil {
					log.Error("error resizing shell", zap.Error(err))
				}
			case "ping":
				s.mu.Lock()
				_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"pong"}`))
				s.mu.Unlock()
			}
		}
	}

	ptmx.Close()
	if cmd.Process != nil {
		cmd.Process.Kill()
	}
	cmd.Wait()
	conn.Close()
	<-done
	log.Info("terminal closed")
}
