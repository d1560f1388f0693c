package web

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/tomz197/clicktest/internal/audio"
	"github.com/tomz197/clicktest/internal/input"
	"github.com/tomz197/clicktest/internal/level"
	"github.com/tomz197/clicktest/internal/loop"
	"github.com/tomz197/clicktest/internal/loop/config"
	"github.com/tomz197/clicktest/internal/loop/server"
	"github.com/tomz197/clicktest/internal/object"
)

// Frames between two pushed snapshots.
const stateEvery = config.ClientTargetFPS / config.WebStateRate

// player owns one connection's session. Only run touches the session and
// writes to the connection; readLoop hands commands over cmds.
type player struct {
	conn    *websocket.Conn
	handle  *server.ClientHandle
	server  server.GameServer
	session *loop.Session
	cmds    chan command
	quit    chan struct{}
	pending []message
	logger  *log.Logger
}

func newPlayer(conn *websocket.Conn, handle *server.ClientHandle, gs server.GameServer, r level.Rand, logger *log.Logger) *player {
	p := &player{
		conn:   conn,
		handle: handle,
		server: gs,
		cmds:   make(chan command, 16),
		quit:   make(chan struct{}),
		logger: logger,
	}
	p.session = loop.NewSession(loop.Options{
		Arena: object.DefaultArena(),
		Rand:  r,
		Cues: audio.Func{
			OnSuccess: func() { p.queue(message{Type: msgCue, Cue: "success"}) },
			OnError:   func() { p.queue(message{Type: msgCue, Cue: "error"}) },
		},
		Sink:   gs,
		Logger: logger,
	})
	return p
}

// run drives the session until the browser leaves or the server shuts down.
func (p *player) run() {
	defer close(p.quit)

	done := make(chan struct{})
	go p.readLoop(done)

	frame := time.NewTicker(config.ClientTargetFrameTime)
	defer frame.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	last := time.Now()
	frames := 0
	p.queueState()

	for {
		if err := p.flush(); err != nil {
			p.logger.Debug("Write failed", "err", err)
			return
		}

		select {
		case <-done:
			return

		case cmd := <-p.cmds:
			p.apply(cmd)
			p.queueState()

		case ev, ok := <-p.handle.EventsCh:
			if !ok || ev.Type == server.EventServerShutdown {
				p.queue(message{Type: msgShutdown, Message: "The server is restarting. Please reload in a moment."})
				_ = p.flush()
				return
			}

		case now := <-frame.C:
			dt := now.Sub(last)
			last = now
			p.session.Frame()
			p.session.Advance(dt)
			frames++
			if frames%stateEvery == 0 {
				p.queueState()
			}

		case <-ping.C:
			if err := p.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readLoop decodes commands until the connection fails. Malformed messages
// are skipped.
func (p *player) readLoop(done chan<- struct{}) {
	defer close(done)

	p.conn.SetReadLimit(maxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.logger.Debug("Read failed", "err", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		var cmd command
		if err := json.Unmarshal(data, &cmd); err != nil {
			continue
		}
		select {
		case p.cmds <- cmd:
		case <-p.quit:
			return
		}
	}
}

// apply runs one command against the session.
func (p *player) apply(cmd command) {
	s := p.session
	var err error

	switch cmd.Type {
	case cmdIdentify:
		err = s.Identify(cmd.FirstName, cmd.IDNumber)
	case cmdStart:
		err = s.Start()
	case cmdAck:
		err = s.AcknowledgeRules()
	case cmdClick:
		s.ClickAt(cmd.Seq, cmd.X, cmd.Y, domButton(cmd.Button))
	case cmdContinue:
		err = s.Continue()
	case cmdRestart:
		err = s.Restart()
	case cmdNewPerson:
		err = s.NewPerson()
	default:
		p.queue(message{Type: msgError, Message: "unknown command " + cmd.Type})
		return
	}

	if err == nil {
		return
	}
	if errors.Is(err, loop.ErrInvalidTransition) {
		p.logger.Debug("Ignored command", "cmd", cmd.Type, "err", err)
		return
	}
	p.queue(message{Type: msgError, Message: errorMessage(err)})
}

// errorMessage turns session errors into text for the page.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, loop.ErrFirstNameRequired):
		return "Please enter your first name"
	case errors.Is(err, loop.ErrIDNumberRequired):
		return "Please enter your PS number"
	case errors.Is(err, loop.ErrRestartNotAllowed):
		return "You passed, a retry is not needed"
	default:
		return err.Error()
	}
}

// domButton maps MouseEvent.button, which numbers buttons like SGR mouse
// reports do.
func domButton(b int) object.Button {
	switch b {
	case input.MouseLeft:
		return object.ButtonPrimary
	case input.MouseRight:
		return object.ButtonSecondary
	default:
		return object.ButtonNone
	}
}

func (p *player) queue(m message) {
	p.pending = append(p.pending, m)
}

func (p *player) queueState() {
	snap := p.session.Snapshot()
	p.queue(message{Type: msgState, State: &snap, Players: p.server.GetSnapshot().Players})
}

// flush writes every queued message in order.
func (p *player) flush() error {
	for i, m := range p.pending {
		_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := p.conn.WriteJSON(m); err != nil {
			p.pending = p.pending[:0]
			return err
		}
		p.pending[i] = message{}
	}
	p.pending = p.pending[:0]
	return nil
}
