package client

import (
	"bufio"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/clicktest/internal/audio"
	"github.com/tomz197/clicktest/internal/draw"
	"github.com/tomz197/clicktest/internal/input"
	"github.com/tomz197/clicktest/internal/level"
	"github.com/tomz197/clicktest/internal/loop"
	"github.com/tomz197/clicktest/internal/loop/config"
	"github.com/tomz197/clicktest/internal/loop/server"
	"github.com/tomz197/clicktest/internal/object"
)

// Burst size of the hit effect
const hitParticles = 24

// Client handles rendering and input for a single connection.
type Client struct {
	server       server.GameServer
	handle       *server.ClientHandle
	session      *loop.Session
	state        *ClientState
	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter // Accumulates UI text for chunked output
	reader       *bufio.Reader
	writer       io.Writer
	inputStream  *input.Stream
	lastInput    time.Time
	username     string
	termSizeFunc draw.TermSizeFunc
	styles       styles
	logger       *log.Logger
}

// ClientOptions configures the client.
type ClientOptions struct {
	TermSizeFunc draw.TermSizeFunc
	Username     string
	Cues         audio.Cues       // Defaults to the terminal bell
	Rand         level.Rand       // Spawn randomness, nil seeds from the clock
	Clock        func() time.Time // Session timestamps, nil uses time.Now
	Logger       *log.Logger
}

// NewClient creates a new client connected to the given server.
func NewClient(gs server.GameServer, r *bufio.Reader, w io.Writer, opts ClientOptions) *Client {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}
	cues := opts.Cues
	if cues == nil {
		cues = audio.NewBell(w)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.With("user", opts.Username)

	handle := gs.RegisterClient(opts.Username)
	session := loop.NewSession(loop.Options{
		Arena:  object.DefaultArena(),
		Rand:   opts.Rand,
		Clock:  opts.Clock,
		Cues:   cues,
		Sink:   gs,
		Logger: logger,
	})

	// Create canvas with clamped dimensions for max render resolution
	termWidth, termHeight, _ := termSizeFunc()
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)
	canvas := draw.NewScaledCanvas(renderWidth, renderHeight, config.ArenaWidth, config.ArenaHeight)
	canvas.SetOffset(offsetCol, offsetRow)
	chunkWriter := draw.NewChunkWriter(w, offsetCol, offsetRow)

	return &Client{
		server:       gs,
		handle:       handle,
		session:      session,
		state:        NewClientState(),
		canvas:       canvas,
		chunkWriter:  chunkWriter,
		reader:       r,
		writer:       w,
		lastInput:    time.Now(),
		inputStream:  input.StartStream(r),
		username:     opts.Username,
		termSizeFunc: termSizeFunc,
		styles:       newStyles(w),
		logger:       logger,
	}
}

// Run starts the client loop. Blocks until the client disconnects or server stops.
func (c *Client) Run() error {
	draw.HideCursor(c.writer)
	draw.EnableMouse(c.writer)
	defer draw.ShowCursor(c.writer)
	defer draw.DisableMouse(c.writer)
	draw.ClearScreen(c.writer)

	lastTime := time.Now()

	for c.state.Running {
		frameStart := time.Now()
		c.state.delta = frameStart.Sub(lastTime)
		lastTime = frameStart

		// Process input
		c.processInput()

		// Check for server events
		c.processServerEvents()

		// Handle screen resize
		c.updateScreen()

		// Handle game state
		if c.state.shutdown {
			c.updateShutdownState()
		} else {
			c.update()
		}
		c.state.updateEffects()

		// Draw frame
		if err := c.drawFrame(); err != nil {
			c.server.UnregisterClient(c.handle.ID)
			return err
		}

		// Frame timing
		elapsed := time.Since(frameStart)
		if elapsed < config.ClientTargetFrameTime {
			time.Sleep(config.ClientTargetFrameTime - elapsed)
		}
	}

	// Unregister from server
	c.server.UnregisterClient(c.handle.ID)

	draw.ClearScreen(c.writer)
	return nil
}

// processInput reads input and tracks inactivity.
func (c *Client) processInput() {
	c.state.Input = input.ReadInput(c.inputStream)

	if len(c.state.Input.Pressed) > 0 {
		c.lastInput = time.Now()
		c.state.isInactive = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityDisconnectUser {
		c.logger.Info("Disconnecting inactive client")
		c.state.Running = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityWarnUser {
		c.state.isInactive = true
	}

	if c.state.Input.Quit || c.inputStream.Closed() {
		c.state.Running = false
	}
}

// processServerEvents handles events from the server.
func (c *Client) processServerEvents() {
	for {
		select {
		case event, ok := <-c.handle.EventsCh:
			if !ok {
				// Server closed the channel
				c.state.Running = false
				return
			}
			switch event.Type {
			case server.EventServerShutdown:
				c.state.shutdown = true
				c.state.shutdownTimer = config.ShutdownDisplaySeconds
			}
		default:
			return
		}
	}
}

// updateScreen handles terminal resize, clamping to max render resolution.
// On actual size changes, clears the terminal to remove residual pixels
// outside the new canvas area (e.g. old borders or offset content).
func (c *Client) updateScreen() {
	termWidth, termHeight, err := c.termSizeFunc()
	if err != nil {
		return
	}
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)

	if renderWidth != c.canvas.TerminalWidth() || renderHeight != c.canvas.TerminalHeight() ||
		offsetCol != c.canvas.OffsetCol() || offsetRow != c.canvas.OffsetRow() {
		draw.ClearScreen(c.writer)
		c.canvas.ForceRedraw()
	}

	c.canvas.Resize(renderWidth, renderHeight)
	c.canvas.SetOffset(offsetCol, offsetRow)
	c.chunkWriter.SetOffset(offsetCol, offsetRow)
}

// clampTermSize clamps terminal dimensions to the max render resolution and computes
// the centering offset for the render area.
func clampTermSize(termWidth, termHeight int) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	renderWidth = termWidth
	renderHeight = termHeight
	if renderWidth > config.MaxTermWidth {
		renderWidth = config.MaxTermWidth
	}
	if renderHeight > config.MaxTermHeight {
		renderHeight = config.MaxTermHeight
	}
	offsetCol = (termWidth - renderWidth) / 2
	offsetRow = (termHeight - renderHeight) / 2
	return
}

// update applies this frame's input to the session.
func (c *Client) update() {
	in := c.state.Input
	s := c.session

	switch s.Phase {
	case loop.PhaseIdentify:
		c.updateIdentify(in)
	case loop.PhaseInstructions:
		if in.Enter || in.Space {
			_ = s.Start()
		}
	case loop.PhasePlaying:
		c.updatePlaying(in)
	case loop.PhaseResults:
		c.updateResults(in)
	}
}

func (c *Client) updateIdentify(in input.Input) {
	f := &c.state.Form
	if in.Tab {
		f.focus = 1 - f.focus
	}
	if in.Escape {
		f.fields[f.focus] = nil
	}
	if in.Backspace {
		f.backspace()
	}
	f.typeRunes(in.Text)

	if !in.Enter {
		return
	}
	if f.focus == 0 && f.firstName() != "" && f.idNumber() == "" {
		f.focus = 1
		return
	}
	if err := c.session.Identify(f.firstName(), f.idNumber()); err != nil {
		f.err = validationMessage(err)
		if errors.Is(err, loop.ErrFirstNameRequired) {
			f.focus = 0
		} else if errors.Is(err, loop.ErrIDNumberRequired) {
			f.focus = 1
		}
		return
	}
	f.reset()
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, loop.ErrFirstNameRequired):
		return "Please enter your first name"
	case errors.Is(err, loop.ErrIDNumberRequired):
		return "Please enter your PS number"
	default:
		return err.Error()
	}
}

func (c *Client) updatePlaying(in input.Input) {
	s := c.session
	switch s.Round.Phase {
	case loop.RoundRules:
		if in.Enter || in.Space {
			_ = s.AcknowledgeRules()
		}
	case loop.RoundActive:
		for _, click := range in.Clicks {
			c.handleClick(click)
			if s.Phase != loop.PhasePlaying || !s.Round.Active() {
				break
			}
		}
		if s.Phase == loop.PhasePlaying {
			s.Frame()
			s.Advance(c.state.delta)
		}
	case loop.RoundSuccess, loop.RoundTimeout:
		if in.Enter || in.Space {
			c.state.clearEffects()
			_ = s.Continue()
		}
	}
}

func (c *Client) handleClick(click input.Click) {
	x, y, ok := c.canvas.TerminalToLogical(click.Col, click.Row)
	if !ok {
		return
	}
	ball := c.session.Round.Ball
	if c.session.Click(x, y, mouseButton(click.Button)) == level.Hit {
		object.SpawnBurst(ball, hitParticles, c.state)
		c.state.Spawn(object.NewPointsLabel(ball.X, ball.Y-ball.Radius, c.session.Round.Points, config.PointsLabelSeconds))
	}
}

// mouseButton maps SGR button codes to game buttons.
func mouseButton(b int) object.Button {
	switch b {
	case input.MouseLeft:
		return object.ButtonPrimary
	case input.MouseRight:
		return object.ButtonSecondary
	default:
		return object.ButtonNone
	}
}

func (c *Client) updateResults(in input.Input) {
	for _, r := range in.Text {
		switch r {
		case 'r', 'R':
			if err := c.session.Restart(); errors.Is(err, loop.ErrRestartNotAllowed) {
				c.state.Notice = "You passed, a retry is not needed"
			} else if err == nil {
				c.state.Notice = ""
			}
			return
		case 'n', 'N':
			if c.session.NewPerson() == nil {
				c.state.Notice = ""
				c.state.Form.reset()
			}
			return
		}
	}
}

// updateShutdownState handles the shutdown screen countdown.
func (c *Client) updateShutdownState() {
	c.state.shutdownTimer -= c.state.delta.Seconds()
	if c.state.shutdownTimer <= 0 || containsRune(c.state.Input.Text, 'q', 'Q') {
		c.state.Running = false
	}
}

func containsRune(rs []rune, want ...rune) bool {
	for _, r := range rs {
		for _, w := range want {
			if r == w {
				return true
			}
		}
	}
	return false
}
