package client

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/tomz197/clicktest/internal/loop"
	"github.com/tomz197/clicktest/internal/loop/config"
	"github.com/tomz197/clicktest/internal/object"
)

// styles are bound to the connection's writer so every SSH session renders
// with its own profile.
type styles struct {
	card   lipgloss.Style
	title  lipgloss.Style
	text   lipgloss.Style
	dim    lipgloss.Style
	errMsg lipgloss.Style
	pass   lipgloss.Style
	fail   lipgloss.Style
	field  lipgloss.Style
	focus  lipgloss.Style
	blue   lipgloss.Style
	orange lipgloss.Style
	heart  lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.ANSI256)

	return styles{
		card: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(1, 3),
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		text:   r.NewStyle().Foreground(lipgloss.Color("252")),
		dim:    r.NewStyle().Foreground(lipgloss.Color("245")),
		errMsg: r.NewStyle().Foreground(lipgloss.Color("196")),
		pass:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("40")),
		fail:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		field:  r.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")),
		focus:  r.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("25")),
		blue:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("33")),
		orange: r.NewStyle().Bold(true).Foreground(lipgloss.Color("208")),
		heart:  r.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// drawFrame draws the current frame.
func (c *Client) drawFrame() error {
	// On screen transitions, do a full terminal clear so UI elements from the
	// previous screen don't persist.
	key := c.currentScreen()
	if key != c.state.prevScreen || c.state.firstFrame {
		c.chunkWriter.WriteString("\033[H\033[2J")
		c.canvas.ForceRedraw()
		c.state.prevScreen = key
		c.state.firstFrame = false
	}

	c.canvas.Clear()

	ctx := object.DrawContext{
		Canvas: c.canvas,
		Writer: c.chunkWriter,
	}

	s := c.session
	if s.Phase == loop.PhasePlaying && s.Round != nil && s.Round.Active() {
		if err := s.Round.Ball.Draw(ctx); err != nil {
			return err
		}
	}

	// Pixel effects go onto the canvas before it is rendered, text effects after.
	var overlays []object.Object
	for _, obj := range c.state.Effects {
		if _, isText := obj.(*object.Label); isText {
			overlays = append(overlays, obj)
			continue
		}
		if err := obj.Draw(ctx); err != nil {
			return err
		}
	}

	// Render canvas to terminal
	c.canvas.Render(c.chunkWriter)

	// Draw border when terminal exceeds max render resolution
	c.canvas.RenderBorder(c.chunkWriter)

	for _, obj := range overlays {
		if err := obj.Draw(ctx); err != nil {
			return err
		}
	}

	// Draw UI overlay
	c.drawUI()

	return c.chunkWriter.Flush()
}

func (c *Client) currentScreen() screenKey {
	key := screenKey{
		phase:    c.session.Phase,
		shutdown: c.state.shutdown,
		inactive: c.state.isInactive,
	}
	if c.session.Round != nil {
		key.round = c.session.Round.Phase
	}
	return key
}

// drawUI draws the game UI overlay.
func (c *Client) drawUI() {
	if c.state.shutdown {
		c.drawShutdownScreen()
		return
	}

	if c.state.isInactive {
		c.drawInactivityScreen()
		return
	}

	s := c.session
	switch s.Phase {
	case loop.PhaseIdentify:
		c.drawIdentifyScreen()
	case loop.PhaseInstructions:
		c.drawInstructionsScreen()
	case loop.PhasePlaying:
		c.drawPlayingHUD()
		switch s.Round.Phase {
		case loop.RoundRules:
			c.drawRulesScreen()
		case loop.RoundSuccess, loop.RoundTimeout:
			c.drawLevelCompleteScreen()
		}
	case loop.PhaseResults:
		c.drawResultsScreen()
	}
}

// writeText writes a line at a canvas position and marks the cells dirty so
// the canvas erases it once it is gone.
func (c *Client) writeText(col, row int, s string) {
	if row < 1 || row > c.canvas.TerminalHeight() {
		return
	}
	if col < 1 {
		col = 1
	}
	c.chunkWriter.WriteAt(col, row, s)
	c.canvas.MarkTextDirty(col, row, lipgloss.Width(s))
}

// drawCard renders body inside the card style centered on the canvas.
func (c *Client) drawCard(body string) {
	block := c.styles.card.Render(body)
	lines := strings.Split(block, "\n")
	width := lipgloss.Width(block)

	col := (c.canvas.TerminalWidth()-width)/2 + 1
	row := (c.canvas.TerminalHeight()-len(lines))/2 + 1
	for i, line := range lines {
		c.writeText(col, row+i, line)
	}
}

// drawIdentifyScreen draws the name and id form.
func (c *Client) drawIdentifyScreen() {
	st := c.styles
	f := &c.state.Form

	field := func(i int) string {
		value := string(f.fields[i])
		style := st.field
		if f.focus == i {
			style = st.focus
			if time.Now().UnixMilli()/500%2 == 0 {
				value += "_"
			}
		}
		return style.Width(maxFieldLength + 1).Render(value)
	}

	lines := []string{
		st.title.Render("Mouse Accuracy Test"),
		"",
		st.text.Render("First name  ") + field(0),
		st.text.Render("PS number   ") + field(1),
		"",
	}
	if f.err != "" {
		lines = append(lines, st.errMsg.Render(f.err))
	} else {
		lines = append(lines, "")
	}
	lines = append(lines, st.dim.Render("Tab switch field   Enter continue   Ctrl-C quit"))
	c.drawCard(strings.Join(lines, "\n"))
}

// drawInstructionsScreen draws the rules before level 1.
func (c *Client) drawInstructionsScreen() {
	st := c.styles
	lines := []string{
		st.title.Render(fmt.Sprintf("Welcome, %s!", c.session.Player.FirstName)),
		"",
		st.text.Render("Click the moving ball as fast as you can."),
		st.text.Render(fmt.Sprintf("- Each level lasts %d seconds, faster clicks earn more points", int(config.LevelTime/time.Second))),
		st.text.Render(fmt.Sprintf("- There are %d levels, the ball gets smaller and faster", config.MaxLevel)),
		st.text.Render(fmt.Sprintf("- You have %d lives, a wrong click costs one", config.InitialLives)),
		"",
		st.title.Render(fmt.Sprintf("From level %d:", config.RulesLevel)),
		st.blue.Render("●") + st.text.Render(" blue   = left click"),
		st.orange.Render("●") + st.text.Render(" orange = right click"),
		"",
		st.text.Render(fmt.Sprintf("You pass with %d%% (%d of %d points).",
			config.PassPercentage, config.MaxScore*config.PassPercentage/100, config.MaxScore)),
		"",
	}
	if time.Now().UnixMilli()/600%2 == 0 {
		lines = append(lines, st.title.Render(">>  Press ENTER to start level 1  <<"))
	} else {
		lines = append(lines, "")
	}
	c.drawCard(strings.Join(lines, "\n"))
}

// drawRulesScreen draws the color rule interstitial.
func (c *Client) drawRulesScreen() {
	st := c.styles
	lines := []string{
		st.title.Render(fmt.Sprintf("Level %d reached!", c.session.Level)),
		"",
		st.text.Render("Extra rule from now on:"),
		st.blue.Render("●") + st.text.Render(" blue   = left click"),
		st.orange.Render("●") + st.text.Render(" orange = right click"),
		"",
		st.text.Render("The wrong button costs a life."),
		"",
		st.title.Render(fmt.Sprintf("Enter: got it, start level %d", c.session.Level)),
	}
	c.drawCard(strings.Join(lines, "\n"))
}

// drawLevelCompleteScreen draws the card between levels.
func (c *Client) drawLevelCompleteScreen() {
	st := c.styles
	s := c.session
	r := s.Round

	title := fmt.Sprintf("Level %d complete!", s.Level)
	if r.Phase == loop.RoundTimeout {
		title = fmt.Sprintf("Time's up on level %d", s.Level)
	}
	unit := "points"
	if r.Points == 1 {
		unit = "point"
	}
	next := "Enter: next level"
	if s.Level >= config.MaxLevel {
		next = "Enter: show result"
	}

	lines := []string{
		st.title.Render(title),
		"",
		st.blue.Render(fmt.Sprintf("%d %s", r.Points, unit)),
		"",
		st.dim.Render(next),
	}
	c.drawCard(strings.Join(lines, "\n"))
}

// drawPlayingHUD draws the in-game HUD.
// Text fields use fixed-width formatting so shrinking values don't leave
// residual characters on screen (since we don't clear every frame).
func (c *Client) drawPlayingHUD() {
	st := c.styles
	s := c.session
	termWidth := c.canvas.TerminalWidth()
	termHeight := c.canvas.TerminalHeight()

	// Level (top left)
	c.writeText(2, 1, st.title.Render(fmt.Sprintf("Level %2d / %d", s.Level, config.MaxLevel)))

	// Lives (top center)
	hearts := st.heart.Render(strings.Repeat("♥", s.Lives)) + st.dim.Render(strings.Repeat("♡", config.InitialLives-s.Lives))
	c.writeText(termWidth/2-config.InitialLives/2, 1, hearts)

	// Time left (top right)
	remaining := config.LevelTime
	if s.Round != nil {
		remaining = s.Round.Remaining
	}
	timeText := fmt.Sprintf("Time: %4.1fs", remaining.Seconds())
	c.writeText(termWidth-len(timeText)-1, 1, st.title.Render(timeText))

	// Score and players (bottom)
	c.writeText(2, termHeight, st.dim.Render(fmt.Sprintf("Score: %-4d", s.Score)))
	snap := c.server.GetSnapshot()
	players := fmt.Sprintf("Players: %-4d", snap.Players)
	c.writeText(termWidth-len(players)-1, termHeight, st.dim.Render(players))

	// Button legend once the color rule applies
	if s.Level >= config.RulesLevel {
		legend := st.blue.Render("● left") + "   " + st.orange.Render("● right")
		c.writeText(termWidth/2-lipgloss.Width(legend)/2, termHeight, legend)
	}
}

// drawResultsScreen draws the final result and leaderboard.
func (c *Client) drawResultsScreen() {
	st := c.styles
	res := c.session.Result
	if res == nil {
		return
	}

	verdict := st.pass.Render("PASSED")
	if !res.Passed {
		verdict = st.fail.Render("NOT PASSED")
	}

	lines := []string{
		st.title.Render("Result"),
		"",
		st.text.Render(fmt.Sprintf("Name        %s", res.Player.FirstName)),
		st.text.Render(fmt.Sprintf("PS number   %s", res.Player.IDNumber)),
		st.text.Render(fmt.Sprintf("Score       %d / %d", res.TotalScore, config.MaxScore)),
		st.text.Render(fmt.Sprintf("Percentage  %s%%", res.Percentage.StringFixed(2))),
		st.text.Render(fmt.Sprintf("Play time   %s", formatSeconds(res.PlayTimeSeconds))),
		st.text.Render(fmt.Sprintf("Completed   %s", res.CompletedAt.Local().Format("2006-01-02 15:04:05"))),
		"",
		verdict,
	}

	if top := c.server.GetSnapshot().TopScores; len(top) > 0 {
		lines = append(lines, "", st.title.Render("Best results"))
		for i, e := range top {
			lines = append(lines, st.dim.Render(fmt.Sprintf("%d. %-16s %3d", i+1, truncate(e.FirstName, 16), e.Score)))
		}
	}

	lines = append(lines, "")
	if c.state.Notice != "" {
		lines = append(lines, st.errMsg.Render(c.state.Notice))
	}
	hint := "n: new person   Ctrl-C: quit"
	if !res.Passed {
		hint = "r: try again   " + hint
	}
	lines = append(lines, st.dim.Render(hint))
	c.drawCard(strings.Join(lines, "\n"))
}

// drawInactivityScreen draws the inactivity warning screen.
func (c *Client) drawInactivityScreen() {
	st := c.styles
	left := int(config.InactivityDisconnectUser - time.Since(c.lastInput).Seconds())
	lines := []string{
		st.title.Render("INACTIVITY WARNING"),
		"",
		st.text.Render(fmt.Sprintf("You have been inactive for too long. You will be disconnected in %d seconds.", left)),
		"",
		st.dim.Render("Press any key to continue"),
	}
	c.drawCard(strings.Join(lines, "\n"))
}

// drawShutdownScreen draws the server shutdown notification screen.
func (c *Client) drawShutdownScreen() {
	st := c.styles
	lines := []string{
		st.title.Render("SERVER SHUTTING DOWN"),
		"",
		st.text.Render("The server is restarting for maintenance."),
		st.text.Render("Finished results have been saved. Please reconnect in a moment."),
		"",
		st.text.Render(fmt.Sprintf("Disconnecting in %d seconds...", int(c.state.shutdownTimer)+1)),
		"",
		st.dim.Render("Press Q to disconnect now"),
	}
	c.drawCard(strings.Join(lines, "\n"))
}

func formatSeconds(secs int) string {
	return (time.Duration(secs) * time.Second).String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
