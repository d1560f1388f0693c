// Package config centralizes all tunable game parameters.
package config

import "time"

// Arena dimensions in logical units. Ball coordinates live in this space;
// renderers scale it to whatever surface they draw on.
const (
	ArenaWidth  = 800
	ArenaHeight = 500
)

// Levels
const (
	MaxLevel   = 20
	RulesLevel = 5 // First level that enforces the two-button color rule
)

// Ball progression
const (
	BaseRadius   = 50.0
	MinRadius    = 15.0
	RadiusStep   = 2.0 // Radius lost per level
	BaseSpeed    = 2.0 // Units per frame
	SpeedStep    = 0.3 // Speed gained per level
	SpawnPadding = 20.0
)

// Timing
const (
	LevelTime = 10 * time.Second
	TimerStep = 100 * time.Millisecond // Countdown granularity
)

// Scoring
const (
	PointsPerLevel = 10
	MaxScore       = PointsPerLevel * MaxLevel
	PassPercentage = 55
)

// Player
const (
	InitialLives = 5
)

// Inactivity
const (
	InactivityWarnUser       = 240 // Seconds
	InactivityDisconnectUser = 300 // Seconds
)

// Shutdown
const (
	ShutdownDisplaySeconds = 10.0 // Seconds to show shutdown message before auto-disconnect
)

// Client rendering
const (
	ClientTargetFPS       = 60
	ClientTargetFrameTime = time.Second / ClientTargetFPS

	// Render area is clamped so huge terminals keep a sane aspect.
	MaxTermWidth  = 160
	MaxTermHeight = 50

	PointsLabelSeconds = 1.0 // How long the "+n" label floats after a hit
)

// Server
const (
	ServerTickTime = 100 * time.Millisecond // Registration and snapshot cadence
	TopScoresCount = 5                      // Leaderboard entries kept
)

// Web transport
const (
	WebStateRate = 30 // Snapshots per second pushed to browsers

	// Frames of ball history kept so a click is judged against the ball the
	// player was looking at, not the one the server has moved on to.
	BallHistoryFrames = 30
)
