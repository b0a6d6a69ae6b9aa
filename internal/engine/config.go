package engine

import "time"

// Config holds phase durations and engine settings. All durations are in
// whole seconds because the shared document carries an integer countdown.
type Config struct {
	PreGameSec       int           `yaml:"pre_game_sec"`
	TurnCountdownSec int           `yaml:"turn_countdown_sec"`
	AudioSec         int           `yaml:"audio_sec"`
	GuessingSec      int           `yaml:"guessing_sec"`
	VotingSec        int           `yaml:"voting_sec"`
	TickInterval     time.Duration `yaml:"tick_interval"`

	// TargetScore ends the game once a player reaches it at turn
	// resolution. Zero means the game only ends on an explicit EndGame.
	TargetScore int `yaml:"target_score"`
}

func DefaultConfig() Config {
	return Config{
		PreGameSec:       5,
		TurnCountdownSec: 3,
		AudioSec:         30,
		GuessingSec:      30,
		VotingSec:        30,
		TickInterval:     time.Second,
		TargetScore:      10,
	}
}

// Normalize fills zero-valued fields with defaults. TargetScore is left
// alone: zero is a valid setting (manual end only).
func (c Config) Normalize() Config {
	def := DefaultConfig()
	if c.PreGameSec <= 0 {
		c.PreGameSec = def.PreGameSec
	}
	if c.TurnCountdownSec <= 0 {
		c.TurnCountdownSec = def.TurnCountdownSec
	}
	if c.AudioSec <= 0 {
		c.AudioSec = def.AudioSec
	}
	if c.GuessingSec <= 0 {
		c.GuessingSec = def.GuessingSec
	}
	if c.VotingSec <= 0 {
		c.VotingSec = def.VotingSec
	}
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	return c
}
