package player

import (
	"context"
	"errors"
)

const commandEvent = "command"

// Function names of the embedded player's command protocol.
const (
	FuncPlayVideo          = "playVideo"
	FuncPauseVideo         = "pauseVideo"
	FuncMute               = "mute"
	FuncUnMute             = "unMute"
	FuncSetVolume          = "setVolume"
	FuncSetPlaybackQuality = "setPlaybackQuality"
)

// ErrEmitterClosed is returned by emitters whose channel to the embedded
// player is gone for good. Retrying such an error is pointless.
var ErrEmitterClosed = errors.New("emitter closed")

// Command is the message posted to the embedded player's content window.
type Command struct {
	Event string `json:"event"`
	Func  string `json:"func"`
	Args  []any  `json:"args,omitempty"`
}

func NewCommand(fn string, args ...any) Command {
	return Command{
		Event: commandEvent,
		Func:  fn,
		Args:  args,
	}
}

// Emitter delivers commands to the embedded player. Delivery is one way: no
// acknowledgement is expected.
type Emitter interface {
	Emit(ctx context.Context, cmd Command) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, cmd Command) error

func (f EmitterFunc) Emit(ctx context.Context, cmd Command) error {
	return f(ctx, cmd)
}
