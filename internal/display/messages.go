package display

import "github.com/bookmyseva/darshan/internal/player"

// Server to page.
const (
	TypeSessionOpened      = "SESSION_OPENED"
	TypePlayerCommand      = "PLAYER_COMMAND"
	TypeCapabilityRequest  = "CAPABILITY_REQUEST"
	TypePlayerStateUpdated = "PLAYER_STATE_UPDATED"
	TypeSessionClosed      = "SESSION_CLOSED"
	TypeError              = "ERROR"
)

// Page to server.
const (
	TypeTogglePlayPause    = "TOGGLE_PLAY_PAUSE"
	TypeToggleMute         = "TOGGLE_MUTE"
	TypeUpdateVolume       = "UPDATE_VOLUME"
	TypeSetQuality         = "SET_QUALITY"
	TypeToggleQualityMenu  = "TOGGLE_QUALITY_MENU"
	TypeToggleFullscreen   = "TOGGLE_FULLSCREEN"
	TypeFullscreenChanged  = "FULLSCREEN_CHANGED"
	TypePointerActivity    = "POINTER_ACTIVITY"
	TypePointerLeave       = "POINTER_LEAVE"
	TypeToggleControlsLock = "TOGGLE_CONTROLS_LOCK"
	TypeKeyPressed         = "KEY_PRESSED"
	TypeClose              = "CLOSE"
	TypeAlive              = "ALIVE"
	TypeCapabilityResult   = "CAPABILITY_RESULT"
)

type CapabilityRequest struct {
	ID         string            `json:"id"`
	Capability player.Capability `json:"capability"`
	Args       map[string]string `json:"args,omitempty"`
}

type CapabilityResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Errors  any    `json:"errors,omitempty"`
}
