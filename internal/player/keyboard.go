package player

import (
	"context"
	"strings"
)

// HandleKey applies a keyboard shortcut. It reports whether the key asks to
// close the overlay; closing is left to the caller.
func (c *Controller) HandleKey(ctx context.Context, key string) (closeRequested bool) {
	switch strings.ToLower(key) {
	case "escape", "esc":
		return true
	case " ", "space", "spacebar", "k":
		c.TogglePlayPause(ctx)
	case "f":
		c.ToggleFullscreen(ctx)
	case "m":
		c.ToggleMute(ctx)
	case "arrowup", "up":
		c.stepVolume(ctx, c.cfg.KeyVolumeStep)
	case "arrowdown", "down":
		c.stepVolume(ctx, -c.cfg.KeyVolumeStep)
	}

	return false
}

func (c *Controller) stepVolume(ctx context.Context, delta int) {
	c.mu.Lock()
	level := c.state.VolumeLevel
	c.mu.Unlock()

	c.UpdateVolume(ctx, level+delta)
}
