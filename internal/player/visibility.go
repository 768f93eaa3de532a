package player

import "context"

// Activity records pointer movement or a touch over the player. Unlocked
// controls become visible and the hide timer restarts.
func (c *Controller) Activity(ctx context.Context) {
	c.mu.Lock()
	if !c.acceptsIntentLocked() {
		c.mu.Unlock()
		return
	}

	c.hideTask.Schedule(c.cfg.HideControlsDelay)
	if c.state.ControlsVisible {
		c.mu.Unlock()
		return
	}

	c.state.ControlsVisible = true
	c.commit(ctx)
}

// PointerLeave hides unlocked controls shortly after the pointer leaves the
// player.
func (c *Controller) PointerLeave(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.acceptsIntentLocked() {
		return
	}
	c.hideTask.Schedule(c.cfg.PointerLeaveHideDelay)
}

// ToggleLock pins the controls on screen or releases them. Locked controls
// never hide; after unlocking the hide timer waits for the next activity.
func (c *Controller) ToggleLock(ctx context.Context) {
	c.mu.Lock()
	if !c.state.Active {
		c.mu.Unlock()
		return
	}

	c.state.ControlsLocked = !c.state.ControlsLocked
	if c.state.ControlsLocked {
		c.state.ControlsVisible = true
		c.hideTask.Cancel()
	}

	c.commit(ctx)
}

func (c *Controller) hideControls() {
	c.mu.Lock()
	if !c.state.Active || c.state.ControlsLocked || !c.state.ControlsVisible {
		c.mu.Unlock()
		return
	}

	c.state.ControlsVisible = false
	c.state.QualityMenuOpen = false
	c.commit(c.ctx)
}
