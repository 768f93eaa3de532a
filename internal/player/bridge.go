package player

import "context"

// TogglePlayPause flips the local play flag, sends the matching command and
// flashes the big play/pause icon.
func (c *Controller) TogglePlayPause(ctx context.Context) {
	c.mu.Lock()
	if !c.acceptsIntentLocked() {
		c.mu.Unlock()
		return
	}

	fn := FuncPlayVideo
	if c.state.IsPlaying {
		fn = FuncPauseVideo
	}
	c.state.IsPlaying = !c.state.IsPlaying
	c.state.BigIconVisible = true
	c.bigIconTask.Schedule(c.cfg.BigIconDuration)

	c.commit(ctx, NewCommand(fn))
}

func (c *Controller) ToggleMute(ctx context.Context) {
	c.mu.Lock()
	if !c.acceptsIntentLocked() {
		c.mu.Unlock()
		return
	}

	if !c.state.IsMuted {
		c.state.PreviousVolume = c.state.VolumeLevel
		c.state.VolumeLevel = 0
		c.state.IsMuted = true
		c.commit(ctx, NewCommand(FuncMute))
		return
	}

	restored := c.state.PreviousVolume
	if restored <= 0 {
		restored = c.cfg.DefaultVolume
	}
	c.state.IsMuted = false
	c.state.VolumeLevel = restored
	c.commit(ctx, NewCommand(FuncUnMute), NewCommand(FuncSetVolume, restored))

	// only the unmuted level is stored; muting keeps the last audible one
	c.saveVolume(ctx, restored)
}

// UpdateVolume sets the volume to v clamped to [0,100] and persists it. Zero
// mutes, a positive level unmutes.
func (c *Controller) UpdateVolume(ctx context.Context, v int) {
	c.mu.Lock()
	if !c.acceptsIntentLocked() {
		c.mu.Unlock()
		return
	}

	vol, cmds := c.applyVolumeLocked(v)
	c.commit(ctx, cmds...)

	c.saveVolume(ctx, vol)
}

func (c *Controller) saveVolume(ctx context.Context, vol int) {
	if c.volumes == nil {
		return
	}
	if err := c.volumes.SaveVolume(ctx, vol); err != nil {
		c.logger.WarnContext(ctx, "failed to persist volume", "volume", vol, "error", err)
	}
}

func (c *Controller) applyVolumeLocked(v int) (int, []Command) {
	vol := clampVolume(v)
	cmds := make([]Command, 0, 2)

	if c.state.IsMuted && vol > 0 {
		cmds = append(cmds, NewCommand(FuncUnMute))
		c.state.IsMuted = false
	}

	cmds = append(cmds, NewCommand(FuncSetVolume, vol))

	if vol == 0 && !c.state.IsMuted {
		cmds = append(cmds, NewCommand(FuncMute))
		c.state.IsMuted = true
	}

	if vol == 0 && c.state.VolumeLevel > 0 {
		c.state.PreviousVolume = c.state.VolumeLevel
	}
	c.state.VolumeLevel = vol

	return vol, cmds
}

// SetQuality requests a playback quality by its menu label. Unknown labels
// request the player's default quality.
func (c *Controller) SetQuality(ctx context.Context, label string) {
	c.mu.Lock()
	if !c.acceptsIntentLocked() {
		c.mu.Unlock()
		return
	}

	q := ParseQuality(label)
	c.state.Quality = q
	c.state.QualityMenuOpen = false

	c.commit(ctx, NewCommand(FuncSetPlaybackQuality, q.Token()))
}

func (c *Controller) ToggleQualityMenu(ctx context.Context) {
	c.mu.Lock()
	if !c.acceptsIntentLocked() {
		c.mu.Unlock()
		return
	}

	c.state.QualityMenuOpen = !c.state.QualityMenuOpen
	c.commit(ctx)
}

// ToggleFullscreen enters or leaves fullscreen on the player container. The
// local flag follows the outcome of the call; SyncFullscreen corrects drift.
func (c *Controller) ToggleFullscreen(ctx context.Context) {
	c.mu.Lock()
	if !c.acceptsIntentLocked() {
		c.mu.Unlock()
		return
	}
	entering := !c.state.IsFullscreen
	c.mu.Unlock()

	capability := CapabilityExitFullscreen
	if entering {
		capability = CapabilityRequestFullscreen
	}
	if err := c.tryCapability(ctx, capability); err != nil {
		return
	}

	c.mu.Lock()
	if !c.state.Active {
		c.mu.Unlock()
		return
	}
	c.state.IsFullscreen = entering
	c.commit(ctx)
}

// SyncFullscreen applies the browser's fullscreen change event.
func (c *Controller) SyncFullscreen(ctx context.Context, isFullscreen bool) {
	c.mu.Lock()
	if !c.state.Active || c.state.IsFullscreen == isFullscreen {
		c.mu.Unlock()
		return
	}

	c.state.IsFullscreen = isFullscreen
	c.commit(ctx)
}

func (c *Controller) hideBigIcon() {
	c.mu.Lock()
	if !c.state.Active || !c.state.BigIconVisible {
		c.mu.Unlock()
		return
	}

	c.state.BigIconVisible = false
	c.commit(c.ctx)
}
