package player

import (
	"context"
	"errors"
)

var (
	ErrAlreadyOpened = errors.New("player session already opened")
	ErrNotOpened     = errors.New("player session not opened")
)

// Open starts the overlay session. The stored volume is read once and
// re-applied to the embedded player after it had time to load. Narrow
// viewports go fullscreen in landscape on a best effort basis.
func (c *Controller) Open(ctx context.Context, viewportWidth int) error {
	c.mu.Lock()
	if c.opened {
		c.mu.Unlock()
		return ErrAlreadyOpened
	}
	c.opened = true
	c.mobile = viewportWidth > 0 && viewportWidth < c.cfg.MobileBreakpoint
	c.ctx, c.cancel = context.WithCancel(context.WithoutCancel(ctx))
	sessionCtx := c.ctx
	c.state = initialState(c.state.VideoID, c.cfg)
	mobile := c.mobile
	c.mu.Unlock()

	stored, found := c.loadVolume(ctx)

	c.mu.Lock()
	if !c.state.Active {
		// closed while the volume was loading
		c.mu.Unlock()
		return nil
	}
	if found {
		c.state.VolumeLevel = stored
		c.state.IsMuted = stored == 0
		c.tasks.After(c.cfg.VolumeRestoreDelay, c.restoreVolume)
	}
	videoID := c.state.VideoID
	c.tasks.After(c.cfg.LoadingDuration, c.finishLoading)
	c.hideTask.Schedule(c.cfg.HideControlsDelay)
	if mobile {
		c.tasks.After(c.cfg.FullscreenDelay, func() {
			c.enterMobilePresentation(sessionCtx)
		})
	}

	c.commit(ctx)

	c.logger.InfoContext(ctx, "player session opened",
		"video_id", videoID, "mobile", mobile, "stored_volume", found)

	return nil
}

func (c *Controller) loadVolume(ctx context.Context) (int, bool) {
	if c.volumes == nil {
		return 0, false
	}

	v, found, err := c.volumes.LoadVolume(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to load stored volume", "error", err)
		return 0, false
	}
	if !found {
		return 0, false
	}

	return clampVolume(v), true
}

func (c *Controller) restoreVolume() {
	c.mu.Lock()
	if !c.state.Active {
		c.mu.Unlock()
		return
	}

	cmds := []Command{NewCommand(FuncSetVolume, c.state.VolumeLevel)}
	if c.state.IsMuted {
		cmds = append(cmds, NewCommand(FuncMute))
	}

	c.commit(c.ctx, cmds...)
}

func (c *Controller) finishLoading() {
	c.mu.Lock()
	if !c.state.Active || !c.state.IsLoading {
		c.mu.Unlock()
		return
	}

	c.state.IsLoading = false
	c.commit(c.ctx)
}

func (c *Controller) enterMobilePresentation(ctx context.Context) {
	if err := c.tryCapability(ctx, CapabilityRequestFullscreen); err == nil {
		c.mu.Lock()
		if !c.state.Active {
			c.mu.Unlock()
			return
		}
		c.state.IsFullscreen = true
		c.commit(ctx)
	}

	if ctx.Err() != nil {
		return
	}
	_ = c.tryCapability(ctx, CapabilityLockOrientation)
}

// Close ends the overlay session: timers stop, subscribers receive the final
// snapshot and are dropped, and fullscreen and orientation are released.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	if !c.opened {
		c.mu.Unlock()
		return ErrNotOpened
	}
	if !c.state.Active {
		c.mu.Unlock()
		return nil
	}

	c.state.Active = false
	c.tasks.Close()
	c.cancel()
	wasFullscreen := c.state.IsFullscreen
	mobile := c.mobile
	c.state.IsFullscreen = false
	c.state.ControlsVisible = false
	c.state.QualityMenuOpen = false
	c.state.BigIconVisible = false
	c.state.IsLoading = false

	videoID := c.state.VideoID
	listeners := c.listeners
	c.listeners = nil
	c.publish(ctx, listeners, nil)

	if wasFullscreen {
		_ = c.tryCapability(ctx, CapabilityExitFullscreen)
	}
	if mobile {
		_ = c.tryCapability(ctx, CapabilityUnlockOrientation)
	}

	c.logger.InfoContext(ctx, "player session closed", "video_id", videoID)

	return nil
}
