package player

import (
	"context"
	"errors"
	"fmt"
)

type Capability string

const (
	CapabilityRequestFullscreen Capability = "request_fullscreen"
	CapabilityExitFullscreen    Capability = "exit_fullscreen"
	CapabilityLockOrientation   Capability = "lock_orientation"
	CapabilityUnlockOrientation Capability = "unlock_orientation"
)

type Orientation string

const (
	OrientationLandscape Orientation = "landscape"
	OrientationPortrait  Orientation = "portrait"
)

var ErrCapabilityUnavailable = errors.New("capability unavailable")

// CapabilityError reports that the browser refused or does not support a
// presentation capability. It matches ErrCapabilityUnavailable.
type CapabilityError struct {
	Capability Capability
	Reason     string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s: %s", e.Capability, e.Reason)
}

func (e *CapabilityError) Unwrap() error {
	return ErrCapabilityUnavailable
}

// Screen exposes the browser's Fullscreen and Screen Orientation APIs for the
// player container.
type Screen interface {
	RequestFullscreen(ctx context.Context) error
	ExitFullscreen(ctx context.Context) error
	LockOrientation(ctx context.Context, orientation Orientation) error
	UnlockOrientation(ctx context.Context) error
}

// tryCapability performs a presentation call and logs a failure. The error is
// returned only so that callers can decide whether to update local state;
// it never alters playback.
func (c *Controller) tryCapability(ctx context.Context, capability Capability) error {
	var err error
	if c.screen == nil {
		err = &CapabilityError{Capability: capability, Reason: "no screen attached"}
	} else {
		switch capability {
		case CapabilityRequestFullscreen:
			err = c.screen.RequestFullscreen(ctx)
		case CapabilityExitFullscreen:
			err = c.screen.ExitFullscreen(ctx)
		case CapabilityLockOrientation:
			err = c.screen.LockOrientation(ctx, OrientationLandscape)
		case CapabilityUnlockOrientation:
			err = c.screen.UnlockOrientation(ctx)
		default:
			err = &CapabilityError{Capability: capability, Reason: "unknown capability"}
		}
	}

	if err != nil {
		c.logger.WarnContext(ctx, "presentation capability failed", "capability", capability, "error", err)
	}

	return err
}
