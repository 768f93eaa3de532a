package player

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bookmyseva/darshan/pkg/schedule"
	"github.com/jonboulle/clockwork"
)

type Config struct {
	HideControlsDelay     time.Duration
	PointerLeaveHideDelay time.Duration
	BigIconDuration       time.Duration
	LoadingDuration       time.Duration
	VolumeRestoreDelay    time.Duration
	FullscreenDelay       time.Duration
	MobileBreakpoint      int
	DefaultVolume         int
	KeyVolumeStep         int
}

func DefaultConfig() Config {
	return Config{
		HideControlsDelay:     3 * time.Second,
		PointerLeaveHideDelay: time.Second,
		BigIconDuration:       800 * time.Millisecond,
		LoadingDuration:       2 * time.Second,
		VolumeRestoreDelay:    500 * time.Millisecond,
		FullscreenDelay:       150 * time.Millisecond,
		MobileBreakpoint:      768,
		DefaultVolume:         100,
		KeyVolumeStep:         5,
	}
}

func (cfg Config) withDefaults() Config {
	d := DefaultConfig()
	if cfg.HideControlsDelay <= 0 {
		cfg.HideControlsDelay = d.HideControlsDelay
	}
	if cfg.PointerLeaveHideDelay <= 0 {
		cfg.PointerLeaveHideDelay = d.PointerLeaveHideDelay
	}
	if cfg.BigIconDuration <= 0 {
		cfg.BigIconDuration = d.BigIconDuration
	}
	if cfg.LoadingDuration <= 0 {
		cfg.LoadingDuration = d.LoadingDuration
	}
	if cfg.VolumeRestoreDelay <= 0 {
		cfg.VolumeRestoreDelay = d.VolumeRestoreDelay
	}
	if cfg.FullscreenDelay <= 0 {
		cfg.FullscreenDelay = d.FullscreenDelay
	}
	if cfg.MobileBreakpoint <= 0 {
		cfg.MobileBreakpoint = d.MobileBreakpoint
	}
	if cfg.DefaultVolume <= 0 || cfg.DefaultVolume > 100 {
		cfg.DefaultVolume = d.DefaultVolume
	}
	if cfg.KeyVolumeStep <= 0 {
		cfg.KeyVolumeStep = d.KeyVolumeStep
	}
	return cfg
}

// VolumeStore persists the viewer's last volume level across overlay sessions.
type VolumeStore interface {
	LoadVolume(ctx context.Context) (int, bool, error)
	SaveVolume(ctx context.Context, volume int) error
}

type Params struct {
	VideoID string
	Emitter Emitter
	Screen  Screen
	Volumes VolumeStore
	Clock   clockwork.Clock
	Logger  *slog.Logger
	Config  Config
}

// Controller keeps the overlay's control state in sync with the embedded
// player. A Controller serves a single overlay session: Open it once, Close
// it once.
type Controller struct {
	emitter Emitter
	screen  Screen
	volumes VolumeStore
	logger  *slog.Logger
	cfg     Config

	mu             sync.Mutex
	emitMu         sync.Mutex
	state          State
	opened         bool
	mobile         bool
	ctx            context.Context
	cancel         context.CancelFunc
	listeners      map[uint64]func(State)
	nextListenerID uint64

	tasks       *schedule.Group
	hideTask    *schedule.Task
	bigIconTask *schedule.Task
}

func NewController(params *Params) *Controller {
	clock := params.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := params.Config.withDefaults()

	c := &Controller{
		emitter:   params.Emitter,
		screen:    params.Screen,
		volumes:   params.Volumes,
		logger:    logger,
		cfg:       cfg,
		ctx:       context.Background(),
		cancel:    func() {},
		listeners: make(map[uint64]func(State)),
		tasks:     schedule.NewGroup(clock),
		state:     initialState(params.VideoID, cfg),
	}
	c.state.Active = false
	c.hideTask = c.tasks.NewTask(c.hideControls)
	c.bigIconTask = c.tasks.NewTask(c.hideBigIcon)

	return c
}

func initialState(videoID string, cfg Config) State {
	return State{
		VideoID:         videoID,
		Active:          true,
		IsPlaying:       true,
		VolumeLevel:     cfg.DefaultVolume,
		PreviousVolume:  cfg.DefaultVolume,
		Quality:         QualityAuto,
		ControlsVisible: true,
		IsLoading:       true,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Subscribe registers fn to receive a snapshot after every state change. The
// returned function removes the subscription. All subscriptions end on Close.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.listeners == nil {
		return func() {}
	}
	id := c.nextListenerID
	c.nextListenerID++
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// acceptsIntentLocked reports whether a control intent may change the state.
// Locked controls only accept the unlock toggle.
func (c *Controller) acceptsIntentLocked() bool {
	return c.state.Active && !c.state.ControlsLocked
}

// commit bumps the version, releases mu, delivers cmds in order and notifies
// subscribers. It must be called with mu held.
func (c *Controller) commit(ctx context.Context, cmds ...Command) {
	c.publish(ctx, c.listeners, cmds)
}

// publish is commit with an explicit set of subscribers to notify.
func (c *Controller) publish(ctx context.Context, subscribers map[uint64]func(State), cmds []Command) {
	c.state.Version++
	snapshot := c.state
	listeners := make([]func(State), 0, len(subscribers))
	for _, fn := range subscribers {
		listeners = append(listeners, fn)
	}

	c.emitMu.Lock()
	c.mu.Unlock()
	for _, cmd := range cmds {
		c.emit(ctx, cmd)
	}
	c.emitMu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

func (c *Controller) emit(ctx context.Context, cmd Command) {
	if c.emitter == nil {
		return
	}
	if err := c.emitter.Emit(ctx, cmd); err != nil {
		c.logger.DebugContext(ctx, "command not delivered", "func", cmd.Func, "error", err)
	}
}

func (c *Controller) sessionCtx() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ctx
}
