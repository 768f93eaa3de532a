package display

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bookmyseva/darshan/internal/player"
	"github.com/bookmyseva/darshan/pkg/wsrouter"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

const (
	defaultCapabilityTimeout = 3 * time.Second
	writeWait                = 5 * time.Second
	inboxSize                = 256
)

var ErrLinkClosed = fmt.Errorf("display link closed: %w", player.ErrEmitterClosed)

type Params struct {
	Conn              *websocket.Conn
	Logger            *slog.Logger
	Clock             clockwork.Clock
	CapabilityTimeout time.Duration
}

// Link is the websocket to the page hosting the embedded player. It carries
// player commands and capability requests to the page and page intents back
// to a router.
type Link struct {
	conn              *websocket.Conn
	logger            *slog.Logger
	clock             clockwork.Clock
	capabilityTimeout time.Duration

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan CapabilityResult
	closed  bool

	done      chan struct{}
	closeOnce sync.Once
}

func NewLink(params *Params) *Link {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := params.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	timeout := params.CapabilityTimeout
	if timeout <= 0 {
		timeout = defaultCapabilityTimeout
	}

	return &Link{
		conn:              params.Conn,
		logger:            logger,
		clock:             clock,
		capabilityTimeout: timeout,
		pending:           make(map[string]chan CapabilityResult),
		done:              make(chan struct{}),
	}
}

// Send writes one envelope to the page.
func (l *Link) Send(ctx context.Context, messageType string, payload any) error {
	if l.isClosed() {
		return ErrLinkClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", messageType, err)
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := l.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}

	if err := l.conn.WriteJSON(wsrouter.Message{Type: messageType, Payload: data}); err != nil {
		if l.isClosed() {
			return ErrLinkClosed
		}
		return fmt.Errorf("write %s: %w", messageType, err)
	}

	return nil
}

func (l *Link) SendError(ctx context.Context, message string, details any) error {
	return l.Send(ctx, TypeError, ErrorPayload{Message: message, Errors: details})
}

// Emit forwards a command to the embedded player through the page.
func (l *Link) Emit(ctx context.Context, cmd player.Command) error {
	return l.Send(ctx, TypePlayerCommand, cmd)
}

func (l *Link) RequestFullscreen(ctx context.Context) error {
	return l.requestCapability(ctx, player.CapabilityRequestFullscreen, nil)
}

func (l *Link) ExitFullscreen(ctx context.Context) error {
	return l.requestCapability(ctx, player.CapabilityExitFullscreen, nil)
}

func (l *Link) LockOrientation(ctx context.Context, orientation player.Orientation) error {
	return l.requestCapability(ctx, player.CapabilityLockOrientation, map[string]string{
		"orientation": string(orientation),
	})
}

func (l *Link) UnlockOrientation(ctx context.Context) error {
	return l.requestCapability(ctx, player.CapabilityUnlockOrientation, nil)
}

func (l *Link) requestCapability(ctx context.Context, capability player.Capability, args map[string]string) error {
	id := uuid.NewString()
	result := make(chan CapabilityResult, 1)

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return &player.CapabilityError{Capability: capability, Reason: "display link closed"}
	}
	l.pending[id] = result
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.pending, id)
		l.mu.Unlock()
	}()

	if err := l.Send(ctx, TypeCapabilityRequest, CapabilityRequest{
		ID:         id,
		Capability: capability,
		Args:       args,
	}); err != nil {
		return &player.CapabilityError{Capability: capability, Reason: err.Error()}
	}

	timer := l.clock.NewTimer(l.capabilityTimeout)
	defer timer.Stop()

	select {
	case res := <-result:
		if !res.OK {
			reason := res.Error
			if reason == "" {
				reason = "rejected by the browser"
			}
			return &player.CapabilityError{Capability: capability, Reason: reason}
		}
		return nil
	case <-timer.Chan():
		return &player.CapabilityError{Capability: capability, Reason: "timed out"}
	case <-ctx.Done():
		return &player.CapabilityError{Capability: capability, Reason: ctx.Err().Error()}
	case <-l.done:
		return &player.CapabilityError{Capability: capability, Reason: "display link closed"}
	}
}

func (l *Link) resolveCapability(raw json.RawMessage) {
	var res CapabilityResult
	if err := json.Unmarshal(raw, &res); err != nil {
		l.logger.Debug("malformed capability result", "error", err)
		return
	}

	l.mu.Lock()
	ch, ok := l.pending[res.ID]
	l.mu.Unlock()

	if !ok {
		l.logger.Debug("capability result without pending request", "id", res.ID)
		return
	}

	select {
	case ch <- res:
	default:
	}
}

// Serve reads page messages until the connection ends. Capability results are
// resolved on the reading goroutine; every other message is dispatched to
// router in arrival order on a separate goroutine, so handlers may wait for
// capability results. A handler error is reported to the page as ERROR.
func (l *Link) Serve(ctx context.Context, router *wsrouter.WSRouter) error {
	inbox := make(chan wsrouter.Message, inboxSize)
	dispatched := make(chan struct{})

	go func() {
		defer close(dispatched)
		for msg := range inbox {
			if err := router.Dispatch(ctx, msg); err != nil {
				l.logger.InfoContext(ctx, "ws handler failed", "type", msg.Type, "error", err)
				_ = l.SendError(ctx, err.Error(), errorDetails(err))
			}
		}
	}()

	err := l.readLoop(ctx, inbox)
	close(inbox)
	<-dispatched
	l.Close()

	if errors.Is(err, ErrLinkClosed) || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return nil
	}
	return err
}

func (l *Link) readLoop(ctx context.Context, inbox chan<- wsrouter.Message) error {
	for {
		var msg wsrouter.Message
		if err := l.conn.ReadJSON(&msg); err != nil {
			if l.isClosed() {
				return ErrLinkClosed
			}
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				_ = l.SendError(ctx, "malformed message", nil)
				continue
			}
			return err
		}

		if msg.Type == TypeCapabilityResult {
			l.resolveCapability(msg.Payload)
			continue
		}

		select {
		case inbox <- msg:
		default:
			l.logger.WarnContext(ctx, "display link inbox full, message dropped", "type", msg.Type)
		}
	}
}

// errorDetails extracts structured details, such as field validation errors,
// from a handler error.
func errorDetails(err error) any {
	var detailed interface{ Details() any }
	if errors.As(err, &detailed) {
		return detailed.Details()
	}
	return nil
}

// Close fails pending capability requests and closes the connection. It is
// safe to call more than once.
func (l *Link) Close() {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()

		close(l.done)

		l.writeMu.Lock()
		_ = l.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		l.writeMu.Unlock()

		l.conn.Close()
	})
}

func (l *Link) Done() <-chan struct{} {
	return l.done
}

func (l *Link) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.closed
}
