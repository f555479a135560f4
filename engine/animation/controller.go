package animation

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-scrub/common"
)

// State is the lifecycle state of a Controller.
type State int

const (
	StateUnloaded State = iota
	StateReady
	StateDisposed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateReady:
		return "ready"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// controller is the implementation of the Controller interface.
type controller struct {
	logger *slog.Logger

	state    State
	clip     *Clip
	position float32
	time     float32
}

// Controller maps a normalized position onto the playback time of a single
// clip. Time never advances on its own: the pose is a pure function of the
// last position set.
//
// A Controller is owned by the main loop and is not safe for concurrent use.
type Controller interface {
	// Bind binds the first clip of clips and moves the controller to StateReady.
	// Only the first successful call has an effect.
	//
	// Parameters:
	//   - clips: the clips decoded with the asset, may be empty
	//
	// Returns:
	//   - bool: true if this call bound a clip
	Bind(clips []*Clip) bool

	// SetPosition sets playback time to fraction × duration and applies the pose.
	// The fraction is clamped to [0,1]; NaN is treated as 0. No-op unless Ready.
	//
	// Parameters:
	//   - fraction: the scroll fraction
	SetPosition(fraction float32)

	// Update re-applies the pose at the current time without advancing it.
	Update()

	// Position returns the last clamped fraction.
	Position() float32

	// Time returns the current playback time in seconds.
	Time() float32

	// State returns the lifecycle state.
	State() State

	// Clip returns the bound clip, or nil.
	Clip() *Clip

	// Dispose releases the clip. Every later call is a no-op.
	Dispose()
}

var _ Controller = &controller{}

// NewController creates a controller in StateUnloaded.
//
// Parameters:
//   - options: optional builder options
//
// Returns:
//   - Controller: the controller
func NewController(options ...ControllerBuilderOption) Controller {
	c := &controller{
		logger: slog.Default(),
		state:  StateUnloaded,
	}
	for _, opt := range options {
		opt(c)
	}
	c.logger = c.logger.With("component", "animation")
	return c
}

func (c *controller) Bind(clips []*Clip) bool {
	if c.state != StateUnloaded {
		return false
	}
	if len(clips) == 0 || clips[0] == nil {
		c.logger.Debug("asset has no animation clips")
		return false
	}
	if len(clips) > 1 {
		c.logger.Debug("ignoring additional clips", "bound", clips[0].Name, "ignored", len(clips)-1)
	}

	c.clip = clips[0]
	c.state = StateReady
	c.position, c.time = 0, 0
	c.clip.Apply(0)
	c.logger.Info("clip bound", "name", c.clip.Name, "duration", c.clip.Duration, "channels", len(c.clip.Channels))
	return true
}

func (c *controller) SetPosition(fraction float32) {
	if c.state != StateReady {
		return
	}
	c.position = common.Clamp01(fraction)
	c.time = c.position * c.clip.Duration
	c.clip.Apply(c.time)
}

func (c *controller) Update() {
	if c.state != StateReady {
		return
	}
	c.clip.Apply(c.time)
}

func (c *controller) Position() float32 {
	return c.position
}

func (c *controller) Time() float32 {
	return c.time
}

func (c *controller) State() State {
	return c.state
}

func (c *controller) Clip() *Clip {
	return c.clip
}

func (c *controller) Dispose() {
	if c.state == StateDisposed {
		return
	}
	c.state = StateDisposed
	c.clip = nil
}
