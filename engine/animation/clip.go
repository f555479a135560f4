package animation

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-scrub/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// Path is the node property a channel writes.
type Path int

const (
	PathTranslation Path = iota
	PathRotation
	PathScale
)

// String returns the glTF name of the path.
func (p Path) String() string {
	switch p {
	case PathTranslation:
		return "translation"
	case PathRotation:
		return "rotation"
	case PathScale:
		return "scale"
	default:
		return "unknown"
	}
}

// Interpolation is the keyframe interpolation mode of a channel.
type Interpolation int

const (
	InterpolationLinear Interpolation = iota
	InterpolationStep
	// InterpolationCubicSpline keyframes carry in-tangent, value and
	// out-tangent triplets. Only the value element is sampled.
	InterpolationCubicSpline
)

// Channel animates one property of one node.
//
// Values holds one element per keyframe (three for cubic spline). Vector paths
// use XYZ; rotations are stored as quaternions in XYZW order.
type Channel struct {
	Target        *scene.Node
	Path          Path
	Interpolation Interpolation
	Times         []float32
	Values        []mgl32.Vec4
}

// Clip is a named set of channels. Clips never loop.
type Clip struct {
	Name     string
	Duration float32
	Channels []Channel
}

// NewClip creates a clip whose duration is the latest keyframe time across all
// channels. Channels without keyframes or a target are dropped.
//
// Parameters:
//   - name: the clip name
//   - channels: the animation channels
//
// Returns:
//   - *Clip: the clip
func NewClip(name string, channels []Channel) *Clip {
	c := &Clip{Name: name}
	for _, ch := range channels {
		if ch.Target == nil || len(ch.Times) == 0 || ch.keyCount() == 0 {
			continue
		}
		if last := ch.Times[len(ch.Times)-1]; last > c.Duration {
			c.Duration = last
		}
		c.Channels = append(c.Channels, ch)
	}
	return c
}

// Apply writes the pose at time t into every targeted node.
func (c *Clip) Apply(t float32) {
	for i := range c.Channels {
		c.Channels[i].apply(t)
	}
}

func (ch *Channel) keyCount() int {
	n := len(ch.Values)
	if ch.Interpolation == InterpolationCubicSpline {
		n /= 3
	}
	return min(n, len(ch.Times))
}

func (ch *Channel) key(i int) mgl32.Vec4 {
	if ch.Interpolation == InterpolationCubicSpline {
		return ch.Values[i*3+1]
	}
	return ch.Values[i]
}

// Sample returns the channel value at time t, holding the first and last
// keyframes outside the keyed range.
func (ch *Channel) Sample(t float32) mgl32.Vec4 {
	n := ch.keyCount()
	if n == 0 {
		return mgl32.Vec4{}
	}
	if n == 1 || t <= ch.Times[0] {
		return ch.key(0)
	}
	if t >= ch.Times[n-1] {
		return ch.key(n - 1)
	}

	// first keyframe strictly after t
	next := sort.Search(n, func(i int) bool { return ch.Times[i] > t })
	prev := next - 1
	if ch.Interpolation == InterpolationStep {
		return ch.key(prev)
	}

	t0, t1 := ch.Times[prev], ch.Times[next]
	var amount float32
	if t1 > t0 {
		amount = (t - t0) / (t1 - t0)
	}
	a, b := ch.key(prev), ch.key(next)
	if ch.Path == PathRotation {
		q := mgl32.QuatSlerp(toQuat(a), toQuat(b), amount)
		return mgl32.Vec4{q.V.X(), q.V.Y(), q.V.Z(), q.W}
	}
	return a.Add(b.Sub(a).Mul(amount))
}

func (ch *Channel) apply(t float32) {
	v := ch.Sample(t)
	switch ch.Path {
	case PathTranslation:
		ch.Target.Translation = v.Vec3()
	case PathRotation:
		ch.Target.Rotation = toQuat(v).Normalize()
	case PathScale:
		ch.Target.Scale = v.Vec3()
	}
}

func toQuat(v mgl32.Vec4) mgl32.Quat {
	return mgl32.Quat{W: v.W(), V: v.Vec3()}
}
