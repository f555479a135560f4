package loader

import (
	"github.com/Carmen-Shannon/oxy-scrub/engine/animation"
	"github.com/Carmen-Shannon/oxy-scrub/engine/scene"
)

// LoadProgress reports fetched bytes. BytesTotal is negative when the size is unknown.
type LoadProgress struct {
	BytesLoaded int64
	BytesTotal  int64
}

// Fraction returns the loaded share in [0,1], or -1 when the total is unknown.
func (p LoadProgress) Fraction() float64 {
	if p.BytesTotal <= 0 {
		return -1
	}
	return min(1, float64(p.BytesLoaded)/float64(p.BytesTotal))
}

// Event is sent on the channel returned by Loader.Load. It is one of
// Progress, Success or Failure.
type Event interface {
	isLoadEvent()
}

// Progress is sent while the asset is fetched.
type Progress struct {
	LoadProgress
}

// Success is the terminal event of a load that decoded the asset.
type Success struct {
	Root  *scene.Node
	Clips []*animation.Clip
}

// Failure is the terminal event of a load that did not produce an asset.
type Failure struct {
	Cause error
}

func (Progress) isLoadEvent() {}
func (Success) isLoadEvent()  {}
func (Failure) isLoadEvent()  {}
