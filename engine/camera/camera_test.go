package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestSetAspectRecomputesProjection(t *testing.T) {
	c := NewCamera(WithAspect(1024.0 / 768.0))
	before := c.ProjectionMatrix()

	c.SetAspect(320.0 / 568.0)
	after := c.ProjectionMatrix()

	if before == after {
		t.Fatal("projection unchanged after SetAspect")
	}
	if got, want := after[0], after[5]/(320.0/568.0); math.Abs(float64(got-want)) > 1e-4 {
		t.Errorf("projection x scale = %v, want %v", got, want)
	}
	if c.ViewProjectionMatrix() != after.Mul4(c.ViewMatrix()) {
		t.Error("view-projection not refreshed")
	}
}

func TestSetAspectIgnoresDegenerate(t *testing.T) {
	c := NewCamera(WithAspect(2))
	for _, a := range []float32{0, -1, float32(math.NaN())} {
		c.SetAspect(a)
		if c.Aspect() != 2 {
			t.Fatalf("aspect changed to %v after SetAspect(%v)", c.Aspect(), a)
		}
	}
}

func TestLooksAtTarget(t *testing.T) {
	c := NewCamera(WithPosition(0, 1.2, 4), WithTarget(0, 0, 0))
	clip := c.ViewProjectionMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	ndcX, ndcY := clip.X()/clip.W(), clip.Y()/clip.W()
	if math.Abs(float64(ndcX)) > 1e-5 || math.Abs(float64(ndcY)) > 1e-5 {
		t.Errorf("target projects to (%v, %v), want screen centre", ndcX, ndcY)
	}
	depth := clip.Z() / clip.W()
	if depth <= 0 || depth >= 1 {
		t.Errorf("target depth %v outside (0, 1)", depth)
	}
}
