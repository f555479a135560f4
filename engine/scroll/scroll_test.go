package scroll

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-scrub/common"
	"github.com/Carmen-Shannon/oxy-scrub/internal/logging"
)

type fakeSetter struct {
	calls []float32
}

func (f *fakeSetter) SetPosition(fraction float32) {
	f.calls = append(f.calls, fraction)
}

func (f *fakeSetter) last() float32 {
	return f.calls[len(f.calls)-1]
}

func TestFraction(t *testing.T) {
	tests := []struct {
		name               string
		top, doc, viewport float64
		want               float32
	}{
		{"top", 0, 2000, 1000, 0},
		{"middle", 500, 2000, 1000, 0.5},
		{"bottom", 1000, 2000, 1000, 1},
		{"doc equals viewport", 0, 1000, 1000, 0},
		{"doc shorter than viewport", 50, 800, 1000, 0},
		{"zero geometry", 0, 0, 0, 0},
		{"overscroll clamps", 1500, 2000, 1000, 1},
		{"negative offset clamps", -20, 2000, 1000, 0},
		{"nan offset", math.NaN(), 2000, 1000, 0},
		{"nan document", 10, math.NaN(), 1000, 0},
		{"infinite document", 10, math.Inf(1), 1000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fraction(tt.top, tt.doc, tt.viewport)
			if got != got {
				t.Fatal("fraction is NaN")
			}
			if got != tt.want {
				t.Errorf("Fraction(%v, %v, %v) = %v, want %v", tt.top, tt.doc, tt.viewport, got, tt.want)
			}
		})
	}
}

func newTestBinder(s PositionSetter, opts ...BinderBuilderOption) Binder {
	opts = append([]BinderBuilderOption{WithLogger(logging.Null())}, opts...)
	return NewBinder(s, 2000, 1000, opts...)
}

func TestBinderForwardsEveryEvent(t *testing.T) {
	s := &fakeSetter{}
	b := newTestBinder(s, WithWheelStep(100))

	b.OnWheel(-1)
	b.OnWheel(-1)
	b.OnWheel(-1)
	if len(s.calls) != 3 {
		t.Fatalf("calls = %d, want 3 (no debouncing)", len(s.calls))
	}
	want := []float32{0.1, 0.2, 0.3}
	for i, w := range want {
		if math.Abs(float64(s.calls[i]-w)) > 1e-6 {
			t.Errorf("call %d = %v, want %v", i, s.calls[i], w)
		}
	}

	b.OnWheel(10)
	if s.last() != 0 || b.Geometry().ScrollTop != 0 {
		t.Errorf("wheel up past top: fraction %v, top %v", s.last(), b.Geometry().ScrollTop)
	}
	b.OnWheel(-100)
	if s.last() != 1 || b.Geometry().ScrollTop != 1000 {
		t.Errorf("wheel down past bottom: fraction %v, top %v", s.last(), b.Geometry().ScrollTop)
	}
}

func TestBinderKeys(t *testing.T) {
	tests := []struct {
		name    string
		start   float64
		key     uint32
		shift   bool
		wantTop float64
		handled bool
	}{
		{"down arrow", 0, common.KeyDown, false, 40, true},
		{"up arrow at top", 0, common.KeyUp, false, 0, true},
		{"page down", 100, common.KeyPageDown, false, 1000, true},
		{"page up", 900, common.KeyPageUp, false, 0, true},
		{"space pages down", 0, common.KeySpace, false, 1000, true},
		{"shift space pages up", 1000, common.KeySpace, true, 0, true},
		{"end", 0, common.KeyEnd, false, 1000, true},
		{"home", 700, common.KeyHome, false, 0, true},
		{"other key", 300, common.KeyLeft, false, 300, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSetter{}
			b := newTestBinder(s, WithScrollTop(tt.start))
			if got := b.OnKey(tt.key, tt.shift); got != tt.handled {
				t.Errorf("handled = %v, want %v", got, tt.handled)
			}
			if got := b.Geometry().ScrollTop; got != tt.wantTop {
				t.Errorf("scrollTop = %v, want %v", got, tt.wantTop)
			}
			if tt.handled && len(s.calls) != 1 {
				t.Errorf("calls = %d, want 1", len(s.calls))
			}
		})
	}
}

func TestBinderRemoteGeometry(t *testing.T) {
	s := &fakeSetter{}
	b := newTestBinder(s)

	b.OnScroll(Geometry{ScrollTop: 300, DocumentHeight: 1600, ViewportHeight: 400})
	if math.Abs(float64(s.last())-0.25) > 1e-6 {
		t.Errorf("fraction = %v, want 0.25", s.last())
	}
	b.OnScroll(Geometry{ScrollTop: 300, DocumentHeight: 400, ViewportHeight: 400})
	if s.last() != 0 {
		t.Errorf("degenerate geometry fraction = %v, want 0", s.last())
	}
}

func TestBinderViewportResize(t *testing.T) {
	s := &fakeSetter{}
	b := newTestBinder(s, WithScrollTop(1000))

	b.OnViewportResize(1500)
	if b.Geometry().ScrollTop != 500 {
		t.Errorf("scrollTop = %v, want re-clamped 500", b.Geometry().ScrollTop)
	}
	if s.last() != 1 {
		t.Errorf("fraction = %v, want 1", s.last())
	}

	n := len(s.calls)
	b.OnViewportResize(0)
	if len(s.calls) != n || b.Geometry().ViewportHeight != 1500 {
		t.Error("zero height should be ignored")
	}

	b.OnViewportResize(2500)
	if s.last() != 0 {
		t.Errorf("viewport taller than document: fraction = %v, want 0", s.last())
	}
}

func TestBinderReapplyAndNilTarget(t *testing.T) {
	s := &fakeSetter{}
	b := newTestBinder(s, WithScrollTop(500))
	b.Reapply()
	if len(s.calls) != 1 || s.last() != 0.5 {
		t.Errorf("Reapply calls = %v", s.calls)
	}

	nb := NewBinder(nil, 2000, 1000, WithLogger(logging.Null()))
	nb.OnWheel(-1)
	if nb.Fraction() != 0.1 {
		t.Errorf("fraction = %v, want 0.1", nb.Fraction())
	}
}
