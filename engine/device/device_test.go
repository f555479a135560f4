package device

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	desktopUA := "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/126.0 Safari/537.36"
	tests := []struct {
		name    string
		signals Signals
		want    QualityTier
	}{
		{"no signals", Signals{}, TierFull},
		{"wide desktop", Signals{ViewportWidth: 1920, UserAgent: desktopUA}, TierFull},
		{"narrow viewport", Signals{ViewportWidth: 320, UserAgent: desktopUA}, TierConstrained},
		{"threshold is exclusive", Signals{ViewportWidth: 768}, TierFull},
		{"one below threshold", Signals{ViewportWidth: 767}, TierConstrained},
		{"iphone", Signals{ViewportWidth: 1024, UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)"}, TierConstrained},
		{"android", Signals{ViewportWidth: 1200, UserAgent: "Mozilla/5.0 (Linux; Android 14; Pixel 8)"}, TierConstrained},
		{"slow network", Signals{ViewportWidth: 1920, Network: NetworkHint{EffectiveType: "3g"}}, TierConstrained},
		{"fast network", Signals{ViewportWidth: 1920, Network: NetworkHint{EffectiveType: "4g"}}, TierFull},
		{"save data", Signals{ViewportWidth: 1920, Network: NetworkHint{SaveData: true}}, TierConstrained},
		{"native ios", Signals{UserAgent: "oxy-scrub (ios; arm64)"}, TierConstrained},
		{"native arm board", Signals{UserAgent: "oxy-scrub (linux; arm)"}, TierConstrained},
		{"native desktop", Signals{UserAgent: "oxy-scrub (linux; amd64)"}, TierFull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.signals); got != tt.want {
				t.Errorf("Classify(%+v) = %v, want %v", tt.signals, got, tt.want)
			}
		})
	}
}

func TestClassifySignatures(t *testing.T) {
	tests := []struct {
		signature string
		userAgent string
	}{
		{"android", "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36"},
		{"iphone", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)"},
		{"ipad", "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X)"},
		{"ipod", "Mozilla/5.0 (iPod touch; CPU iPhone OS 12_0 like Mac OS X)"},
		{"mobile", "Mozilla/5.0 (X11; Linux x86_64) Mobile Safari/537.36"},
		{"silk", "Mozilla/5.0 (Linux; U; en-us; KFTT Build/IML74K) Silk/3.4"},
		{"kindle", "Mozilla/5.0 (X11; U; Linux armv7l; en-US) Kindle/3.0"},
		{"opera mini", "Opera/9.80 (J2ME/MIDP; Opera Mini/9.80; U; en) Presto/2.12"},
		{"blackberry", "Mozilla/5.0 (BlackBerry; U; BlackBerry 9900; en) AppleWebKit/534.11"},
		{"raspberry", "Mozilla/5.0 (X11; Linux armv7l) Raspberry Pi"},
		{"aarch64 mobile", "Mozilla/5.0 (X11; Linux aarch64 Mobile) Firefox/115.0"},
		{"webos", "Mozilla/5.0 (webOS/1.4.0; U; en-US) AppleWebKit/532.2"},
		{"(ios;", "oxy-scrub (ios; arm64)"},
		{"; arm)", "oxy-scrub (linux; arm)"},
	}
	if len(tests) != len(defaultSignatures) {
		t.Fatalf("%d signature cases for %d signatures", len(tests), len(defaultSignatures))
	}
	for _, tt := range tests {
		t.Run(tt.signature, func(t *testing.T) {
			// each signature must classify on its own
			p := &profiler{widthThreshold: 768, signatures: []string{tt.signature}}
			if got := p.Classify(Signals{ViewportWidth: 1920, UserAgent: tt.userAgent}); got != TierConstrained {
				t.Errorf("Classify(%q) = %v, want constrained", tt.userAgent, got)
			}
			if got := Classify(Signals{ViewportWidth: 1920, UserAgent: tt.userAgent}); got != TierConstrained {
				t.Errorf("default Classify(%q) = %v, want constrained", tt.userAgent, got)
			}
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	s := Signals{ViewportWidth: 500, UserAgent: "x"}
	p := NewProfiler()
	first := p.Classify(s)
	for i := 0; i < 10; i++ {
		if got := p.Classify(s); got != first {
			t.Fatalf("call %d returned %v, first returned %v", i, got, first)
		}
	}
}

func TestProfilerOptions(t *testing.T) {
	p := NewProfiler(WithWidthThreshold(1000), WithSignatures("SmartTV"))
	if got := p.Classify(Signals{ViewportWidth: 900}); got != TierConstrained {
		t.Errorf("custom threshold: got %v", got)
	}
	if got := p.Classify(Signals{ViewportWidth: 1920, UserAgent: "Tizen SmartTV"}); got != TierConstrained {
		t.Errorf("custom signature: got %v", got)
	}

	forced := NewProfiler(WithForcedTier(TierConstrained))
	if got := forced.Classify(Signals{ViewportWidth: 4000}); got != TierConstrained {
		t.Errorf("forced tier ignored: got %v", got)
	}

	disabled := NewProfiler(WithWidthThreshold(0))
	if got := disabled.Classify(Signals{ViewportWidth: 100}); got != TierFull {
		t.Errorf("width rule should be disabled: got %v", got)
	}
}

func TestConfigFor(t *testing.T) {
	c := ConfigFor(TierConstrained)
	if c.Antialias || c.ShadowsEnabled || c.PixelRatioCap != 1 || c.TargetFPS != 30 || c.LightSetup != LightSetupMinimal || !c.Decoder.PreferCompressed {
		t.Errorf("unexpected constrained config %+v", c)
	}
	if !c.Throttled() {
		t.Error("constrained tier should be throttled")
	}
	if got, want := c.FrameInterval(), time.Second/30; got != want {
		t.Errorf("FrameInterval = %v, want %v", got, want)
	}

	f := ConfigFor(TierFull)
	if !f.Antialias || !f.ShadowsEnabled || f.PixelRatioCap != 2 || f.TargetFPS != 60 || f.LightSetup != LightSetupStudio || f.Decoder.PreferCompressed {
		t.Errorf("unexpected full config %+v", f)
	}
	if f.Throttled() {
		t.Error("full tier should not be throttled")
	}
}

func TestProfilerConfigFrameRates(t *testing.T) {
	p := NewProfiler(WithTargetFPS(24, 0))
	if got := p.Config(TierConstrained).TargetFPS; got != 24 {
		t.Errorf("constrained fps = %d, want 24", got)
	}
	if got := p.Config(TierFull).TargetFPS; got != 60 {
		t.Errorf("full fps = %d, want 60", got)
	}
}

func TestParseTier(t *testing.T) {
	if tier, ok := ParseTier(" Constrained "); !ok || tier != TierConstrained {
		t.Errorf("ParseTier constrained = %v, %v", tier, ok)
	}
	if tier, ok := ParseTier("full"); !ok || tier != TierFull {
		t.Errorf("ParseTier full = %v, %v", tier, ok)
	}
	if _, ok := ParseTier(""); ok {
		t.Error("empty string should not parse")
	}
	if TierConstrained.String() != "constrained" || TierFull.String() != "full" {
		t.Error("unexpected String values")
	}
}
