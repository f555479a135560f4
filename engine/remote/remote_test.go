package remote

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-scrub/engine/scroll"
	"github.com/gorilla/websocket"
)

func TestDecodeGeometry(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    scroll.Geometry
		wantErr error
		anyErr  bool
	}{
		{
			name:  "valid",
			input: `{"scrollTop":120,"documentHeight":4000,"viewportHeight":800}`,
			want:  scroll.Geometry{ScrollTop: 120, DocumentHeight: 4000, ViewportHeight: 800},
		},
		{
			name:  "zero values are present",
			input: `{"scrollTop":0,"documentHeight":0,"viewportHeight":0}`,
			want:  scroll.Geometry{},
		},
		{
			name:  "extra fields ignored",
			input: `{"scrollTop":1,"documentHeight":2,"viewportHeight":3,"ts":99}`,
			want:  scroll.Geometry{ScrollTop: 1, DocumentHeight: 2, ViewportHeight: 3},
		},
		{name: "missing field", input: `{"scrollTop":1,"documentHeight":2}`, wantErr: ErrMissingField},
		{name: "not json", input: `scroll!`, anyErr: true},
		{name: "wrong type", input: `{"scrollTop":"top","documentHeight":2,"viewportHeight":3}`, anyErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeGeometry([]byte(tt.input))
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			case tt.anyErr:
				if err == nil {
					t.Fatal("expected an error")
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("got %+v, want %+v", got, tt.want)
				}
			}
		})
	}
}

func TestPublishDropsOldest(t *testing.T) {
	s := newServer(WithBuffer(2))
	for i := 1; i <= 5; i++ {
		s.publish(scroll.Geometry{ScrollTop: float64(i)})
	}

	if got := s.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
	first := <-s.Events()
	second := <-s.Events()
	if first.ScrollTop != 4 || second.ScrollTop != 5 {
		t.Errorf("pending = %v, %v; want the newest two (4, 5)", first.ScrollTop, second.ScrollTop)
	}
}

func TestWithPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", DefaultPath},
		{"feed", "/feed"},
		{"/feed", "/feed"},
	}
	for _, tt := range tests {
		if got := newServer(WithPath(tt.in)).path; got != tt.want {
			t.Errorf("WithPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func receive(t *testing.T, s Server) scroll.Geometry {
	t.Helper()
	select {
	case g := <-s.Events():
		return g
	case <-time.After(2 * time.Second):
		t.Fatal("no geometry received")
		return scroll.Geometry{}
	}
}

func TestHandlerSkipsInvalidMessages(t *testing.T) {
	s := newServer()
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dial(t, "ws"+strings.TrimPrefix(ts.URL, "http")+DefaultPath)

	for _, msg := range []string{
		`not json`,
		`{"scrollTop":5}`,
		`{"scrollTop":300,"documentHeight":1000,"viewportHeight":500}`,
	} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	got := receive(t, s)
	want := scroll.Geometry{ScrollTop: 300, DocumentHeight: 1000, ViewportHeight: 500}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if f := got.Fraction(); f != 0.6 {
		t.Errorf("Fraction() = %v, want 0.6", f)
	}

	// the connection survives invalid input
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"scrollTop":0,"documentHeight":1000,"viewportHeight":500}`)); err != nil {
		t.Fatalf("write after invalid messages: %v", err)
	}
	if got := receive(t, s); got.ScrollTop != 0 {
		t.Errorf("second geometry = %+v", got)
	}
}

func TestListenAndShutdown(t *testing.T) {
	s, err := Listen("127.0.0.1:0", WithPath("/feed"))
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	conn := dial(t, "ws://"+s.Addr()+"/feed")
	if err := conn.WriteJSON(map[string]float64{"scrollTop": 10, "documentHeight": 20, "viewportHeight": 10}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := receive(t, s); got.ScrollTop != 10 {
		t.Errorf("got %+v", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("connection still open after Shutdown")
	}
}
