package stream

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/windtrail/particles"
)

func testSegments() []particles.Segment {
	return []particles.Segment{
		{From: [2]float32{1, 2}, To: [2]float32{3, 4}, Width: 2, Color: [4]float32{1, 0, 0, 1}},
		{From: [2]float32{-170, 10}, To: [2]float32{-169.5, 10.5}, Width: 1, Color: [4]float32{0, 1, 0, 0.2}},
	}
}

func TestFrameRoundtrip(t *testing.T) {
	segs := testSegments()
	data := EncodeFrame(nil, 42, segs)

	if len(data) != headerSize+2*segmentSize {
		t.Fatalf("unexpected frame size %d", len(data))
	}
	tick, got, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if tick != 42 || len(got) != 2 {
		t.Fatalf("expected tick 42 with 2 segments, got %d with %d", tick, len(got))
	}
	if got[1].From != segs[1].From || got[1].To != segs[1].To || got[1].Width != 1 {
		t.Errorf("geometry mismatch: %+v", got[1])
	}
	if d := got[1].Color[3] - 0.2; d > 1.0/255 || d < -1.0/255 {
		t.Errorf("alpha %v not within quantization of 0.2", got[1].Color[3])
	}
}

func TestDecodeFrameRejectsGarbage(t *testing.T) {
	if _, _, err := DecodeFrame([]byte("nope")); !errors.Is(err, ErrBadFrame) {
		t.Errorf("expected ErrBadFrame, got %v", err)
	}
	data := EncodeFrame(nil, 1, testSegments())
	if _, _, err := DecodeFrame(data[:len(data)-1]); !errors.Is(err, ErrBadFrame) {
		t.Errorf("expected ErrBadFrame on truncation, got %v", err)
	}
}

func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h.Handler(""))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + DefaultPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub()
	conn := dial(t, h)

	h.Broadcast(7, testSegments())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if kind != websocket.BinaryMessage {
		t.Errorf("expected binary message, got %d", kind)
	}
	tick, segs, err := DecodeFrame(data)
	if err != nil || tick != 7 || len(segs) != 2 {
		t.Errorf("unexpected frame: tick %d, %d segments, %v", tick, len(segs), err)
	}
	if h.Sent() != 1 {
		t.Errorf("expected 1 frame sent, got %d", h.Sent())
	}
}

func TestHubHandlerMountsPath(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h.Handler("/trails"))
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(base+"/trails", nil)
	if err != nil {
		t.Fatalf("dial configured path: %v", err)
	}
	conn.Close()

	_, resp, err := websocket.DefaultDialer.Dial(base+DefaultPath, nil)
	if err == nil {
		t.Fatal("expected default path unmounted")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 on default path, got %v", resp)
	}
}

func TestHubSentReadConcurrently(t *testing.T) {
	h := NewHub()
	dial(t, h)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for h.Sent() < 20 {
			time.Sleep(time.Millisecond)
		}
	}()
	for i := 0; i < 20; i++ {
		h.Broadcast(int64(i), testSegments())
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected 20 frames counted, got %d", h.Sent())
	}
}

func TestHubNoClientsSkipsEncode(t *testing.T) {
	h := NewHub()
	h.Broadcast(1, testSegments())
	if h.Sent() != 0 {
		t.Errorf("expected nothing sent without clients, got %d", h.Sent())
	}
}

func TestHubControls(t *testing.T) {
	h := NewHub()
	conn := dial(t, h)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"animate":false,"speedFactor":3,"step":true}`)); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-h.Controls():
		p, step, clear := c.Apply(particles.Props{Animate: true, SpeedFactor: 1, Opacity: 0.5})
		if p.Animate || p.SpeedFactor != 3 || p.Opacity != 0.5 {
			t.Errorf("unexpected props %+v", p)
		}
		if !step || clear {
			t.Errorf("expected step only, got step=%v clear=%v", step, clear)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("control never arrived")
	}
}
