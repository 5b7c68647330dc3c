package communication

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestHubRegisterAfterClose(t *testing.T) {
	h := NewHub(zap.NewNop())
	h.Close()

	done := make(chan struct{})
	go func() {
		h.Register(nil)
		h.Unregister(nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("register blocked after hub shutdown")
	}
}

func TestHubBroadcastAfterClose(t *testing.T) {
	h := NewHub(zap.NewNop())
	h.Close()

	// Must not block or panic; events after shutdown are simply dropped.
	for i := 0; i < 100; i++ {
		h.Broadcast(EventNewMessage, map[string]string{"n": "x"})
	}
}
