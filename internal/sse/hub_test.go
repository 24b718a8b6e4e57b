package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thebtf/refineloop/pkg/models"
)

func TestHub_GetCreatesBroadcasterLazily(t *testing.T) {
	h := NewHub()
	b1 := h.Get("s1")
	b2 := h.Get("s1")
	assert.Same(t, b1, b2)
}

func TestHub_PublishWithoutSubscriberIsNoop(t *testing.T) {
	h := NewHub()
	assert.NotPanics(t, func() {
		h.Publish("nobody-listening", models.Projection{Step: 1})
	})
}

func TestHub_PublishDeliversToSubscriber(t *testing.T) {
	h := NewHub()
	rec := httptest.NewRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		h.HandleSSE("s1", rec, req)
		close(done)
	}()

	// Give the handler time to register the client before publishing.
	time.Sleep(20 * time.Millisecond)
	h.Publish("s1", models.Projection{Step: 3, Score: 0.5})
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
	}

	body := rec.Body.String()
	require.Contains(t, body, "connected")
	assert.Contains(t, body, "\"step\":3")
}

func TestHub_CloseRemovesBroadcaster(t *testing.T) {
	h := NewHub()
	h.Get("s1")
	h.Close("s1")
	assert.NotPanics(t, func() {
		h.Publish("s1", models.Projection{})
	})
}
