package notify

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	messages []any
	failWith error
	closed   bool
}

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.messages = append(f.messages, v)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestHub_SendToUserReachesAllHandles(t *testing.T) {
	hub := NewHub(nil)
	a, b := &fakeConn{}, &fakeConn{}
	hub.register("u1", a)
	hub.register("u1", b)
	other := &fakeConn{}
	hub.register("u2", other)

	sent := hub.SendToUser("u1", "hello")

	assert.Equal(t, 2, sent)
	assert.Len(t, a.messages, 1)
	assert.Len(t, b.messages, 1)
	assert.Empty(t, other.messages)
}

func TestHub_FailedHandleEvicted(t *testing.T) {
	hub := NewHub(nil)
	healthy := &fakeConn{}
	broken := &fakeConn{failWith: errors.New("gone")}
	hub.register("u1", healthy)
	hub.register("u1", broken)

	sent := hub.SendToUser("u1", "hello")

	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, hub.LiveCount("u1"))
	assert.True(t, broken.closed)

	// The evicted handle stays gone.
	assert.Equal(t, 1, hub.SendToUser("u1", "again"))
}

func TestHub_DeregisterClosesAndRemoves(t *testing.T) {
	hub := NewHub(nil)
	c := &fakeConn{}
	client := hub.register("u1", c)

	hub.Deregister("u1", client)

	assert.Zero(t, hub.LiveCount("u1"))
	assert.True(t, c.closed)
	assert.Zero(t, hub.SendToUser("u1", "nobody"))
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(nil)
	a, b := &fakeConn{}, &fakeConn{}
	hub.register("u1", a)
	hub.register("u2", b)

	sent := hub.Broadcast("all")

	assert.Equal(t, 2, sent)
}

func TestHub_ConcurrentRegisterAndSend(t *testing.T) {
	hub := NewHub(nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			client := hub.register("u1", &fakeConn{})
			hub.Deregister("u1", client)
		}()
		go func() {
			defer wg.Done()
			hub.SendToUser("u1", "ping")
		}()
	}
	wg.Wait()

	require.Zero(t, hub.LiveCount("u1"))
}
