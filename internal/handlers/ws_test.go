package handlers

import (
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePingConn struct {
	mu    sync.Mutex
	pings int
}

func (f *fakePingConn) SetWriteDeadline(time.Time) error {
	return nil
}

func (f *fakePingConn) WriteMessage(messageType int, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if messageType == websocket.PingMessage {
		f.pings++
	}
	return nil
}

func (f *fakePingConn) pingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings
}

func TestKeepAlivePingsUntilDone(t *testing.T) {
	conn := &fakePingConn{}
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		keepAlive(conn, time.Millisecond, done)
		close(exited)
	}()

	assert.Eventually(t, func() bool {
		return conn.pingCount() > 0
	}, time.Second, time.Millisecond)

	close(done)

	select {
	case <-exited:
	case <-time.After(time.Second):
		require.Fail(t, "keepalive loop did not exit after the connection closed")
	}
}
