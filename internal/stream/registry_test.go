package stream

import (
	"strconv"
	"sync"
	"testing"

	"github.com/coder/websocket"
)

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()
	conn := &websocket.Conn{}

	reg.Register("session-1", "tab-1", conn)

	if active := reg.GetActive("session-1", "tab-1"); active != conn {
		t.Errorf("Expected connection %v, got %v", conn, active)
	}
	if n := reg.Count("session-1"); n != 1 {
		t.Errorf("Expected 1 stream, got %d", n)
	}
}

func TestRegistry_Unregister(t *testing.T) {
	reg := NewRegistry()
	conn := &websocket.Conn{}

	reg.Register("session-1", "tab-1", conn)
	reg.Unregister("session-1", "tab-1", conn)

	if active := reg.GetActive("session-1", "tab-1"); active != nil {
		t.Errorf("Expected nil connection, got %v", active)
	}
	if n := reg.Count("session-1"); n != 0 {
		t.Errorf("Expected 0 streams, got %d", n)
	}
}

func TestRegistry_UnregisterStale(t *testing.T) {
	reg := NewRegistry()
	conn1 := &websocket.Conn{}
	conn2 := &websocket.Conn{}

	reg.Register("session-1", "tab-1", conn1)

	// Another tab should remain active when stale unregister happens.
	reg.Register("session-1", "tab-2", conn2)

	reg.Unregister("session-1", "tab-1", conn1)
	reg.Unregister("session-1", "tab-2", conn1)

	if active := reg.GetActive("session-1", "tab-2"); active != conn2 {
		t.Errorf("Expected connection %v, got %v", conn2, active)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			reg.Register("session-1", "tab-"+strconv.Itoa(i), &websocket.Conn{})
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			reg.GetActive("session-1", "tab-"+strconv.Itoa(i))
		}
	}()

	wg.Wait()
	if n := reg.Count("session-1"); n != 1000 {
		t.Errorf("Expected 1000 streams, got %d", n)
	}
}
