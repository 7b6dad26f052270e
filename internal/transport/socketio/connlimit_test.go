package socketio

import (
	"testing"
)

func TestConnectionLimiterLocalhostUnlimited(t *testing.T) {
	cl := NewConnectionLimiter(1)

	for i := 0; i < 10; i++ {
		allowed, evicted := cl.TryAdd("local-"+string(rune('a'+i)), "127.0.0.1")
		if !allowed || evicted != "" {
			t.Errorf("localhost connection %d: allowed=%v evicted=%q", i, allowed, evicted)
		}
	}

	if allowed, evicted := cl.TryAdd("ipv6-local", "::1"); !allowed || evicted != "" {
		t.Errorf("IPv6 localhost: allowed=%v evicted=%q", allowed, evicted)
	}
}

func TestConnectionLimiterEvictsOldestRemote(t *testing.T) {
	cl := NewConnectionLimiter(1)

	if _, evicted := cl.TryAdd("first", "10.0.0.1"); evicted != "" {
		t.Errorf("first remote should not evict, got %q", evicted)
	}

	_, evicted := cl.TryAdd("second", "10.0.0.2")
	if evicted != "first" {
		t.Errorf("expected eviction of first, got %q", evicted)
	}

	_, evicted = cl.TryAdd("third", "10.0.0.3")
	if evicted != "second" {
		t.Errorf("expected eviction of second, got %q", evicted)
	}
}

func TestConnectionLimiterLocalhostUnaffectedByCap(t *testing.T) {
	cl := NewConnectionLimiter(1)

	cl.TryAdd("remote-1", "192.168.1.100")

	allowed, evicted := cl.TryAdd("local-1", "127.0.0.1")
	if !allowed || evicted != "" {
		t.Errorf("localhost with full cap: allowed=%v evicted=%q", allowed, evicted)
	}
}

func TestConnectionLimiterRemoveFreesSlot(t *testing.T) {
	cl := NewConnectionLimiter(1)

	cl.TryAdd("remote-1", "192.168.1.100")
	cl.Remove("remote-1")

	allowed, evicted := cl.TryAdd("remote-2", "192.168.1.101")
	if !allowed || evicted != "" {
		t.Errorf("after removal: allowed=%v evicted=%q", allowed, evicted)
	}
}

func TestConnectionLimiterDuplicateAddIsIdempotent(t *testing.T) {
	cl := NewConnectionLimiter(1)

	cl.TryAdd("remote-1", "192.168.1.100")

	allowed, evicted := cl.TryAdd("remote-1", "192.168.1.100")
	if !allowed || evicted != "" {
		t.Errorf("duplicate add: allowed=%v evicted=%q", allowed, evicted)
	}
}

func TestConnectionLimiterRemoveUnknownIsNoOp(t *testing.T) {
	cl := NewConnectionLimiter(1)
	cl.Remove("nonexistent")
}

func TestIsLocalIP(t *testing.T) {
	tests := []struct {
		ip       string
		expected bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"192.168.1.100", false},
		{"10.0.0.1", false},
		{"0.0.0.0", false},
	}

	for _, tc := range tests {
		if got := isLocalIP(tc.ip); got != tc.expected {
			t.Errorf("isLocalIP(%q) = %v, want %v", tc.ip, got, tc.expected)
		}
	}
}
