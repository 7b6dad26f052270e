package socketio

import (
	"sync"
)

// ConnectionLimiter caps concurrent remote (non-localhost) clients.
// Localhost connections are never limited. When a new remote client
// exceeds the cap, the oldest remote client is evicted to make room.
type ConnectionLimiter struct {
	mu        sync.Mutex
	maxRemote int
	// remote client IDs, oldest first
	remote []string
	// clientID -> remote IP for every tracked connection
	byID map[string]string
}

// NewConnectionLimiter creates a limiter allowing up to maxRemote
// concurrent non-localhost clients.
func NewConnectionLimiter(maxRemote int) *ConnectionLimiter {
	return &ConnectionLimiter{
		maxRemote: maxRemote,
		byID:      map[string]string{},
	}
}

// TryAdd registers a connection. The connection is always allowed;
// evictedID names the oldest remote client to drop when the cap is
// exceeded, empty otherwise.
func (cl *ConnectionLimiter) TryAdd(clientID, remoteIP string) (allowed bool, evictedID string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.byID[clientID]; exists {
		return true, ""
	}

	cl.byID[clientID] = remoteIP

	if isLocalIP(remoteIP) {
		return true, ""
	}

	cl.remote = append(cl.remote, clientID)

	if len(cl.remote) > cl.maxRemote {
		evictedID = cl.remote[0]
		cl.remote = cl.remote[1:]
		delete(cl.byID, evictedID)
		return true, evictedID
	}

	return true, ""
}

// Remove unregisters a connection when a client disconnects.
func (cl *ConnectionLimiter) Remove(clientID string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	ip, exists := cl.byID[clientID]
	if !exists {
		return
	}

	delete(cl.byID, clientID)

	if isLocalIP(ip) {
		return
	}

	for i, id := range cl.remote {
		if id == clientID {
			cl.remote = append(cl.remote[:i], cl.remote[i+1:]...)
			break
		}
	}
}

// isLocalIP returns true if the IP address is localhost.
func isLocalIP(ip string) bool {
	return ip == "127.0.0.1" || ip == "::1"
}
