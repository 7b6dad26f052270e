// Package socketio provides the Socket.io server for client communication.
package socketio

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/servers/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/mhilario/cassette-player-backend/internal/domain/catalog"
	"github.com/mhilario/cassette-player-backend/internal/domain/favorites"
	"github.com/mhilario/cassette-player-backend/internal/domain/localfiles"
	"github.com/mhilario/cassette-player-backend/internal/domain/media"
	"github.com/mhilario/cassette-player-backend/internal/domain/player"
)

// DefaultMaxExternalClients bounds concurrent non-localhost clients.
const DefaultMaxExternalClients = 4

// Server handles Socket.io connections and events.
type Server struct {
	io         *socket.Server
	controller *player.Controller
	catalog    *catalog.Cache
	favorites  *favorites.Store
	limiter    *ConnectionLimiter
	debouncer  *BroadcastDebouncer

	mu      sync.RWMutex
	clients map[string]*socket.Socket
}

// command is an event handler bound to a connected client.
type command func(client *socket.Socket, args []any)

// NewServer creates a new Socket.io server over the playback engine.
func NewServer(controller *player.Controller, cat *catalog.Cache, favs *favorites.Store) (*Server, error) {
	opts := socket.DefaultServerOptions()
	opts.SetPingTimeout(20 * time.Second)
	opts.SetPingInterval(25 * time.Second)
	opts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	server := socket.NewServer(nil, opts)

	s := &Server{
		io:         server,
		controller: controller,
		catalog:    cat,
		favorites:  favs,
		limiter:    NewConnectionLimiter(DefaultMaxExternalClients),
		clients:    make(map[string]*socket.Socket),
	}

	// Engine callbacks fan out through a debouncer so bursts of state
	// changes collapse into single broadcasts.
	s.debouncer = NewBroadcastDebouncer(50*time.Millisecond, s.BroadcastState, s.BroadcastQueue)
	controller.OnChange(func() {
		s.debouncer.Trigger(TriggerState)
		s.debouncer.Trigger(TriggerQueue)
	})
	controller.OnFailure(s.broadcastFailure)

	s.setupHandlers()

	return s, nil
}

// commands is the dispatch table mapping event names to handlers. The
// same table serves socket events and the keyboard/media-key "command"
// event, so every control path goes through one place.
func (s *Server) commands() map[string]command {
	return map[string]command{
		"getState": func(client *socket.Socket, args []any) {
			s.pushState(client)
		},
		"getQueue": func(client *socket.Socket, args []any) {
			s.pushQueue(client)
		},
		"getFavorites": func(client *socket.Socket, args []any) {
			client.Emit("pushFavorites", s.favorites.All())
		},
		"play": func(client *socket.Socket, args []any) {
			if item, ok := s.itemFromArgs(args); ok {
				if warning := s.controller.Play(item); warning != nil {
					client.Emit("pushToastMessage", map[string]any{
						"type":    "warning",
						"title":   "Format support",
						"message": warning.Message(),
					})
				}
			}
		},
		"pause": func(client *socket.Socket, args []any) {
			s.controller.TogglePlayPause()
		},
		"toggle": func(client *socket.Socket, args []any) {
			s.controller.TogglePlayPause()
		},
		"next": func(client *socket.Socket, args []any) {
			s.controller.Next()
		},
		"prev": func(client *socket.Socket, args []any) {
			s.controller.Previous()
		},
		"seek": func(client *socket.Socket, args []any) {
			if pos, ok := floatArg(args); ok {
				s.controller.Seek(pos)
			}
		},
		"volume": func(client *socket.Socket, args []any) {
			if vol, ok := floatArg(args); ok {
				s.controller.SetVolume(int(vol))
			}
		},
		"mute": func(client *socket.Socket, args []any) {
			s.controller.ToggleMute()
		},
		"shuffle": func(client *socket.Socket, args []any) {
			s.controller.ToggleShuffle()
		},
		"moveQueueItem": func(client *socket.Socket, args []any) {
			if m, ok := mapArg(args); ok {
				index, iok := m["index"].(float64)
				direction, dok := m["direction"].(float64)
				if iok && dok {
					s.controller.MoveQueueItem(int(index), int(direction))
				}
			}
		},
		"playNext": func(client *socket.Socket, args []any) {
			if item, ok := s.itemFromArgs(args); ok {
				s.controller.PlayItemNext(item)
			}
		},
		"queueAll": func(client *socket.Socket, args []any) {
			s.controller.QueueAll(s.visibleTracks())
		},
		"toggleFavorite": func(client *socket.Socket, args []any) {
			if m, ok := mapArg(args); ok {
				if id, ok := m["id"].(string); ok {
					s.favorites.Toggle(id)
					s.io.Emit("pushFavorites", s.favorites.All())
				}
			}
		},
		"playLocal": func(client *socket.Socket, args []any) {
			m, ok := mapArg(args)
			if !ok {
				return
			}
			files := rawFilesFromPayload(m["files"])
			if len(files) == 0 {
				return
			}
			items, warning := s.controller.PlayLocalSelection(files)
			if len(items) == 0 {
				client.Emit("pushToastMessage", map[string]any{
					"type":    "error",
					"title":   "Local files",
					"message": "None of the selected files could be prepared for playback",
				})
				return
			}
			if warning != nil {
				client.Emit("pushToastMessage", map[string]any{
					"type":    "warning",
					"title":   "Format support",
					"message": warning.Message(),
				})
			}
		},
		"search": func(client *socket.Socket, args []any) {
			if m, ok := mapArg(args); ok {
				if q, ok := m["value"].(string); ok {
					s.controller.SetSearchQuery(q)
				}
			}
		},
		"favoritesFilter": func(client *socket.Socket, args []any) {
			if m, ok := mapArg(args); ok {
				if on, ok := m["value"].(bool); ok {
					s.controller.SetFavoritesOnly(on)
				}
			}
		},
	}
}

// setupHandlers registers all Socket.io event handlers.
func (s *Server) setupHandlers() {
	table := s.commands()

	s.io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		clientID := string(client.Id())

		remoteIP := ""
		if h := client.Handshake(); h != nil {
			remoteIP = h.Address
		}

		_, evictedID := s.limiter.TryAdd(clientID, remoteIP)
		if evictedID != "" {
			s.mu.RLock()
			evicted := s.clients[evictedID]
			s.mu.RUnlock()
			if evicted != nil {
				log.Info().Str("id", evictedID).Msg("Evicting oldest external client")
				evicted.Disconnect(true)
			}
		}

		log.Info().Str("id", clientID).Str("ip", remoteIP).Msg("Client connected")

		s.mu.Lock()
		s.clients[clientID] = client
		s.mu.Unlock()

		// Send initial state after small delay
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.pushState(client)
			s.pushQueue(client)
			client.Emit("pushFavorites", s.favorites.All())
		}()

		client.On("disconnect", func(args ...any) {
			reason := ""
			if len(args) > 0 {
				if r, ok := args[0].(string); ok {
					reason = r
				}
			}
			log.Info().Str("id", clientID).Str("reason", reason).Msg("Client disconnected")

			s.limiter.Remove(clientID)
			s.mu.Lock()
			delete(s.clients, clientID)
			s.mu.Unlock()
		})

		for name, handler := range table {
			name, handler := name, handler
			client.On(name, func(args ...any) {
				log.Debug().Str("id", clientID).Str("event", name).Msg("Event")
				handler(client, args)
			})
		}

		// Keyboard and media-key bindings arrive as a named command and
		// dispatch through the same table.
		client.On("command", func(args ...any) {
			m, ok := mapArg(args)
			if !ok {
				return
			}
			name, _ := m["name"].(string)
			handler, known := table[name]
			if !known {
				log.Warn().Str("id", clientID).Str("command", name).Msg("Unknown command")
				return
			}
			rest, _ := m["args"].([]any)
			handler(client, rest)
		})
	})
}

// itemFromArgs resolves a play target. Clients either send a full item
// payload or just an id to look up in the catalog.
func (s *Server) itemFromArgs(args []any) (media.Item, bool) {
	m, ok := mapArg(args)
	if !ok {
		return media.Item{}, false
	}

	if id, ok := m["id"].(string); ok && len(m) == 1 {
		return s.findItem(id)
	}

	item := media.Item{
		Kind: media.KindAudio,
	}
	item.ID, _ = m["id"].(string)
	item.Title, _ = m["title"].(string)
	item.Artist, _ = m["artist"].(string)
	item.Album, _ = m["album"].(string)
	item.SourceURL, _ = m["sourceUrl"].(string)
	item.Format, _ = m["format"].(string)
	item.ArtworkURL, _ = m["artworkUrl"].(string)
	if kind, ok := m["kind"].(string); ok && kind == string(media.KindVideo) {
		item.Kind = media.KindVideo
	}
	if item.ID == "" || item.SourceURL == "" {
		return media.Item{}, false
	}
	return item, true
}

// findItem looks an id up across tracks, videos, and stations.
func (s *Server) findItem(id string) (media.Item, bool) {
	for _, list := range [][]media.Item{s.catalog.Tracks(), s.catalog.Videos(), s.catalog.Stations()} {
		for _, item := range list {
			if item.ID == id {
				return item, true
			}
		}
	}
	return media.Item{}, false
}

func (s *Server) visibleTracks() []media.Item {
	return s.catalog.Tracks()
}

// stateSnapshot assembles the pushState payload.
func (s *Server) stateSnapshot() map[string]any {
	state := s.controller.Session().ToJSON()
	state["shuffle"] = s.controller.Queue().Shuffle()
	return state
}

// pushState sends current state to a client.
func (s *Server) pushState(client *socket.Socket) {
	client.Emit("pushState", s.stateSnapshot())
}

// pushQueue sends the current queue to a client.
func (s *Server) pushQueue(client *socket.Socket) {
	client.Emit("pushQueue", s.controller.Queue().Items())
}

// BroadcastState sends state to all connected clients.
func (s *Server) BroadcastState() {
	s.io.Emit("pushState", s.stateSnapshot())
}

// BroadcastQueue sends the queue to all connected clients.
func (s *Server) BroadcastQueue() {
	s.io.Emit("pushQueue", s.controller.Queue().Items())
}

// broadcastFailure surfaces a classified playback failure as a toast.
func (s *Server) broadcastFailure(err *player.PlaybackError) {
	log.Warn().Str("reason", string(err.Reason)).Str("id", err.ItemID).Msg("Playback failed")
	s.io.Emit("pushToastMessage", map[string]any{
		"type":    "error",
		"title":   "Playback",
		"message": err.Error(),
		"reason":  string(err.Reason),
		"itemId":  err.ItemID,
	})
}

// ServeHTTP implements http.Handler for the Socket.io server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.io.ServeHandler(nil).ServeHTTP(w, r)
}

// Close stops broadcasting and closes the Socket.io server.
func (s *Server) Close() error {
	s.debouncer.Stop()
	s.io.Close(nil)
	return nil
}

// rawFilesFromPayload decodes the playLocal file list.
func rawFilesFromPayload(v any) []localfiles.RawFile {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	files := make([]localfiles.RawFile, 0, len(raw))
	for _, e := range raw {
		fm, ok := e.(map[string]any)
		if !ok {
			continue
		}
		var f localfiles.RawFile
		f.Name, _ = fm["name"].(string)
		f.MIMEType, _ = fm["mimeType"].(string)
		if size, ok := fm["size"].(float64); ok {
			f.Size = int64(size)
		}
		if ms, ok := fm["lastModified"].(float64); ok {
			f.LastModified = time.UnixMilli(int64(ms))
		}
		if f.Name == "" {
			continue
		}
		files = append(files, f)
	}
	return files
}

// floatArg extracts a leading numeric argument.
func floatArg(args []any) (float64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	v, ok := args[0].(float64)
	return v, ok
}

// mapArg extracts a leading object argument.
func mapArg(args []any) (map[string]any, bool) {
	if len(args) == 0 {
		return nil, false
	}
	m, ok := args[0].(map[string]any)
	return m, ok
}
