// Package main is the entry point for the Cassette player backend.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mhilario/cassette-player-backend/internal/domain/catalog"
	"github.com/mhilario/cassette-player-backend/internal/domain/favorites"
	"github.com/mhilario/cassette-player-backend/internal/domain/identity"
	"github.com/mhilario/cassette-player-backend/internal/domain/localfiles"
	"github.com/mhilario/cassette-player-backend/internal/domain/player"
	"github.com/mhilario/cassette-player-backend/internal/infra/catalogcache"
	"github.com/mhilario/cassette-player-backend/internal/infra/favstore"
	"github.com/mhilario/cassette-player-backend/internal/infra/localblob"
	"github.com/mhilario/cassette-player-backend/internal/infra/mediaapi"
	"github.com/mhilario/cassette-player-backend/internal/infra/mpdplayer"
	"github.com/mhilario/cassette-player-backend/internal/transport/socketio"
	"github.com/mhilario/cassette-player-backend/internal/version"
)

func main() {
	// Command line flags
	port := flag.String("port", "3001", "HTTP server port")
	mediaURL := flag.String("media-url", mediaapi.DefaultBaseURL, "Media server base URL")
	mpdHost := flag.String("mpd-host", mpdplayer.DefaultHost, "MPD host")
	mpdPort := flag.Int("mpd-port", mpdplayer.DefaultPort, "MPD port")
	mpdPassword := flag.String("mpd-password", "", "MPD password")
	dataDir := flag.String("data", "data", "Directory for databases and identity")
	localDir := flag.String("local", "", "Directory resolved for locally selected files (optional)")
	staticDir := flag.String("static", "", "Directory to serve static files from (optional)")
	refresh := flag.Duration("refresh", 5*time.Minute, "Catalog refresh interval (0 disables)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Print startup banner
	versionInfo := version.GetInfo()
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msgf("  %s", versionInfo.String())
	log.Info().Msg("  Media Playback Queue Controller")
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().
		Str("port", *port).
		Str("media_url", *mediaURL).
		Str("mpd_host", *mpdHost).
		Int("mpd_port", *mpdPort).
		Bool("password_set", *mpdPassword != "").
		Msg("Configuration")

	// Player identity
	identitySvc, err := identity.NewService(*dataDir + "/identity.json")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize player identity")
	}

	// Favorites persistence
	favDB := favstore.NewDB(*dataDir + "/favorites.db")
	if err := favDB.Open(); err != nil {
		log.Fatal().Err(err).Msg("Failed to open favorites database")
	}
	defer favDB.Close()
	favs := favorites.NewStore(favDB)

	// Catalog: media server API behind a snapshot cache that keeps the
	// last good listing available when the server is unreachable.
	apiClient := mediaapi.NewClient(mediaapi.WithBaseURL(*mediaURL))
	snapshots := catalogcache.NewStore(*dataDir + "/catalog.db")
	if err := snapshots.Open(); err != nil {
		log.Fatal().Err(err).Msg("Failed to open catalog cache")
	}
	defer snapshots.Close()
	provider := catalogcache.Wrap(apiClient, snapshots)
	cat := catalog.NewCache(provider)

	// Local file selections
	var blobs localfiles.BlobFacility
	if *localDir != "" {
		blobs = localblob.NewDirFacility(*localDir)
	} else {
		blobs = localblob.NewDirFacility(*dataDir + "/local")
	}
	files := localfiles.NewRegistry(blobs)

	// Playback device
	device := mpdplayer.NewDevice(*mpdHost, *mpdPort, *mpdPassword)
	if err := device.Connect(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MPD")
	}
	defer device.Close()
	log.Info().Msg("MPD connection verified")

	// Playback engine
	controller := player.NewController(device, cat, favs, files)

	// Initial catalog load, then periodic refresh
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat.ReloadAll(ctx)
	if *refresh > 0 {
		go func() {
			ticker := time.NewTicker(*refresh)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					cat.ReloadAll(ctx)
				}
			}
		}()
	}

	// Socket.io server
	socketServer, err := socketio.NewServer(controller, cat, favs)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Socket.io server")
	}
	defer socketServer.Close()

	// Setup HTTP server
	mux := http.NewServeMux()

	// Socket.io endpoint
	mux.Handle("/socket.io/", socketServer)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Version endpoint
	mux.HandleFunc("/api/v1/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		json.NewEncoder(w).Encode(version.GetInfo())
	})

	// Player identity endpoint
	mux.HandleFunc("/api/v1/device", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		json.NewEncoder(w).Encode(identitySvc.Get())
	})

	// Upload pass-through: forwards files to the media server and
	// refreshes the track list so new uploads appear without waiting
	// for the next periodic reload.
	mux.HandleFunc("/api/v1/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseMultipartForm(64 << 20); err != nil {
			http.Error(w, "invalid multipart form", http.StatusBadRequest)
			return
		}

		var uploads []catalog.Upload
		if r.MultipartForm != nil {
			for _, headers := range r.MultipartForm.File {
				for _, header := range headers {
					f, err := header.Open()
					if err != nil {
						log.Warn().Err(err).Str("file", header.Filename).Msg("Skipping unreadable upload")
						continue
					}
					data, err := io.ReadAll(f)
					f.Close()
					if err != nil {
						log.Warn().Err(err).Str("file", header.Filename).Msg("Skipping unreadable upload")
						continue
					}
					uploads = append(uploads, catalog.Upload{
						Name:     header.Filename,
						MIMEType: header.Header.Get("Content-Type"),
						Data:     data,
					})
				}
			}
		}
		if len(uploads) == 0 {
			http.Error(w, "no files supplied", http.StatusBadRequest)
			return
		}

		count, err := provider.UploadTracks(r.Context(), uploads)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		cat.ReloadTracks(r.Context())

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		json.NewEncoder(w).Encode(map[string]int{"uploaded": count})
	})

	// Playback state endpoint (REST fallback)
	mux.HandleFunc("/api/v1/getState", func(w http.ResponseWriter, r *http.Request) {
		state := controller.Session().ToJSON()
		state["shuffle"] = controller.Queue().Shuffle()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		json.NewEncoder(w).Encode(state)
	})

	// Serve static files if directory specified (SPA mode)
	if *staticDir != "" {
		log.Info().Str("dir", *staticDir).Msg("Serving static files")
		fs := http.FileServer(http.Dir(*staticDir))
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			path := *staticDir + r.URL.Path
			if r.URL.Path == "/" {
				path = *staticDir + "/index.html"
			}
			if _, err := os.Stat(path); os.IsNotExist(err) {
				// For SPA routing, serve index.html for non-existing paths
				http.ServeFile(w, r, *staticDir+"/index.html")
				return
			}
			fs.ServeHTTP(w, r)
		})
	}

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("Shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	log.Info().Str("addr", ":"+*port).Msg("HTTP server listening")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("HTTP server error")
	}

	log.Info().Msg("Server stopped")
}
