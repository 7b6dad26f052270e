// Package identity manages the persistent player identity so clients
// can tell multiple Cassette instances on a network apart.
package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Info is the player identity exposed to clients.
type Info struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// Service loads the identity from disk, generating and persisting one
// on first run.
type Service struct {
	mu         sync.RWMutex
	configPath string
	info       Info
}

// NewService creates the identity service, loading configPath or
// generating a fresh identity if none exists.
func NewService(configPath string) (*Service, error) {
	svc := &Service{
		configPath: configPath,
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := svc.load(); err != nil {
		log.Debug().Err(err).Msg("No existing identity, generating a new one")
		svc.info.UUID = uuid.New().String()
		svc.info.Name = defaultName()

		if err := svc.save(); err != nil {
			return nil, fmt.Errorf("failed to save identity: %w", err)
		}
	}

	log.Info().
		Str("uuid", svc.info.UUID).
		Str("name", svc.info.Name).
		Msg("Player identity initialized")

	return svc, nil
}

func (s *Service) load() error {
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return err
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return fmt.Errorf("invalid identity format: %w", err)
	}
	if info.UUID == "" {
		return fmt.Errorf("identity missing UUID")
	}
	if info.Name == "" {
		info.Name = defaultName()
	}

	s.info = info
	return nil
}

func (s *Service) save() error {
	data, err := json.MarshalIndent(s.info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.configPath, data, 0644)
}

// Get returns the current identity.
func (s *Service) Get() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// SetName updates the player name and persists it.
func (s *Service) SetName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.info.Name = name
	return s.save()
}

// UUID returns just the player UUID.
func (s *Service) UUID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info.UUID
}

func defaultName() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "Cassette"
	}
	return hostname
}
