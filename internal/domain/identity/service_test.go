package identity

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewServiceGeneratesUUID(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "identity.json")

	svc, err := NewService(configPath)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	info := svc.Get()

	if info.UUID == "" {
		t.Error("UUID should not be empty")
	}
	// UUID should be valid format (36 chars with dashes)
	if len(info.UUID) != 36 {
		t.Errorf("UUID should be 36 characters, got %d: %s", len(info.UUID), info.UUID)
	}
	if info.Name == "" {
		t.Error("Name should have a default")
	}
}

func TestNewServicePersistsUUID(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "identity.json")

	svc1, err := NewService(configPath)
	if err != nil {
		t.Fatalf("NewService (1) failed: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Identity file should have been created")
	}

	svc2, err := NewService(configPath)
	if err != nil {
		t.Fatalf("NewService (2) failed: %v", err)
	}

	if svc1.UUID() != svc2.UUID() {
		t.Errorf("UUID should persist across restarts: %s != %s", svc1.UUID(), svc2.UUID())
	}
}

func TestNewServiceLoadsExistingIdentity(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "identity.json")

	knownUUID := "550e8400-e29b-41d4-a716-446655440000"
	content := `{"uuid":"` + knownUUID + `","name":"Living Room"}`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write identity file: %v", err)
	}

	svc, err := NewService(configPath)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	info := svc.Get()
	if info.UUID != knownUUID {
		t.Errorf("Should load existing UUID: got %s, want %s", info.UUID, knownUUID)
	}
	if info.Name != "Living Room" {
		t.Errorf("Should load existing name: got %s, want Living Room", info.Name)
	}
}

func TestSetName(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "identity.json")

	svc, err := NewService(configPath)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	newName := "Kitchen Player"
	if err := svc.SetName(newName); err != nil {
		t.Fatalf("SetName failed: %v", err)
	}
	if svc.Get().Name != newName {
		t.Errorf("Name should be updated: got %s, want %s", svc.Get().Name, newName)
	}

	// Reload to verify persistence
	svc2, err := NewService(configPath)
	if err != nil {
		t.Fatalf("NewService (2) failed: %v", err)
	}
	if svc2.Get().Name != newName {
		t.Error("Name should persist")
	}
}
