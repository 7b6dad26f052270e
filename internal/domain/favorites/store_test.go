package favorites_test

import (
	"errors"
	"testing"

	"github.com/mhilario/cassette-player-backend/internal/domain/favorites"
)

type fakePersistence struct {
	saved     [][]string
	loaded    []string
	loadErr   error
	saveErr   error
	saveCalls int
}

func (f *fakePersistence) LoadFavorites() ([]string, error) {
	return f.loaded, f.loadErr
}

func (f *fakePersistence) SaveFavorites(ids []string) error {
	f.saveCalls++
	snapshot := make([]string, len(ids))
	copy(snapshot, ids)
	f.saved = append(f.saved, snapshot)
	return f.saveErr
}

func TestToggleAddsAndRemoves(t *testing.T) {
	db := &fakePersistence{}
	s := favorites.NewStore(db)

	if s.IsFavorite("t1") {
		t.Fatal("expected t1 not to be a favorite initially")
	}

	if added := s.Toggle("t1"); !added {
		t.Error("expected toggle to report added")
	}
	if !s.IsFavorite("t1") {
		t.Error("expected t1 to be a favorite after toggle")
	}

	if added := s.Toggle("t1"); added {
		t.Error("expected second toggle to report removed")
	}
	if s.IsFavorite("t1") {
		t.Error("expected t1 not to be a favorite after double toggle")
	}
}

func TestToggleTwiceIsIdempotentOnSet(t *testing.T) {
	db := &fakePersistence{loaded: []string{"a", "b"}}
	s := favorites.NewStore(db)

	before := s.IsFavorite("b")
	s.Toggle("b")
	s.Toggle("b")
	if s.IsFavorite("b") != before {
		t.Error("expected membership unchanged after double toggle")
	}
}

func TestToggleWritesThroughEveryTime(t *testing.T) {
	db := &fakePersistence{}
	s := favorites.NewStore(db)

	s.Toggle("a")
	s.Toggle("b")
	s.Toggle("a")

	if db.saveCalls != 3 {
		t.Fatalf("expected 3 persisted writes, got %d", db.saveCalls)
	}
	last := db.saved[len(db.saved)-1]
	if len(last) != 1 || last[0] != "b" {
		t.Errorf("expected final persisted set [b], got %v", last)
	}
}

func TestLoadFailureYieldsEmptySet(t *testing.T) {
	db := &fakePersistence{loadErr: errors.New("corrupt data")}
	s := favorites.NewStore(db)

	if s.Count() != 0 {
		t.Fatalf("expected empty set on load failure, got %d", s.Count())
	}
}

func TestSaveFailureKeepsMemoryAuthoritative(t *testing.T) {
	db := &fakePersistence{saveErr: errors.New("disk full")}
	s := favorites.NewStore(db)

	s.Toggle("a")
	if !s.IsFavorite("a") {
		t.Error("expected in-memory set to retain toggle despite save failure")
	}
}

func TestLoadDeduplicates(t *testing.T) {
	db := &fakePersistence{loaded: []string{"a", "b", "a"}}
	s := favorites.NewStore(db)

	if s.Count() != 2 {
		t.Fatalf("expected 2 favorites after dedup, got %d", s.Count())
	}
}
