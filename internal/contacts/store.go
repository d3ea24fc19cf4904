// Package contacts owns the selected-contacts setting.
//
// A Store starts uninitialized and loads lazily on first use. Concurrent
// first readers share one load; a failed load leaves the store
// uninitialized so the next caller retries. Stores written by older
// releases hold a single contact under the legacy key, which is migrated
// to the list key on load.
package contacts

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"icabridge/internal/logging"
	"icabridge/internal/store"

	"golang.org/x/sync/singleflight"
)

const (
	// Key holds the selected contacts as a JSON array of strings.
	Key = "selectedContacts"
	// LegacyKey holds a single selected contact as a JSON string.
	LegacyKey = "selectedContact"
)

// State is the load state of a Store.
type State int

const (
	StateUninitialized State = iota
	StateLoaded
)

func (s State) String() string {
	if s == StateLoaded {
		return "loaded"
	}
	return "uninitialized"
}

// Store caches the selected contacts over a settings backend.
type Store struct {
	kv    store.KV
	group singleflight.Group

	mu       sync.RWMutex
	state    State
	contacts []string
	// generation increments on Set, Clear and Invalidate so a load that
	// raced with them does not overwrite newer state.
	generation uint64
}

// New creates an uninitialized store over kv.
func New(kv store.KV) *Store {
	return &Store{kv: kv}
}

// State reports whether the contacts have been loaded.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Selected returns a copy of the selected contacts, loading them first if
// needed.
func (s *Store) Selected(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	if s.state == StateLoaded {
		out := append([]string(nil), s.contacts...)
		s.mu.RUnlock()
		return out, nil
	}
	gen := s.generation
	s.mu.RUnlock()

	// Loads are shared per generation: a caller that arrives after an
	// Invalidate never joins a read that started before it.
	v, err, shared := s.group.Do("load:"+strconv.FormatUint(gen, 10), func() (any, error) {
		return s.load(ctx, gen)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logging.ContactsDebug("shared in-flight contacts load")
	}
	return append([]string(nil), v.([]string)...), nil
}

// SelectedContacts implements ica.ContactSource.
func (s *Store) SelectedContacts(ctx context.Context) ([]string, error) {
	return s.Selected(ctx)
}

// load reads the backend for generation gen. The result is only committed
// when no Set, Clear or Invalidate happened in the meantime.
func (s *Store) load(ctx context.Context, gen uint64) ([]string, error) {
	contacts, err := s.read(ctx)
	if err != nil {
		logging.Get(logging.CategoryContacts).Error("failed to load selected contacts: %v", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		if s.state == StateLoaded {
			return append([]string(nil), s.contacts...), nil
		}
		logging.ContactsDebug("discarding contacts read from generation %d", gen)
		return contacts, nil
	}
	s.contacts = contacts
	s.state = StateLoaded
	logging.Contacts("loaded %d selected contacts", len(contacts))
	return append([]string(nil), contacts...), nil
}

func (s *Store) read(ctx context.Context) ([]string, error) {
	raw, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", Key, err)
	}
	if ok {
		var contacts []string
		if err := json.Unmarshal(raw, &contacts); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", Key, err)
		}
		return Clean(contacts), nil
	}

	raw, ok, err = s.kv.Get(ctx, LegacyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", LegacyKey, err)
	}
	if !ok {
		return []string{}, nil
	}

	var legacy string
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", LegacyKey, err)
	}
	contacts := Clean([]string{legacy})

	if err := s.write(ctx, contacts); err != nil {
		return nil, fmt.Errorf("failed to migrate %s: %w", LegacyKey, err)
	}
	logging.Contacts("migrated legacy contact setting (%d contacts)", len(contacts))
	return contacts, nil
}

// write persists contacts under Key and removes the legacy key.
func (s *Store) write(ctx context.Context, contacts []string) error {
	if len(contacts) == 0 {
		if err := s.kv.Delete(ctx, Key); err != nil {
			return err
		}
	} else {
		data, err := json.Marshal(contacts)
		if err != nil {
			return err
		}
		if err := s.kv.Set(ctx, Key, data); err != nil {
			return err
		}
	}
	if err := s.kv.Delete(ctx, LegacyKey); err != nil {
		return err
	}
	return s.kv.Save(ctx)
}

// Set replaces the selected contacts. Entries are trimmed; blanks and
// repeats are dropped.
func (s *Store) Set(ctx context.Context, contacts []string) ([]string, error) {
	cleaned := Clean(contacts)
	if err := s.write(ctx, cleaned); err != nil {
		return nil, fmt.Errorf("failed to save selected contacts: %w", err)
	}

	s.mu.Lock()
	s.contacts = cleaned
	s.state = StateLoaded
	s.generation++
	s.mu.Unlock()

	logging.Contacts("selected %d contacts", len(cleaned))
	return append([]string(nil), cleaned...), nil
}

// Clear removes every selected contact.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.Set(ctx, nil)
	return err
}

// Invalidate drops the cached contacts; the next read reloads them.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.state = StateUninitialized
	s.contacts = nil
	s.generation++
	s.mu.Unlock()
	logging.ContactsDebug("selected contacts invalidated")
}

// Refresh reloads the contacts from the backend.
func (s *Store) Refresh(ctx context.Context) ([]string, error) {
	s.Invalidate()
	return s.Selected(ctx)
}

// Clean trims every contact and drops blanks and repeats, keeping the
// first occurrence. The result is never nil.
func Clean(contacts []string) []string {
	out := make([]string, 0, len(contacts))
	seen := make(map[string]struct{}, len(contacts))
	for _, c := range contacts {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
