package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"kincore/pkg/domain"
)

// graphState is the full mutable state of one tree: the canonical person
// mapping, both suppression sets, display state, camera, and the id counter.
// History snapshots and persisted envelopes are both built from it.
type graphState struct {
	persons  map[string]Person
	hidden   PairSet
	lineOnly PairSet
	settings Settings
	prefs    DisplayPreferences
	style    NodeStyle
	camera   Camera
	nextID   int64
}

func newGraphState() graphState {
	return graphState{
		persons:  make(map[string]Person),
		hidden:   make(PairSet),
		lineOnly: make(PairSet),
		settings: domain.DefaultSettings(),
		style:    NodeStyleCircle,
		camera:   Camera{Scale: 1},
	}
}

func (s graphState) clone() graphState {
	cloned := s
	cloned.persons = make(map[string]Person, len(s.persons))
	for k, v := range s.persons {
		cloned.persons[k] = v.Clone()
	}
	cloned.hidden = s.hidden.Clone()
	cloned.lineOnly = s.lineOnly.Clone()
	return cloned
}

// personIDs returns all person ids in lexicographic order for deterministic
// traversal.
func (s graphState) personIDs() []string {
	out := make([]string, 0, len(s.persons))
	for id := range s.persons {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Store is the canonical relationship store. All mutation goes through
// RunInTransaction: the transaction works on a deep copy and the copy is
// swapped in only when the whole edit succeeds, so a rejected edit leaves
// every field unchanged.
type Store struct {
	mu    sync.RWMutex
	state graphState
	nowFn func() time.Time
}

// NewStore constructs an empty relationship store.
func NewStore() *Store {
	return &Store{
		state: newGraphState(),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// TransactionView exposes a read-only snapshot of the transactional state.
type TransactionView struct {
	state *graphState
}

func newTransactionView(state *graphState) TransactionView {
	return TransactionView{state: state}
}

// ListPersons returns all persons within the snapshot, ordered by id.
func (v TransactionView) ListPersons() []Person {
	ids := v.state.personIDs()
	out := make([]Person, 0, len(ids))
	for _, id := range ids {
		out = append(out, v.state.persons[id].Clone())
	}
	return out
}

// FindPerson retrieves a person by id from the snapshot.
func (v TransactionView) FindPerson(id string) (Person, bool) {
	p, ok := v.state.persons[id]
	if !ok {
		return Person{}, false
	}
	return p.Clone(), true
}

// HiddenConnections returns the render-suppression pair set.
func (v TransactionView) HiddenConnections() PairSet { return v.state.hidden.Clone() }

// LineOnlyConnections returns the purely visual pair set.
func (v TransactionView) LineOnlyConnections() PairSet { return v.state.lineOnly.Clone() }

// Settings returns the tree-wide style knobs.
func (v TransactionView) Settings() Settings { return v.state.settings }

// Preferences returns the display preferences.
func (v TransactionView) Preferences() DisplayPreferences { return v.state.prefs }

// Style returns the node style.
func (v TransactionView) Style() NodeStyle { return v.state.style }

// Camera returns the stored camera state.
func (v TransactionView) Camera() Camera { return v.state.camera }

// NextID returns the id counter.
func (v TransactionView) NextID() int64 { return v.state.nextID }

// RunInTransaction executes fn within a transactional copy of the store
// state; the copy becomes the committed state only if fn returns nil.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{state: s.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(ctx context.Context, fn func(TransactionView) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(newTransactionView(&snapshot))
}

// snapshotState returns a deep copy of the committed state for history use.
func (s *Store) snapshotState() graphState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// restoreState replaces the committed state wholesale.
func (s *Store) restoreState(state graphState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.clone()
}

// Tx is the mutation handle passed to RunInTransaction callbacks.
type Tx struct {
	state graphState
}

// newID mints "p<counter><4 hex>" ids: monotonic counter plus a random
// suffix so two trees merged by hand cannot silently collide. Ids never
// contain a dash; pair keys rely on that.
func (tx *Tx) newID() string {
	tx.state.nextID++
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("p%d%s", tx.state.nextID, hex.EncodeToString(b[:]))
}

func validatePerson(p Person) error {
	if strings.TrimSpace(p.Name) == "" {
		return ValidationError{Field: "name", Reason: "required"}
	}
	if p.Gender == "" {
		return ValidationError{Field: "gender", Reason: "required"}
	}
	return nil
}

// CreatePerson stores a new person within the transaction. Required fields
// are checked before any state is touched.
func (tx *Tx) CreatePerson(p Person) (Person, error) {
	if err := validatePerson(p); err != nil {
		return Person{}, err
	}
	if p.SpouseID != nil && p.ID != "" && *p.SpouseID == p.ID {
		return Person{}, ValidationError{Field: "spouseId", Reason: "must not reference self"}
	}
	if p.ID == "" {
		p.ID = tx.newID()
	}
	if _, exists := tx.state.persons[p.ID]; exists {
		return Person{}, fmt.Errorf("person %q already exists", p.ID)
	}
	if p.Visual.Color == "" {
		p.Visual.Color = tx.state.settings.DefaultColor
	}
	if p.Visual.Radius == 0 {
		p.Visual.Radius = tx.state.settings.DefaultRadius
	}
	tx.state.persons[p.ID] = p.Clone()
	return p.Clone(), nil
}

// UpdatePerson mutates a person using the provided mutator function.
func (tx *Tx) UpdatePerson(id string, mutator func(*Person) error) (Person, error) {
	current, ok := tx.state.persons[id]
	if !ok {
		return Person{}, ErrNotFound{ID: id}
	}
	working := current.Clone()
	if err := mutator(&working); err != nil {
		return Person{}, err
	}
	working.ID = id
	if err := validatePerson(working); err != nil {
		return Person{}, err
	}
	if working.SpouseID != nil && *working.SpouseID == id {
		return Person{}, ValidationError{Field: "spouseId", Reason: "must not reference self"}
	}
	tx.state.persons[id] = working.Clone()
	return working, nil
}

// DeletePerson removes a person. Relational ids in other records that point
// at the removed person are left in place; derivation skips them.
func (tx *Tx) DeletePerson(id string) error {
	if _, ok := tx.state.persons[id]; !ok {
		return ErrNotFound{ID: id}
	}
	delete(tx.state.persons, id)
	return nil
}

// FindPerson retrieves a person from the transactional state.
func (tx *Tx) FindPerson(id string) (Person, bool) {
	p, ok := tx.state.persons[id]
	if !ok {
		return Person{}, false
	}
	return p.Clone(), true
}

// HideConnection suppresses rendering for the unordered pair (a, b) while
// keeping the underlying relation in the store.
func (tx *Tx) HideConnection(a, b string) { tx.state.hidden.Add(a, b) }

// ShowConnection lifts a render suppression.
func (tx *Tx) ShowConnection(a, b string) { tx.state.hidden.Remove(a, b) }

// AddLineOnly records a purely visual link between two ids.
func (tx *Tx) AddLineOnly(a, b string) { tx.state.lineOnly.Add(a, b) }

// RemoveLineOnly drops a purely visual link.
func (tx *Tx) RemoveLineOnly(a, b string) { tx.state.lineOnly.Remove(a, b) }

// SetCamera stores the camera state.
func (tx *Tx) SetCamera(c Camera) { tx.state.camera = c }

// SetSettings replaces the tree-wide style knobs.
func (tx *Tx) SetSettings(s Settings) { tx.state.settings = s }

// SetPreferences replaces the display preferences.
func (tx *Tx) SetPreferences(p DisplayPreferences) { tx.state.prefs = p }

// SetStyle replaces the node style.
func (tx *Tx) SetStyle(s NodeStyle) { tx.state.style = s }

// Read helpers ---------------------------------------------------------------

// GetPerson retrieves a person by id from committed state.
func (s *Store) GetPerson(id string) (Person, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.persons[id]
	if !ok {
		return Person{}, false
	}
	return p.Clone(), true
}

// ListPersons returns all persons from committed state, ordered by id.
func (s *Store) ListPersons() []Person {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.state.personIDs()
	out := make([]Person, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.state.persons[id].Clone())
	}
	return out
}

// PersonCount returns the number of persons in committed state.
func (s *Store) PersonCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.persons)
}

// ErrNotFound is returned when a referenced person does not exist.
type ErrNotFound struct {
	ID string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("person %s not found", e.ID)
}

