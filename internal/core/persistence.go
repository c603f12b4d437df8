package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	stcore "kincore/internal/storage/core"
	"kincore/pkg/domain"
)

// Persistence defaults.
const (
	// DefaultPrimaryKey is the storage key of the authoritative snapshot.
	DefaultPrimaryKey = "state"
	// DefaultQuotaBytes is the serialized size above which the reduced
	// snapshot is written instead.
	DefaultQuotaBytes = 5 * 1024 * 1024
	// DefaultMaxBackups is how many timestamped backups are retained.
	DefaultMaxBackups = 3
)

// Controller owns versioned save/load of the snapshot envelope: quota
// fallback, backup rotation through an ordered manifest, and boundary
// validation on the way back in.
type Controller struct {
	store      stcore.Store
	key        string
	quota      int
	maxBackups int
	nowFn      func() time.Time
	metrics    MetricsRecorder
}

// ControllerOption customizes a Controller.
type ControllerOption func(*Controller)

// WithPrimaryKey overrides the primary storage key.
func WithPrimaryKey(key string) ControllerOption {
	return func(c *Controller) { c.key = key }
}

// WithQuota overrides the compressed-fallback threshold in bytes.
func WithQuota(bytes int) ControllerOption {
	return func(c *Controller) { c.quota = bytes }
}

// WithMaxBackups overrides how many backups are retained.
func WithMaxBackups(n int) ControllerOption {
	return func(c *Controller) { c.maxBackups = n }
}

// WithNowFunc injects the clock, used by tests.
func WithNowFunc(fn func() time.Time) ControllerOption {
	return func(c *Controller) { c.nowFn = fn }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) ControllerOption {
	return func(c *Controller) { c.metrics = m }
}

// NewController constructs a persistence controller over the given storage
// backend.
func NewController(store stcore.Store, opts ...ControllerOption) *Controller {
	c := &Controller{
		store:      store,
		key:        DefaultPrimaryKey,
		quota:      DefaultQuotaBytes,
		maxBackups: DefaultMaxBackups,
		nowFn:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	c.metrics = orNoopMetrics(c.metrics)
	return c
}

func (c *Controller) backupKey(ts int64) string {
	return fmt.Sprintf("%s.backup.%d", c.key, ts)
}

func (c *Controller) manifestKey() string {
	return c.key + ".manifest"
}

// Save stamps and serializes the envelope, falling back to the reduced
// snapshot when over quota, then writes the primary entry, a timestamped
// backup, and the rotated manifest. Saves are always full overwrites.
func (c *Controller) Save(ctx context.Context, snap Snapshot) error {
	now := c.nowFn()
	snap.Version = domain.SnapshotVersion
	snap.Timestamp = now.UnixMilli()
	if snap.CacheFormat == "" {
		snap.CacheFormat = domain.FormatEnhanced
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if len(payload) > c.quota {
		c.metrics.Add(ctx, CounterQuotaFallbacks, 1)
		reduced := snap.Compress()
		payload, err = json.Marshal(reduced)
		if err != nil {
			return fmt.Errorf("encode reduced snapshot: %w", err)
		}
		if len(payload) > c.quota {
			c.metrics.Add(ctx, CounterSaveFailures, 1)
			return StorageQuotaError{Size: len(payload), Limit: c.quota}
		}
	}

	if err := c.store.Put(ctx, c.key, payload); err != nil {
		c.metrics.Add(ctx, CounterSaveFailures, 1)
		return StorageWriteError{Key: c.key, Err: err}
	}
	if err := c.rotateBackups(ctx, snap.Timestamp, payload); err != nil {
		c.metrics.Add(ctx, CounterSaveFailures, 1)
		return err
	}
	return nil
}

// rotateBackups writes the timestamped backup and trims the manifest down
// to the newest maxBackups entries, deleting evicted payloads.
func (c *Controller) rotateBackups(ctx context.Context, ts int64, payload []byte) error {
	key := c.backupKey(ts)
	if err := c.store.Put(ctx, key, payload); err != nil {
		return StorageWriteError{Key: key, Err: err}
	}

	manifest, err := c.Manifest(ctx)
	if err != nil {
		return err
	}
	manifest.Entries = append(manifest.Entries, domain.BackupEntry{Key: key, Timestamp: ts})
	sort.Slice(manifest.Entries, func(i, j int) bool {
		return manifest.Entries[i].Timestamp > manifest.Entries[j].Timestamp
	})
	for _, old := range manifest.Entries[min(len(manifest.Entries), c.maxBackups):] {
		if _, err := c.store.Delete(ctx, old.Key); err != nil {
			return StorageWriteError{Key: old.Key, Err: err}
		}
	}
	if len(manifest.Entries) > c.maxBackups {
		manifest.Entries = manifest.Entries[:c.maxBackups]
	}

	data, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := c.store.Put(ctx, c.manifestKey(), data); err != nil {
		return StorageWriteError{Key: c.manifestKey(), Err: err}
	}
	return nil
}

// Manifest reads the ordered backup manifest; a missing or unreadable
// manifest is an empty one.
func (c *Controller) Manifest(ctx context.Context) (domain.BackupManifest, error) {
	data, err := c.store.Get(ctx, c.manifestKey())
	if errors.Is(err, stcore.ErrNotFound) {
		return domain.BackupManifest{}, nil
	}
	if err != nil {
		return domain.BackupManifest{}, err
	}
	var manifest domain.BackupManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return domain.BackupManifest{}, nil
	}
	return manifest, nil
}

// Load reads and validates the primary snapshot. ok is false with a nil
// error when there is no prior state to restore: the key is absent, or the
// payload does not parse (corrupted state is handled identically to
// absence and never crashes the caller). A payload that parses but carries
// neither a version marker nor a persons collection is rejected with
// LoadFormatError, leaving prior in-memory state untouched.
func (c *Controller) Load(ctx context.Context) (Snapshot, bool, error) {
	data, err := c.store.Get(ctx, c.key)
	if errors.Is(err, stcore.ErrNotFound) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		c.metrics.Add(ctx, CounterCorruptLoads, 1)
		return Snapshot{}, false, nil
	}
	if !snap.Recognized() {
		c.metrics.Add(ctx, CounterRejectedLoads, 1)
		return Snapshot{}, false, LoadFormatError{Reason: "no version marker or persons collection"}
	}
	return snap, true, nil
}

// buildSnapshot flattens a graph state into the persisted envelope,
// including the redundant relational map used by the recovery pass.
func buildSnapshot(state graphState, camera Camera) Snapshot {
	ids := state.personIDs()
	persons := make([]domain.PersonSnapshot, 0, len(ids))
	relations := make(map[string]domain.RelationSnapshot, len(ids))
	for _, id := range ids {
		p := state.persons[id]
		persons = append(persons, domain.SnapshotPerson(p))
		if p.MotherID != nil || p.FatherID != nil || p.SpouseID != nil {
			relations[id] = domain.RelationSnapshot{
				MotherID: p.MotherID,
				FatherID: p.FatherID,
				SpouseID: p.SpouseID,
			}
		}
	}
	settings := state.settings
	prefs := state.prefs
	return Snapshot{
		CacheFormat:         domain.FormatEnhanced,
		Settings:            &settings,
		DisplayPreferences:  &prefs,
		NodeStyle:           state.style,
		Camera:              camera,
		HiddenConnections:   state.hidden.Keys(),
		LineOnlyConnections: state.lineOnly.Keys(),
		Persons:             persons,
		Relations:           relations,
		NextID:              state.nextID,
	}
}

// stateFromSnapshot expands an accepted envelope into a fresh graph state.
// Reduced snapshots keep default settings and style.
func stateFromSnapshot(snap Snapshot) graphState {
	state := newGraphState()
	for _, ps := range snap.Persons {
		p := ps.ToPerson()
		if p.ID == "" {
			continue
		}
		state.persons[p.ID] = p
	}
	state.hidden = domain.NewPairSet(snap.HiddenConnections...)
	state.lineOnly = domain.NewPairSet(snap.LineOnlyConnections...)
	if snap.Settings != nil {
		state.settings = *snap.Settings
	}
	if snap.DisplayPreferences != nil {
		state.prefs = *snap.DisplayPreferences
	}
	if snap.NodeStyle != "" {
		state.style = snap.NodeStyle
	}
	state.camera = snap.Camera
	if state.camera.Scale == 0 {
		state.camera.Scale = 1
	}
	state.nextID = snap.NextID
	return state
}
