package domain

// Snapshot is the versioned envelope written to storage and read once at
// startup. It is the single tagged shape validated at the storage boundary;
// anything that carries neither a version marker nor a persons collection is
// rejected as unrecognized.
type Snapshot struct {
	Version             string                      `json:"version"`
	Timestamp           int64                       `json:"timestamp"`
	CacheFormat         string                      `json:"cacheFormat"`
	Settings            *Settings                   `json:"settings,omitempty"`
	DisplayPreferences  *DisplayPreferences         `json:"displayPreferences,omitempty"`
	NodeStyle           NodeStyle                   `json:"nodeStyle,omitempty"`
	Camera              Camera                      `json:"camera"`
	HiddenConnections   []string                    `json:"hiddenConnections"`
	LineOnlyConnections []string                    `json:"lineOnlyConnections"`
	Persons             []PersonSnapshot            `json:"persons"`
	Relations           map[string]RelationSnapshot `json:"relations,omitempty"`
	NextID              int64                       `json:"nextId"`
}

// Envelope format identifiers.
const (
	// SnapshotVersion is the marker stamped on every snapshot this build writes.
	SnapshotVersion = "2.0"
	// FormatEnhanced is the full snapshot including cosmetic settings.
	FormatEnhanced = "enhanced"
	// FormatCompressed is the reduced snapshot emitted when the serialized
	// size exceeds the storage quota. It retains only what is needed to
	// reconstruct the relationship graph.
	FormatCompressed = "compressed"
)

// PersonSnapshot is the flat wire form of a person record.
type PersonSnapshot struct {
	ID         string  `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Name       string  `json:"name"`
	FatherName string  `json:"fatherName,omitempty"`
	Surname    string  `json:"surname,omitempty"`
	MaidenName string  `json:"maidenName,omitempty"`
	DOB        string  `json:"dob,omitempty"`
	Gender     Gender  `json:"gender"`
	Color      string  `json:"color,omitempty"`
	Radius     float64 `json:"radius,omitempty"`
	MotherID   *string `json:"motherId,omitempty"`
	FatherID   *string `json:"fatherId,omitempty"`
	SpouseID   *string `json:"spouseId,omitempty"`
}

// RelationSnapshot is the redundant relational-map entry carried alongside
// persons. It exists solely for the zero-edge recovery pass after a load.
type RelationSnapshot struct {
	MotherID *string `json:"motherId,omitempty"`
	FatherID *string `json:"fatherId,omitempty"`
	SpouseID *string `json:"spouseId,omitempty"`
}

// Recognized reports whether the envelope carries a version marker or a
// persons collection. Any other shape must be rejected at the boundary.
func (s Snapshot) Recognized() bool {
	return s.Version != "" || s.Persons != nil
}

// ToPerson expands the wire form into a full person record.
func (ps PersonSnapshot) ToPerson() Person {
	return Person{
		ID:         ps.ID,
		Name:       ps.Name,
		FatherName: ps.FatherName,
		Surname:    ps.Surname,
		MaidenName: ps.MaidenName,
		DOB:        ps.DOB,
		Gender:     ps.Gender,
		MotherID:   cloneID(ps.MotherID),
		FatherID:   cloneID(ps.FatherID),
		SpouseID:   cloneID(ps.SpouseID),
		Position:   Position{X: ps.X, Y: ps.Y},
		Visual:     Visual{Color: ps.Color, Radius: ps.Radius},
	}
}

// SnapshotPerson flattens a person record into its wire form.
func SnapshotPerson(p Person) PersonSnapshot {
	return PersonSnapshot{
		ID:         p.ID,
		X:          p.Position.X,
		Y:          p.Position.Y,
		Name:       p.Name,
		FatherName: p.FatherName,
		Surname:    p.Surname,
		MaidenName: p.MaidenName,
		DOB:        p.DOB,
		Gender:     p.Gender,
		Color:      p.Visual.Color,
		Radius:     p.Visual.Radius,
		MotherID:   cloneID(p.MotherID),
		FatherID:   cloneID(p.FatherID),
		SpouseID:   cloneID(p.SpouseID),
	}
}

// Compress strips cosmetic fields from the envelope, retaining ids,
// positions, relational ids, suppression sets, and counters.
func (s Snapshot) Compress() Snapshot {
	out := s
	out.CacheFormat = FormatCompressed
	out.Settings = nil
	out.DisplayPreferences = nil
	out.NodeStyle = ""
	out.Persons = make([]PersonSnapshot, len(s.Persons))
	for i, p := range s.Persons {
		out.Persons[i] = PersonSnapshot{
			ID:       p.ID,
			X:        p.X,
			Y:        p.Y,
			Name:     p.Name,
			Gender:   p.Gender,
			MotherID: cloneID(p.MotherID),
			FatherID: cloneID(p.FatherID),
			SpouseID: cloneID(p.SpouseID),
		}
	}
	return out
}

// BackupEntry identifies one rotated backup snapshot.
type BackupEntry struct {
	Key       string `json:"key"`
	Timestamp int64  `json:"timestamp"`
}

// BackupManifest is the ordered list of retained backups, newest first. It
// is stored alongside the primary entry so rotation never scans storage.
type BackupManifest struct {
	Entries []BackupEntry `json:"entries"`
}
