// Package domain defines the core entities, value types, and boundary
// contracts of the kincore relationship graph engine.
package domain

import (
	"sort"
	"strings"
)

// Gender identifies the recorded gender of a person.
type Gender string

// Recognized gender values. Required on every person record.
const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
	GenderOther  Gender = "other"
)

// EdgeType identifies the kind of a derived connection.
type EdgeType string

// Derived connection kinds.
const (
	// EdgeParent links a child to its mother or father.
	EdgeParent EdgeType = "parent"
	// EdgeSpouse links a mutual spouse pair exactly once.
	EdgeSpouse EdgeType = "spouse"
	// EdgeLineOnly is a purely visual link with no relational backing.
	EdgeLineOnly EdgeType = "line-only"
)

// NodeStyle selects the rendered node shape.
type NodeStyle string

// Supported node styles.
const (
	NodeStyleCircle    NodeStyle = "circle"
	NodeStyleRectangle NodeStyle = "rectangle"
)

// Position locates a person on the canvas in model coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Visual carries per-person cosmetic attributes.
type Visual struct {
	Color  string  `json:"color"`
	Radius float64 `json:"radius"`
}

// Person is the canonical record for one tree member. Relational ids, when
// present, reference another person by id; a violation is tolerated
// transiently during load and repaired by the cleanup pass.
type Person struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	FatherName string   `json:"fatherName"`
	Surname    string   `json:"surname"`
	MaidenName string   `json:"maidenName"`
	DOB        string   `json:"dob"`
	Gender     Gender   `json:"gender"`
	MotherID   *string  `json:"motherId,omitempty"`
	FatherID   *string  `json:"fatherId,omitempty"`
	SpouseID   *string  `json:"spouseId,omitempty"`
	Position   Position `json:"position"`
	Visual     Visual   `json:"visual"`
}

// Clone returns a deep copy of the person.
func (p Person) Clone() Person {
	cp := p
	cp.MotherID = cloneID(p.MotherID)
	cp.FatherID = cloneID(p.FatherID)
	cp.SpouseID = cloneID(p.SpouseID)
	return cp
}

func cloneID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// Edge is one derived, renderable connection. Edges are never authoritative;
// the full set is recomputed from persons plus suppression sets.
type Edge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Kind EdgeType `json:"type"`
}

// PairKey encodes an unordered id pair as "a-b" with the lexicographically
// smaller id first, so both orders of the same pair map to one key.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "-" + b
}

// SplitPairKey splits a pair key back into its two ids. Generated ids never
// contain a dash, so the first dash is the separator.
func SplitPairKey(key string) (a, b string, ok bool) {
	a, b, ok = strings.Cut(key, "-")
	if !ok || a == "" || b == "" {
		return "", "", false
	}
	return a, b, true
}

// PairSet is a set of pair keys used for render suppression and for
// line-only visual links.
type PairSet map[string]struct{}

// NewPairSet builds a set from pre-encoded pair keys.
func NewPairSet(keys ...string) PairSet {
	s := make(PairSet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Add inserts the key for the unordered pair (a, b).
func (s PairSet) Add(a, b string) { s[PairKey(a, b)] = struct{}{} }

// Remove deletes the key for the unordered pair (a, b).
func (s PairSet) Remove(a, b string) { delete(s, PairKey(a, b)) }

// Has reports whether the unordered pair (a, b) is present.
func (s PairSet) Has(a, b string) bool {
	_, ok := s[PairKey(a, b)]
	return ok
}

// Keys returns all pair keys in lexicographic order.
func (s PairSet) Keys() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of the set.
func (s PairSet) Clone() PairSet {
	out := make(PairSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Camera is the viewport state mapping model coordinates to the canvas.
type Camera struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// Settings holds node and line style knobs applied tree-wide.
type Settings struct {
	DefaultColor  string  `json:"defaultColor"`
	DefaultRadius float64 `json:"defaultRadius"`
	LineColor     string  `json:"lineColor"`
	LineWidth     float64 `json:"lineWidth"`
	FontSize      float64 `json:"fontSize"`
}

// DefaultSettings returns the style knobs applied to a fresh tree.
func DefaultSettings() Settings {
	return Settings{
		DefaultColor:  "#4a90d9",
		DefaultRadius: 28,
		LineColor:     "#777777",
		LineWidth:     1.5,
		FontSize:      13,
	}
}

// DisplayPreferences toggles optional person fields in node labels.
type DisplayPreferences struct {
	ShowMaidenName  bool `json:"showMaidenName"`
	ShowDateOfBirth bool `json:"showDateOfBirth"`
	ShowFatherName  bool `json:"showFatherName"`
}
