package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRecognized(t *testing.T) {
	cases := []struct {
		name string
		snap Snapshot
		want bool
	}{
		{"version only", Snapshot{Version: "2.0"}, true},
		{"persons only", Snapshot{Persons: []PersonSnapshot{}}, true},
		{"legacy version", Snapshot{Version: "1.0"}, true},
		{"empty", Snapshot{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.snap.Recognized(); got != tc.want {
				t.Fatalf("Recognized() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestUnrelatedJSONIsNotRecognized(t *testing.T) {
	var snap Snapshot
	if err := json.Unmarshal([]byte(`{"widgets":[1,2,3],"title":"x"}`), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.Recognized() {
		t.Fatalf("arbitrary JSON object must not be recognized")
	}
}

func TestCompressKeepsGraphDropsCosmetics(t *testing.T) {
	mother := "p1"
	snap := Snapshot{
		Version:     SnapshotVersion,
		CacheFormat: FormatEnhanced,
		Settings:    &Settings{DefaultColor: "#fff"},
		NodeStyle:   NodeStyleRectangle,
		Persons: []PersonSnapshot{{
			ID: "p2", X: 10, Y: 20, Name: "Ada", Gender: GenderFemale,
			Surname: "Lovelace", Color: "#abc", Radius: 40, MotherID: &mother,
		}},
		NextID: 2,
	}

	out := snap.Compress()
	if out.CacheFormat != FormatCompressed {
		t.Fatalf("cacheFormat = %s", out.CacheFormat)
	}
	if out.Settings != nil || out.DisplayPreferences != nil || out.NodeStyle != "" {
		t.Fatalf("cosmetic envelope fields must be stripped")
	}
	p := out.Persons[0]
	if p.Surname != "" || p.Color != "" || p.Radius != 0 {
		t.Fatalf("cosmetic person fields must be stripped: %+v", p)
	}
	if p.ID != "p2" || p.X != 10 || p.Y != 20 || p.MotherID == nil || *p.MotherID != "p1" {
		t.Fatalf("graph-bearing fields must survive: %+v", p)
	}
	if out.NextID != 2 {
		t.Fatalf("id counter must survive compression")
	}

	// The input is untouched.
	if snap.Persons[0].Surname != "Lovelace" {
		t.Fatalf("Compress mutated its receiver")
	}
}

func TestEnvelopeWireNamesAreCamelCase(t *testing.T) {
	spouse := "p1"
	snap := Snapshot{
		Version: SnapshotVersion,
		Persons: []PersonSnapshot{{ID: "p2", Name: "Ada", Gender: GenderFemale, SpouseID: &spouse}},
	}
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"cacheFormat"`, `"hiddenConnections"`, `"lineOnlyConnections"`, `"nextId"`, `"spouseId"`} {
		if !strings.Contains(string(data), key) {
			t.Fatalf("wire form missing %s: %s", key, data)
		}
	}
}

func TestPersonSnapshotRoundTrip(t *testing.T) {
	father := "p9"
	p := Person{
		ID:       "p3",
		Name:     "Grace",
		Gender:   GenderFemale,
		DOB:      "1906-12-09",
		FatherID: &father,
		Position: Position{X: 1.5, Y: -2},
		Visual:   Visual{Color: "#4a90d9", Radius: 28},
	}
	got := SnapshotPerson(p).ToPerson()
	if got.ID != p.ID || got.DOB != p.DOB || got.Position != p.Position || got.Visual != p.Visual {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.FatherID == nil || *got.FatherID != father {
		t.Fatalf("relational id lost in round trip")
	}
	*got.FatherID = "px"
	if *p.FatherID != "p9" {
		t.Fatalf("round trip shares pointers with input")
	}
}
