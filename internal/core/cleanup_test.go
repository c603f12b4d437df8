package core

import (
	"context"
	"testing"

	"kincore/pkg/domain"
)

func TestCleanupClearsSelfReferences(t *testing.T) {
	s := NewStore()
	self := "p1"
	if err := s.RunInTransaction(context.Background(), func(tx *Tx) error {
		_, err := tx.CreatePerson(Person{ID: "p1", Name: "Ada", Gender: domain.GenderFemale})
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Corrupt the record the way an imported snapshot can: every relation
	// pointing back at the record itself.
	if err := s.RunInTransaction(context.Background(), func(tx *Tx) error {
		tx.state.persons["p1"] = Person{
			ID: "p1", Name: "Ada", Gender: domain.GenderFemale,
			MotherID: &self, FatherID: &self, SpouseID: &self,
		}
		return nil
	}); err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	repairs := s.Cleanup()
	if len(repairs) != 3 {
		t.Fatalf("expected 3 repairs, got %d: %v", len(repairs), repairs)
	}
	got, _ := s.GetPerson("p1")
	if got.MotherID != nil || got.FatherID != nil || got.SpouseID != nil {
		t.Fatalf("self references must be cleared: %+v", got)
	}

	if repairs = s.Cleanup(); len(repairs) != 0 {
		t.Fatalf("second pass must be a no-op, got %v", repairs)
	}
}

func TestCleanupKeepsValidRelations(t *testing.T) {
	s := NewStore()
	mother := "p1"
	if err := s.RunInTransaction(context.Background(), func(tx *Tx) error {
		if _, err := tx.CreatePerson(Person{ID: "p1", Name: "Mother", Gender: domain.GenderFemale}); err != nil {
			return err
		}
		_, err := tx.CreatePerson(Person{ID: "p2", Name: "Child", Gender: domain.GenderMale, MotherID: &mother})
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if repairs := s.Cleanup(); len(repairs) != 0 {
		t.Fatalf("valid relation repaired: %v", repairs)
	}
	got, _ := s.GetPerson("p2")
	if got.MotherID == nil || *got.MotherID != "p1" {
		t.Fatalf("valid relation lost")
	}
}
