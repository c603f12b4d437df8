package core

// cleanupState clears any relational id equal to the record's own id and
// reports one IntegrityError per cleared relation. A second pass over an
// already-cleaned state is a no-op.
func cleanupState(state *graphState) []IntegrityError {
	var repairs []IntegrityError
	for _, id := range state.personIDs() {
		p := state.persons[id]
		changed := false
		if p.MotherID != nil && *p.MotherID == id {
			p.MotherID = nil
			repairs = append(repairs, IntegrityError{PersonID: id, Relation: "motherId"})
			changed = true
		}
		if p.FatherID != nil && *p.FatherID == id {
			p.FatherID = nil
			repairs = append(repairs, IntegrityError{PersonID: id, Relation: "fatherId"})
			changed = true
		}
		if p.SpouseID != nil && *p.SpouseID == id {
			p.SpouseID = nil
			repairs = append(repairs, IntegrityError{PersonID: id, Relation: "spouseId"})
			changed = true
		}
		if changed {
			state.persons[id] = p
		}
	}
	return repairs
}

// Cleanup runs the integrity pass over committed state. It is invoked once
// after every load, before the first derivation, and never fails: repairs
// are recorded, not surfaced.
func (s *Store) Cleanup() []IntegrityError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cleanupState(&s.state)
}
