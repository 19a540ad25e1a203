package session

import "testing"

func TestGetCreatesIdleSession(t *testing.T) {
	store := NewStore()
	sess := store.Get(42)
	if sess == nil {
		t.Fatal("nil session")
	}
	if sess.Stage != StageNone {
		t.Errorf("stage = %d, want StageNone", sess.Stage)
	}
}

func TestGetReturnsSameSession(t *testing.T) {
	store := NewStore()
	first := store.Get(42)
	first.Stage = StageName
	first.Draft.Customer = "Ivanov I."

	second := store.Get(42)
	if second != first {
		t.Error("expected the same session instance")
	}
	if second.Stage != StageName || second.Draft.Customer != "Ivanov I." {
		t.Error("session state lost between lookups")
	}
}

func TestSessionsAreIsolatedPerUser(t *testing.T) {
	store := NewStore()
	store.Get(1).Stage = StageCost
	if store.Get(2).Stage != StageNone {
		t.Error("second user inherited first user's stage")
	}
}

func TestClear(t *testing.T) {
	store := NewStore()
	store.Get(42).Stage = StageNotes
	store.Clear(42)
	if store.Get(42).Stage != StageNone {
		t.Error("stage survived Clear")
	}
}
