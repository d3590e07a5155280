package arena

import "testing"

func TestInsertGetRemove(t *testing.T) {
	var repo Repo[string]

	a := repo.Insert("alpha")
	b := repo.Insert("beta")

	if repo.Len() != 2 {
		t.Fatalf("expected 2 occupied slots, got %d", repo.Len())
	}

	if value, ok := repo.Get(a); !ok || value != "alpha" {
		t.Fatalf("Get(a) = %q, %v", value, ok)
	}
	if value, ok := repo.Get(b); !ok || value != "beta" {
		t.Fatalf("Get(b) = %q, %v", value, ok)
	}

	value, ok := repo.Remove(a)
	if !ok || value != "alpha" {
		t.Fatalf("Remove(a) = %q, %v", value, ok)
	}
	if repo.Contains(a) {
		t.Fatal("removed entry still contained")
	}
	if _, ok := repo.Get(a); ok {
		t.Fatal("removed entry still readable")
	}
}

func TestVersionBumpOnReuse(t *testing.T) {
	var repo Repo[int]

	a := repo.Insert(1)
	repo.Remove(a)

	// The slot is reused with a bumped version; the old entry must stay
	// invalid.
	b := repo.Insert(2)
	if a.Index != b.Index {
		t.Fatalf("expected slot reuse, got %v and %v", a, b)
	}
	if a.Version == b.Version {
		t.Fatal("expected version bump on reuse")
	}
	if repo.Contains(a) {
		t.Fatal("stale entry contained after reuse")
	}
	if value, ok := repo.Get(b); !ok || value != 2 {
		t.Fatalf("Get(b) = %d, %v", value, ok)
	}
}

func TestReserveOccupy(t *testing.T) {
	var repo Repo[string]

	entry := repo.Reserve()
	if repo.Contains(entry) {
		t.Fatal("reserved entry must not be a valid observer")
	}
	if _, ok := repo.Get(entry); ok {
		t.Fatal("reserved entry must not be readable")
	}

	if !repo.Occupy(entry, "value") {
		t.Fatal("Occupy failed on reserved slot")
	}
	if !repo.Contains(entry) {
		t.Fatal("occupied entry not contained")
	}

	// Occupy on an occupied slot replaces in place without a version
	// bump.
	if !repo.Occupy(entry, "replaced") {
		t.Fatal("Occupy failed on occupied slot")
	}
	if value, _ := repo.Get(entry); value != "replaced" {
		t.Fatalf("expected in-place replacement, got %q", value)
	}
}

func TestUpdateKeepsVersion(t *testing.T) {
	var repo Repo[int]

	entry := repo.Insert(10)
	if !repo.Update(entry, 20) {
		t.Fatal("Update failed")
	}
	if value, ok := repo.Get(entry); !ok || value != 20 {
		t.Fatalf("Get = %d, %v", value, ok)
	}
}

func TestNilSentinels(t *testing.T) {
	if !NilEntry().IsNil() {
		t.Fatal("NilEntry not nil")
	}
	if !Nil.IsNil() {
		t.Fatal("Nil id not nil")
	}

	var repo Repo[int]
	if repo.Contains(NilEntry()) {
		t.Fatal("nil entry contained")
	}

	a := NewId()
	b := NewId()
	if a == b || a.IsNil() || b.IsNil() {
		t.Fatalf("ids not unique: %v, %v", a, b)
	}
}

func TestForEach(t *testing.T) {
	var repo Repo[int]
	repo.Insert(1)
	b := repo.Insert(2)
	repo.Insert(3)
	repo.Remove(b)

	total := 0
	repo.ForEach(func(_ Entry, value int) bool {
		total += value
		return true
	})
	if total != 4 {
		t.Fatalf("expected sum 4 over occupied slots, got %d", total)
	}
}
