package class

import "testing"

func TestSplitConsolation(t *testing.T) {
	t.Parallel()

	parent, isChild := SplitConsolation("P12~B", DefaultConsolationSuffixes)
	if !isChild || parent != "P12" {
		t.Fatalf("SplitConsolation(P12~B) = %q, %t", parent, isChild)
	}

	if _, isChild := SplitConsolation("P12", DefaultConsolationSuffixes); isChild {
		t.Fatal("P12 must not be a consolation class")
	}
	if _, isChild := SplitConsolation("~B", DefaultConsolationSuffixes); isChild {
		t.Fatal("a bare suffix has no parent shortname")
	}

	parent, isChild = SplitConsolation("HS 2~T", []string{"~T", "~B"})
	if !isChild || parent != "HS 2" {
		t.Fatalf("custom suffix split = %q, %t", parent, isChild)
	}
}

func TestForestLink(t *testing.T) {
	t.Parallel()

	forest := NewForest([]TournamentClass{
		{ID: 1, TournamentIDExt: "t1", ExternalID: "c1", Shortname: "P12"},
		{ID: 2, TournamentIDExt: "t1", ExternalID: "c2", Shortname: "P12~B"},
		{ID: 3, TournamentIDExt: "t1", ExternalID: "c3", Shortname: "P14~B"},
	})

	if err := forest.Link(2, 1); err != nil {
		t.Fatalf("Link error: %v", err)
	}
	child, _ := forest.Get(2)
	if child.ParentID == nil || *child.ParentID != 1 {
		t.Fatalf("child parent = %v, want 1", child.ParentID)
	}

	// relinking to the same parent is a no-op
	if err := forest.Link(2, 1); err != nil {
		t.Fatalf("idempotent relink error: %v", err)
	}

	// a parent pointer is never reassigned
	if err := forest.Link(2, 3); err == nil {
		t.Fatal("expected error reassigning parent")
	}

	// a child cannot itself become a parent
	if err := forest.Link(3, 2); err == nil {
		t.Fatal("expected error linking under a child")
	}

	// a parent cannot become someone's child
	if err := forest.Link(1, 3); err == nil {
		t.Fatal("expected error turning a parent into a child")
	}

	if err := forest.Link(1, 1); err == nil {
		t.Fatal("expected error self-parenting")
	}
}
