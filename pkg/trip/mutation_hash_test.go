package trip

import "testing"

func TestMutationHashIsStableForIdenticalTrips(t *testing.T) {
	a := &Trip{TripID: "t1", ProviderID: "p1", Accuracy: 5, StartTime: 1, EndTime: 2}
	b := &Trip{TripID: "t1", ProviderID: "p1", Accuracy: 5, StartTime: 1, EndTime: 2}

	ha, err := MutationHash(a)
	if err != nil {
		t.Fatal(err)
	}
	hb, err := MutationHash(b)
	if err != nil {
		t.Fatal(err)
	}
	if ha != hb {
		t.Errorf("expected identical trips to hash the same, got %q != %q", ha, hb)
	}
}

func TestMutationHashChangesWhenFieldChanges(t *testing.T) {
	a := &Trip{TripID: "t1", Accuracy: 5}
	b := &Trip{TripID: "t1", Accuracy: 6}

	ha, _ := MutationHash(a)
	hb, _ := MutationHash(b)
	if ha == hb {
		t.Error("expected different accuracy to change the hash")
	}
}
