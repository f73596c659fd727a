package events

import (
	"fmt"
	"testing"
)

func TestRecordAndRead(t *testing.T) {
	log := NewInMemoryLog(0)
	log.Record(TypeOrderAssigned, "O-1", "assigned G-1")
	log.Record(TypeOrderUnmet, "O-2", "no generator can supply")
	log.Record(TypeRescanCompleted, "rescan", "2 orders processed")

	all := log.All()
	if len(all) != 3 {
		t.Fatalf("got %d events, want 3", len(all))
	}
	if all[0].Version != 1 || all[2].Version != 3 {
		t.Errorf("versions not monotonic: %+v", all)
	}

	byStream := log.ByStream("O-1")
	if len(byStream) != 1 || byStream[0].Type != TypeOrderAssigned {
		t.Errorf("unexpected stream read: %+v", byStream)
	}
}

func TestCapDropsOldest(t *testing.T) {
	log := NewInMemoryLog(5)
	for i := 0; i < 8; i++ {
		log.Record(TypeOrderAssigned, fmt.Sprintf("O-%d", i), "assigned")
	}
	all := log.All()
	if len(all) != 5 {
		t.Fatalf("got %d events, want 5", len(all))
	}
	if all[0].StreamID != "O-3" {
		t.Errorf("oldest retained = %s, want O-3", all[0].StreamID)
	}
	if all[4].Version != 8 {
		t.Errorf("versions must keep counting across drops, got %d", all[4].Version)
	}
}
