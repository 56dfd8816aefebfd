package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestRoster_UnmarshalKeepsOrder(t *testing.T) {
	var r Roster
	if err := json.Unmarshal([]byte(`{"data":["Zo","Aina","Zo"]}`), &r); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !reflect.DeepEqual(r.Developers, []string{"Zo", "Aina", "Zo"}) {
		t.Errorf("Roster must not be sorted or deduped: %v", r.Developers)
	}
}

func TestRoster_UnmarshalRejectsGarbage(t *testing.T) {
	bodies := []string{`"Rina"`, `{"data":"Rina"}`, `42`}
	for _, body := range bodies {
		var r Roster
		if err := json.Unmarshal([]byte(body), &r); err == nil {
			t.Errorf("Expected error for %s, got %+v", body, r)
		}
	}
}
