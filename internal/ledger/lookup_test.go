package ledger

import (
	"errors"
	"testing"
)

func TestFindQuest(t *testing.T) {
	s := DefaultState()

	tests := []struct {
		ref     string
		wantID  string
		wantErr error
	}{
		{"q7", "q7", nil},
		{"skydiving", "q7", nil},
		{"Learn", "q4", nil},
		{"skydivng", "q7", nil},
		{"Go on a", "q2", nil},
		{"Build a personel website", "q5", nil},
		{"Travel", "", ErrNotFound},
		{"xx", "", ErrNotFound},
		{"", "", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			q, err := FindQuest(s, tt.ref)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if q.ID != tt.wantID {
				t.Errorf("id = %q, want %q", q.ID, tt.wantID)
			}
		})
	}
}

func TestFindQuest_AmbiguousPrefix(t *testing.T) {
	s := DefaultState()
	s.Quests = append(s.Quests, s.Quests[3])
	s.Quests[len(s.Quests)-1].ID = "q9"
	s.Quests[len(s.Quests)-1].Title = "Learn Go"

	if _, err := FindQuest(s, "learn"); !errors.Is(err, ErrAmbiguous) {
		t.Errorf("err = %v, want ErrAmbiguous", err)
	}
}
