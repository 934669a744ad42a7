package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestWithQuestID_RoundTrip(t *testing.T) {
	ctx := WithQuestID(context.Background(), "q1")

	got, err := QuestIDFromContext(ctx)
	if err != nil {
		t.Fatalf("QuestIDFromContext returned error: %v", err)
	}
	if got != "q1" {
		t.Errorf("got %q, want q1", got)
	}
}

func TestQuestIDFromContext_Missing(t *testing.T) {
	if _, err := QuestIDFromContext(context.Background()); err != ErrNoQuestIDInContext {
		t.Errorf("error = %v, want ErrNoQuestIDInContext", err)
	}
	if _, err := QuestIDFromContext(WithQuestID(context.Background(), "")); err != ErrNoQuestIDInContext {
		t.Errorf("error = %v, want ErrNoQuestIDInContext for empty id", err)
	}
}

func TestMustQuestIDFromContext_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustQuestIDFromContext did not panic")
		}
	}()
	MustQuestIDFromContext(context.Background())
}

func TestQuestIDMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantID     string
	}{
		{"builtin id", "/quests/q1", http.StatusOK, "q1"},
		{"ulid", "/quests/01ARZ3NDEKTSV4RRFFQ69G5FAV", http.StatusOK, "01ARZ3NDEKTSV4RRFFQ69G5FAV"},
		{"bad characters", "/quests/q1%20or%201", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID string
			r := chi.NewRouter()
			r.With(QuestIDMiddleware).Get("/quests/{id}", func(w http.ResponseWriter, r *http.Request) {
				gotID = MustQuestIDFromContext(r.Context())
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if gotID != tt.wantID {
				t.Errorf("id = %q, want %q", gotID, tt.wantID)
			}
		})
	}
}
