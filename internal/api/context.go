package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/liferpg/internal/validation"
)

// questIDContextKey is the context key for the validated quest id.
type questIDContextKey struct{}

// ErrNoQuestIDInContext indicates no quest id was found in the context.
var ErrNoQuestIDInContext = errors.New("no quest id in context")

// WithQuestID returns a new context with the quest id attached.
func WithQuestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, questIDContextKey{}, id)
}

// QuestIDFromContext extracts the quest id from the context.
// Returns ErrNoQuestIDInContext if not present or empty.
func QuestIDFromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(questIDContextKey{}).(string)
	if !ok || id == "" {
		return "", ErrNoQuestIDInContext
	}
	return id, nil
}

// MustQuestIDFromContext extracts the quest id or panics.
// Use only when QuestIDMiddleware guarantees its presence.
func MustQuestIDFromContext(ctx context.Context) string {
	id, err := QuestIDFromContext(ctx)
	if err != nil {
		panic("quest id not in context: middleware misconfiguration")
	}
	return id
}

// QuestIDMiddleware validates the {id} URL parameter and stores it in the
// request context. Malformed ids are rejected with 400.
func QuestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if verr := validation.ValidateID("id", id); verr != nil {
			WriteProblem(w, r, http.StatusBadRequest, "Quest id "+verr.Message)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithQuestID(r.Context(), id)))
	})
}
