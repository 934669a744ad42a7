package ledger

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/hyperengineering/liferpg/internal/types"
)

// FindQuest resolves ref to a quest by id, exact title, unique title prefix,
// or the closest title within an edit-distance limit.
func FindQuest(s types.LedgerState, ref string) (types.Quest, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return types.Quest{}, fmt.Errorf("empty quest reference: %w", ErrNotFound)
	}
	if q, err := FindQuestByID(s, ref); err == nil {
		return q, nil
	}

	needle := strings.ToLower(ref)
	for _, q := range s.Quests {
		if strings.ToLower(q.Title) == needle {
			return q, nil
		}
	}

	var prefixed []types.Quest
	for _, q := range s.Quests {
		if strings.HasPrefix(strings.ToLower(q.Title), needle) {
			prefixed = append(prefixed, q)
		}
	}
	switch len(prefixed) {
	case 1:
		return prefixed[0], nil
	case 0:
	default:
		return types.Quest{}, fmt.Errorf("%q matches %d quests: %w", ref, len(prefixed), ErrAmbiguous)
	}

	if len(needle) < 3 {
		return types.Quest{}, fmt.Errorf("quest %q: %w", ref, ErrNotFound)
	}
	best, bestDist, tie := -1, 0, false
	for i, q := range s.Quests {
		title := strings.ToLower(q.Title)
		dist := levenshtein.ComputeDistance(needle, title)
		if dist > distanceLimit(len(title)) {
			continue
		}
		switch {
		case best < 0 || dist < bestDist:
			best, bestDist, tie = i, dist, false
		case dist == bestDist:
			tie = true
		}
	}
	if best < 0 {
		return types.Quest{}, fmt.Errorf("quest %q: %w", ref, ErrNotFound)
	}
	if tie {
		return types.Quest{}, fmt.Errorf("%q is equally close to several quests: %w", ref, ErrAmbiguous)
	}
	return s.Quests[best], nil
}

func distanceLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
