package catalog

import (
	"strings"

	"github.com/vhqueiroz/stickerd/internal/apperr"
	"github.com/vhqueiroz/stickerd/internal/store"
)

// Selector identifies one sticker by exactly one of its fields. ID and Alias
// are exact lookups; Query is a free-text search that must hit a single
// candidate.
type Selector struct {
	ID    string
	Alias string
	Query string
}

// Candidate summarizes one of several stickers an ambiguous query matched.
type Candidate struct {
	ID          string `json:"id"`
	Alias       string `json:"alias,omitempty"`
	Description string `json:"description,omitempty"`
}

const queryCandidateLimit = 5

// Resolve maps a selector to a single catalog sticker.
func (s *Service) Resolve(sel Selector) (*store.Sticker, error) {
	id := strings.TrimSpace(sel.ID)
	alias := strings.TrimSpace(sel.Alias)
	query := strings.TrimSpace(sel.Query)

	set := 0
	for _, v := range []string{id, alias, query} {
		if v != "" {
			set++
		}
	}
	switch {
	case set == 0:
		return nil, apperr.Validation("provide one selector: stickerId, alias, or query")
	case set > 1:
		return nil, apperr.Validation("use only one selector: stickerId, alias, or query")
	}

	switch {
	case id != "":
		return s.Get(id)
	case alias != "":
		sticker, err := s.db.StickerByAlias(alias)
		if err != nil {
			return nil, err
		}
		if sticker == nil {
			return nil, apperr.NotFound(apperr.CodeStickerMissing, "no sticker with that alias").
				With("alias", alias)
		}
		return sticker, nil
	default:
		page, err := s.db.SearchStickers(store.StickerFilter{Query: query, Page: 1, Limit: queryCandidateLimit})
		if err != nil {
			return nil, err
		}
		switch len(page.Items) {
		case 0:
			return nil, apperr.NotFound(apperr.CodeStickerMissing, "no sticker matched the query").
				With("query", query)
		case 1:
			return &page.Items[0], nil
		default:
			candidates := make([]Candidate, len(page.Items))
			for i, item := range page.Items {
				candidates[i] = Candidate{ID: item.ID, Alias: item.Alias, Description: item.Description}
			}
			return nil, apperr.New(apperr.CodeAmbiguous, "query matched more than one sticker", 409).
				With("query", query).
				With("candidates", candidates)
		}
	}
}
