// Package search queries the offline cache of conversation transcripts.
package search

import (
	"strings"

	"github.com/ragline/ragline/internal/models"
	"github.com/ragline/ragline/internal/storage"
)

type Searcher struct {
	store *storage.StateStore
}

func NewSearcher(store *storage.StateStore) *Searcher {
	return &Searcher{store: store}
}

// Search runs a full-text query over cached message content.
func (s *Searcher) Search(query string, limit int) ([]models.SearchResult, error) {
	return s.store.SearchCached(query, limit)
}

// FilterTitles narrows a conversation list by case-insensitive title
// match, the same filtering the chat sidebar applies.
func FilterTitles(convs []models.Conversation, query string) []models.Conversation {
	if query == "" {
		return convs
	}
	needle := strings.ToLower(query)
	var filtered []models.Conversation
	for _, conv := range convs {
		if strings.Contains(strings.ToLower(conv.Title), needle) {
			filtered = append(filtered, conv)
		}
	}
	return filtered
}
