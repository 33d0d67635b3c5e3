package search

import (
	"path/filepath"
	"testing"

	"github.com/ragline/ragline/internal/models"
	"github.com/ragline/ragline/internal/storage"
)

func TestFilterTitles(t *testing.T) {
	convs := []models.Conversation{
		{ID: 1, Title: "Planning the rollout"},
		{ID: 2, Title: "Kubernetes upgrade notes"},
		{ID: 3, Title: "rollout retrospective"},
	}

	t.Run("EmptyQueryReturnsAll", func(t *testing.T) {
		got := FilterTitles(convs, "")
		if len(got) != 3 {
			t.Errorf("filtered = %d, want all 3", len(got))
		}
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		got := FilterTitles(convs, "ROLLOUT")
		if len(got) != 2 {
			t.Fatalf("filtered = %d, want 2", len(got))
		}
		if got[0].ID != 1 || got[1].ID != 3 {
			t.Errorf("filtered = %+v, want ids 1 and 3 in order", got)
		}
	})

	t.Run("NoMatches", func(t *testing.T) {
		if got := FilterTitles(convs, "terraform"); len(got) != 0 {
			t.Errorf("filtered = %+v, want none", got)
		}
	})
}

func TestSearch(t *testing.T) {
	store, err := storage.NewStateStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	conv := models.Conversation{ID: 9, Title: "Deploy pipeline", IsActive: true}
	messages := []models.Message{
		{Role: models.RoleUser, Content: "how does the canary deploy work"},
		{Role: models.RoleAssistant, Content: "The canary deploy shifts traffic in stages."},
	}
	if err := store.CacheTranscript(conv, messages); err != nil {
		t.Fatalf("CacheTranscript: %v", err)
	}

	results, err := NewSearcher(store).Search("canary", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("should find cached messages mentioning canary")
	}
	if results[0].Conversation.ID != 9 {
		t.Errorf("hit conversation = %d, want 9", results[0].Conversation.ID)
	}
}
