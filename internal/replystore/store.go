package replystore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/teemow/mailmeet/internal/assistant"
	"github.com/teemow/mailmeet/internal/config"
)

// Metadata keys stored with every reply.
const (
	MetaTone      = "tone"
	MetaSentiment = "sentiment"
	MetaUrgency   = "urgency"
	MetaCreatedAt = "created_at"
)

// Match is a stored reply similar to a query.
type Match struct {
	ID         string  `json:"id"`
	Tone       string  `json:"tone"`
	Reply      string  `json:"reply"`
	Sentiment  string  `json:"sentiment,omitempty"`
	Urgency    string  `json:"urgency,omitempty"`
	Similarity float32 `json:"similarity"`
}

// Store is a collection of reply drafts.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// Open opens the reply collection. With an empty cfg.PersistPath the store lives in
// memory; otherwise it is persisted in that directory.
func Open(cfg config.ReplyStoreConfig, embedder Embedder) (*Store, error) {
	var (
		db  *chromem.DB
		err error
	)
	if cfg.PersistPath != "" {
		db, err = chromem.NewPersistentDB(cfg.PersistPath, false)
		if err != nil {
			return nil, fmt.Errorf("create persistent DB: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	name := cfg.Collection
	if name == "" {
		name = "replies"
	}
	collection, err := db.GetOrCreateCollection(name, nil, embedder.Embed)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Store{db: db, collection: collection}, nil
}

// Save stores each non-empty reply with the tone and the analysis it was generated from.
// It returns the new document IDs.
func (s *Store) Save(ctx context.Context, replies assistant.Replies, analysis assistant.Analysis) ([]string, error) {
	created := time.Now().UTC().Format(time.RFC3339)

	var docs []chromem.Document
	replies.Each(func(tone, reply string) {
		if strings.TrimSpace(reply) == "" {
			return
		}
		docs = append(docs, chromem.Document{
			ID:      uuid.NewString(),
			Content: reply,
			Metadata: map[string]string{
				MetaTone:      tone,
				MetaSentiment: analysis.Sentiment,
				MetaUrgency:   analysis.Urgency,
				MetaCreatedAt: created,
			},
		})
	})

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if err := s.collection.AddDocument(ctx, doc); err != nil {
			return ids, fmt.Errorf("add document %s: %w", doc.ID, err)
		}
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

// Similar returns up to k stored replies closest to query, most similar first. An empty
// query or an empty store yields no matches.
func (s *Store) Similar(ctx context.Context, query string, k int) ([]Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if k <= 0 {
		k = 3
	}
	n := min(k, s.collection.Count())
	if n == 0 {
		return nil, nil
	}

	results, err := s.collection.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{
			ID:         r.ID,
			Tone:       r.Metadata[MetaTone],
			Reply:      r.Content,
			Sentiment:  r.Metadata[MetaSentiment],
			Urgency:    r.Metadata[MetaUrgency],
			Similarity: r.Similarity,
		})
	}
	return matches, nil
}

// Delete removes documents by ID.
func (s *Store) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.collection.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	return nil
}

// Count returns the number of stored replies.
func (s *Store) Count() int {
	return s.collection.Count()
}
