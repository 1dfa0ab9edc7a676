package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mwhitfield/echojournal-backend/internal/models"
)

var ErrAnalysisNotFound = errors.New("analysis not found")

// AnalysisStore persists analyzer snapshots in MongoDB, one document per
// entry, replaced wholesale on re-analysis.
type AnalysisStore struct {
	coll *mongo.Collection
}

func NewAnalysisStore(db *mongo.Database) *AnalysisStore {
	return &AnalysisStore{coll: db.Collection("analyses")}
}

// EnsureIndexes creates the unique entry index. Call once at startup.
func (s *AnalysisStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "entry_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
	})
	return err
}

// Upsert stores the snapshot for an entry, replacing any previous one.
func (s *AnalysisStore) Upsert(ctx context.Context, analysis *models.Analysis) error {
	analysis.CreatedAt = time.Now().UTC()
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"entry_id": analysis.EntryID},
		analysis,
		options.Replace().SetUpsert(true),
	)
	return err
}

// Get returns the snapshot for an entry owned by the given user.
func (s *AnalysisStore) Get(ctx context.Context, userID, entryID string) (*models.Analysis, error) {
	var analysis models.Analysis
	err := s.coll.FindOne(ctx, bson.M{"entry_id": entryID, "user_id": userID}).Decode(&analysis)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrAnalysisNotFound
	}
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

// DeleteForEntry removes the snapshot when its entry is deleted.
func (s *AnalysisStore) DeleteForEntry(ctx context.Context, entryID string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"entry_id": entryID})
	return err
}
