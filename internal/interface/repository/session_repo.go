package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fuelrefund-service/internal/domain/entity"
	"fuelrefund-service/internal/domain/repository"
	apperrors "fuelrefund-service/pkg/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSessionRepository implements SessionRepository
type MongoSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRepository creates a new import session repository
func NewMongoSessionRepository(db *mongo.Database) repository.SessionRepository {
	collection := db.Collection("import_sessions")

	// Sessions are listed by recency when inspected by hand
	indexModel := mongo.IndexModel{
		Keys: bson.M{"updatedAt": -1},
	}
	collection.Indexes().CreateOne(context.Background(), indexModel)

	return &MongoSessionRepository{collection: collection}
}

// Save creates or replaces a session
func (r *MongoSessionRepository) Save(ctx context.Context, session *entity.ImportSession) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": session.ID}, session, opts)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.ID, err)
	}
	return nil
}

// FindByID finds a session by id
func (r *MongoSessionRepository) FindByID(ctx context.Context, id string) (*entity.ImportSession, error) {
	var session entity.ImportSession
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NewNotFoundError("import session", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session %s: %w", id, err)
	}
	return &session, nil
}

// Delete removes a session
func (r *MongoSessionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NewNotFoundError("import session", id)
	}
	return nil
}

// MemorySessionRepository keeps sessions in process memory. Stored values
// are copies, so callers never share state with the store.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*entity.ImportSession
}

// NewMemorySessionRepository creates an empty in-memory session store
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]*entity.ImportSession)}
}

// Save creates or replaces a session
func (r *MemorySessionRepository) Save(ctx context.Context, session *entity.ImportSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session.Clone()
	return nil
}

// FindByID finds a session by id
func (r *MemorySessionRepository) FindByID(ctx context.Context, id string) (*entity.ImportSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("import session", id)
	}
	return session.Clone(), nil
}

// Delete removes a session
func (r *MemorySessionRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return apperrors.NewNotFoundError("import session", id)
	}
	delete(r.sessions, id)
	return nil
}
