package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"studio/internal/domain"
)

// MongoStore implements domain.DesignStore and domain.RevisionStore on the
// "designs" and "design_revisions" collections of one database.
type MongoStore struct {
	designs   *mongo.Collection
	revisions *mongo.Collection
}

type mongoDesign struct {
	ID        string    `bson:"_id"`
	OwnerID   string    `bson:"owner_id"`
	Name      string    `bson:"name"`
	Content   string    `bson:"content,omitempty"`
	Preview   string    `bson:"preview,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type mongoRevision struct {
	ID        string    `bson:"_id"`
	DesignID  string    `bson:"design_id"`
	Content   string    `bson:"content,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		designs:   db.Collection("designs"),
		revisions: db.Collection("design_revisions"),
	}
}

// ── Designs ─────────────────────────────────────────────────

func (s *MongoStore) CreateDesign(ctx context.Context, d *domain.Design, opts domain.WriteOptions) error {
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now
	doc := mongoDesign{
		ID: d.ID, OwnerID: d.OwnerID, Name: d.Name, Content: d.Content,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
	if !opts.OmitPreview {
		doc.Preview = d.Preview
	}
	if _, err := s.designs.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create design: %w", err)
	}
	return nil
}

func (s *MongoStore) UpdateDesign(ctx context.Context, d *domain.Design, opts domain.WriteOptions) error {
	d.UpdatedAt = time.Now().UTC()
	set := bson.D{
		{Key: "name", Value: d.Name},
		{Key: "content", Value: d.Content},
		{Key: "updated_at", Value: d.UpdatedAt},
	}
	if !opts.OmitPreview {
		set = append(set, bson.E{Key: "preview", Value: d.Preview})
	}
	res, err := s.designs.UpdateOne(ctx, bson.M{"_id": d.ID}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return fmt.Errorf("update design: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update design: %w", domain.ErrNotFound)
	}
	return nil
}

func (s *MongoStore) GetDesign(ctx context.Context, id string) (*domain.Design, error) {
	var doc mongoDesign
	err := s.designs.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("get design %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get design: %w", err)
	}
	return &domain.Design{
		ID: doc.ID, OwnerID: doc.OwnerID, Name: doc.Name, Content: doc.Content,
		Preview: doc.Preview, CreatedAt: doc.CreatedAt, UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (s *MongoStore) ListDesigns(ctx context.Context, ownerID string) ([]domain.DesignSummary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetProjection(bson.M{"content": 0})
	cursor, err := s.designs.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	var docs []mongoDesign
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	out := make([]domain.DesignSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.DesignSummary{ID: d.ID, Name: d.Name, Preview: d.Preview, UpdatedAt: d.UpdatedAt})
	}
	return out, nil
}

func (s *MongoStore) RenameDesign(ctx context.Context, id, name string) error {
	res, err := s.designs.UpdateOne(ctx, bson.M{"_id": id}, bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: name},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}})
	if err != nil {
		return fmt.Errorf("rename design: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("rename design: %w", domain.ErrNotFound)
	}
	return nil
}

func (s *MongoStore) DeleteDesign(ctx context.Context, id string) error {
	res, err := s.designs.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete design: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete design: %w", domain.ErrNotFound)
	}
	return nil
}

func (s *MongoStore) DesignIDs(ctx context.Context) ([]string, error) {
	cursor, err := s.designs.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("design ids: %w", err)
	}
	var docs []mongoDesign
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("design ids: %w", err)
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// ── Revisions ───────────────────────────────────────────────

func (s *MongoStore) AddRevision(ctx context.Context, r *domain.Revision) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.revisions.InsertOne(ctx, mongoRevision{
		ID: r.ID, DesignID: r.DesignID, Content: r.Content, CreatedAt: r.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("add revision: %w", err)
	}
	return nil
}

func (s *MongoStore) ListRevisions(ctx context.Context, designID string) ([]domain.Revision, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"content": 0})
	cursor, err := s.revisions.Find(ctx, bson.M{"design_id": designID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	var docs []mongoRevision
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	out := make([]domain.Revision, len(docs))
	for i, d := range docs {
		out[i] = domain.Revision{ID: d.ID, DesignID: d.DesignID, CreatedAt: d.CreatedAt}
	}
	return out, nil
}

func (s *MongoStore) GetRevision(ctx context.Context, id string) (*domain.Revision, error) {
	var doc mongoRevision
	err := s.revisions.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("get revision %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get revision: %w", err)
	}
	return &domain.Revision{ID: doc.ID, DesignID: doc.DesignID, Content: doc.Content, CreatedAt: doc.CreatedAt}, nil
}

func (s *MongoStore) PruneRevisions(ctx context.Context, designID string, keep int) (int, error) {
	// Everything past the newest keep.
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(keep)).
		SetProjection(bson.M{"_id": 1})
	cursor, err := s.revisions.Find(ctx, bson.M{"design_id": designID}, opts)
	if err != nil {
		return 0, fmt.Errorf("prune revisions: %w", err)
	}
	var old []mongoRevision
	if err := cursor.All(ctx, &old); err != nil {
		return 0, fmt.Errorf("prune revisions: %w", err)
	}
	if len(old) == 0 {
		return 0, nil
	}
	ids := make([]string, len(old))
	for i, r := range old {
		ids[i] = r.ID
	}
	res, err := s.revisions.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("prune revisions: %w", err)
	}
	return int(res.DeletedCount), nil
}

func (s *MongoStore) DeleteRevisions(ctx context.Context, designID string) error {
	if _, err := s.revisions.DeleteMany(ctx, bson.M{"design_id": designID}); err != nil {
		return fmt.Errorf("delete revisions: %w", err)
	}
	return nil
}
