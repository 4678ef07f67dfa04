package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/controlrest/services/ledger/internal/ledger"
)

const (
	// SnapshotsCollection holds one document per ledger.
	SnapshotsCollection = "ledger_snapshots"
	snapshotID          = "ledger"
)

// snapshotDoc is the stored form of a ledger snapshot.
type snapshotDoc struct {
	ID              string `bson:"_id"`
	ledger.Snapshot `bson:",inline"`
}

// SnapshotRepo stores the whole ledger as a single document, so a save is
// one atomic replace.
type SnapshotRepo struct {
	coll *mongo.Collection
}

func NewSnapshotRepo(db *mongo.Database) *SnapshotRepo {
	return &SnapshotRepo{
		coll: db.Collection(SnapshotsCollection, options.Collection().SetRegistry(Registry())),
	}
}

// Save replaces the stored snapshot when snap is newer. A stored document
// with the same or a later revision fails the filter, the upsert then
// collides on _id and the write is reported as stale.
func (r *SnapshotRepo) Save(ctx context.Context, snap *ledger.Snapshot) error {
	if snap == nil {
		return errors.New("snapshot is nil")
	}

	filter := bson.M{
		"_id":      snapshotID,
		"revision": bson.M{"$lt": int64(snap.Revision)},
	}
	doc := snapshotDoc{ID: snapshotID, Snapshot: *snap}
	_, err := r.coll.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: revision %d", ledger.ErrStaleSnapshot, snap.Revision)
	}
	if err != nil {
		return fmt.Errorf("cannot save snapshot: %w", err)
	}
	return nil
}

func (r *SnapshotRepo) Load(ctx context.Context) (*ledger.Snapshot, error) {
	var doc snapshotDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": snapshotID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot load snapshot: %w", err)
	}
	return &doc.Snapshot, nil
}

// Clear removes the stored snapshot.
func (r *SnapshotRepo) Clear(ctx context.Context) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": snapshotID}); err != nil {
		return fmt.Errorf("cannot clear snapshot: %w", err)
	}
	return nil
}
