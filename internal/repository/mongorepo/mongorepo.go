// Package mongorepo stores notes as documents in a MongoDB collection.
package mongorepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/evgeniy-krivenko/notes-api/internal/entity"
	"github.com/evgeniy-krivenko/notes-api/pkg/logger/slogx"
)

type noteDoc struct {
	ID        bson.ObjectID `bson:"_id"`
	Title     string        `bson:"title"`
	Content   string        `bson:"content"`
	Images    []string      `bson:"images"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

func (d noteDoc) toEntity() entity.Note {
	images := d.Images
	if images == nil {
		images = []string{}
	}

	return entity.Note{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Content:   d.Content,
		Images:    images,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type Repo struct {
	coll *mongo.Collection
}

func New(coll *mongo.Collection) *Repo {
	return &Repo{coll: coll}
}

// EnsureIndexes creates the index backing the list order.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "updated_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create updated_at index: %v", err)
	}

	return nil
}

// ObjectIDCodec recognizes the note identifiers issued by Repo.
type ObjectIDCodec struct{}

func (ObjectIDCodec) Valid(id string) bool {
	_, err := bson.ObjectIDFromHex(id)
	return err == nil
}

func now() time.Time {
	// BSON dates carry milliseconds.
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (r *Repo) CreateNote(ctx context.Context, title, content string) (entity.Note, error) {
	ts := now()
	doc := noteDoc{
		ID:        bson.NewObjectID(),
		Title:     title,
		Content:   content,
		Images:    []string{},
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return entity.Note{}, fmt.Errorf("create note: %v", err)
	}

	slogx.Debug(ctx, "success to create note", slogx.NoteID(doc.ID.Hex()))

	return doc.toEntity(), nil
}

func (r *Repo) GetNote(ctx context.Context, id string) (entity.Note, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return entity.Note{}, entity.ErrNoteNotFound
	}

	var doc noteDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return entity.Note{}, entity.ErrNoteNotFound
		}
		return entity.Note{}, fmt.Errorf("get note: %v", err)
	}

	return doc.toEntity(), nil
}

// ObjectIDs grow with creation time, so notes with equal updated_at list the
// newest first.
var listOrder = bson.D{
	{Key: "updated_at", Value: -1},
	{Key: "_id", Value: -1},
}

func (r *Repo) ListNotes(ctx context.Context) ([]entity.Note, error) {
	cursor, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(listOrder))
	if err != nil {
		return nil, fmt.Errorf("list notes: %v", err)
	}

	var docs []noteDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode notes: %v", err)
	}

	notes := make([]entity.Note, 0, len(docs))
	for _, d := range docs {
		notes = append(notes, d.toEntity())
	}

	return notes, nil
}

func (r *Repo) UpdateNote(ctx context.Context, id string, patch entity.NotePatch) (entity.Note, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return entity.Note{}, entity.ErrNoteNotFound
	}

	filter := bson.D{{Key: "_id", Value: oid}}
	if patch.ImageLimit > 0 {
		filter = append(filter, bson.E{Key: "$expr", Value: bson.D{{Key: "$lte", Value: bson.A{
			bson.D{{Key: "$add", Value: bson.A{
				bson.D{{Key: "$size", Value: currentImages}},
				len(patch.AppendImages),
			}}},
			patch.ImageLimit,
		}}}})
	}

	var doc noteDoc
	err = r.coll.FindOneAndUpdate(
		ctx,
		filter,
		updatePipeline(patch, now()),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return doc.toEntity(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return entity.Note{}, fmt.Errorf("update note: %v", err)
	}

	// Either the note is gone or the conditional append was refused.
	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return entity.Note{}, fmt.Errorf("check note exists: %v", err)
	}
	if n == 0 {
		return entity.Note{}, entity.ErrNoteNotFound
	}

	return entity.Note{}, entity.ErrImageQuotaExceeded
}

func (r *Repo) DeleteNote(ctx context.Context, id string) (entity.Note, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return entity.Note{}, entity.ErrNoteNotFound
	}

	var doc noteDoc
	if err := r.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return entity.Note{}, entity.ErrNoteNotFound
		}
		return entity.Note{}, fmt.Errorf("delete note: %v", err)
	}

	return doc.toEntity(), nil
}

// Documents written before images existed have no images field.
var currentImages = bson.D{{Key: "$ifNull", Value: bson.A{"$images", bson.A{}}}}

// updatePipeline builds an aggregation-pipeline update so removal and append
// apply to the same field in one atomic write. User values go through
// $literal so a leading "$" is never read as a field path.
func updatePipeline(patch entity.NotePatch, ts time.Time) mongo.Pipeline {
	set := bson.D{}

	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: literal(*patch.Title)})
	}
	if patch.Content != nil {
		set = append(set, bson.E{Key: "content", Value: literal(*patch.Content)})
	}

	images := any(currentImages)
	if patch.RemoveImage != nil {
		images = bson.D{{Key: "$filter", Value: bson.D{
			{Key: "input", Value: images},
			{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this", literal(*patch.RemoveImage)}}}},
		}}}
	}

	appendImages := patch.AppendImages
	if appendImages == nil {
		appendImages = []string{}
	}
	set = append(set,
		bson.E{Key: "images", Value: bson.D{{Key: "$concatArrays", Value: bson.A{images, literal(appendImages)}}}},
		bson.E{Key: "updated_at", Value: advancedUpdatedAt(ts)},
	)

	return mongo.Pipeline{{{Key: "$set", Value: set}}}
}

// advancedUpdatedAt is ts, or one millisecond past the stored value when a
// write lands in the same millisecond as the previous one.
func advancedUpdatedAt(ts time.Time) bson.D {
	return bson.D{{Key: "$max", Value: bson.A{
		ts,
		bson.D{{Key: "$add", Value: bson.A{"$updated_at", 1}}},
	}}}
}

func literal(v any) bson.D {
	return bson.D{{Key: "$literal", Value: v}}
}
