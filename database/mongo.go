package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"songbook/models"
	"songbook/query"
)

const songsCollection = "songs"

// songDocument is the stored shape of a song. Field names match the wire
// format so documents written by other clients of the collection still load.
type songDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Artist    string             `bson:"artist"`
	Album     string             `bson:"album"`
	Genre     string             `bson:"genre"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
	Score     *int               `bson:"score,omitempty"`
}

func (d songDocument) toSong() models.Song {
	return models.Song{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Artist:    d.Artist,
		Album:     d.Album,
		Genre:     d.Genre,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		Score:     d.Score,
	}
}

type groupDocument struct {
	Key            string `bson:"_id"`
	Count          int64  `bson:"count"`
	Representative string `bson:"representative"`
}

// MongoStore keeps songs in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// ConnectMongo connects, pings and makes sure the lookup indexes exist.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	s := NewMongoStore(client, client.Database(database).Collection(songsCollection))
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	log.Info().Str("backend", "mongo").Str("database", database).Msg("Database connection established")
	return s, nil
}

func NewMongoStore(client *mongo.Client, coll *mongo.Collection) *MongoStore {
	return &MongoStore{client: client, coll: coll}
}

// EnsureIndexes creates single-field indexes on the filterable fields and
// the default sort key.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "artist", Value: 1}}},
		{Keys: bson.D{{Key: "genre", Value: 1}}},
		{Keys: bson.D{{Key: "album", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Find runs a plain find when unscored. Scored searches go through an
// aggregation that adds the score as a computed field before sorting.
func (s *MongoStore) Find(ctx context.Context, opts FindOptions) ([]models.Song, error) {
	start := time.Now()
	defer func() {
		log.Debug().
			Str("op", "Find").
			Dur("duration", time.Since(start)).
			Bool("scored", opts.Score != nil).
			Msg("mongo query")
	}()

	filter, err := compileFilter(opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to build filter: %w", err)
	}
	order, err := compileSort(opts.Sort, opts.Score != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build sort: %w", err)
	}
	offset := int64(validateOffset(opts.Offset))

	var cursor *mongo.Cursor
	if opts.Score == nil {
		findOpts := options.Find().SetSort(order).SetSkip(offset)
		if opts.Limit > 0 {
			findOpts.SetLimit(int64(opts.Limit))
		}
		cursor, err = s.coll.Find(ctx, filter, findOpts)
	} else {
		score, serr := compileScore(opts.Score)
		if serr != nil {
			return nil, fmt.Errorf("failed to build score: %w", serr)
		}
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: filter}},
			{{Key: "$addFields", Value: bson.M{"score": score}}},
			{{Key: "$sort", Value: order}},
			{{Key: "$skip", Value: offset}},
		}
		if opts.Limit > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(opts.Limit)}})
		}
		cursor, err = s.coll.Aggregate(ctx, pipeline)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer cursor.Close(ctx)

	songs := []models.Song{}
	for cursor.Next(ctx) {
		var doc songDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode song: %w", err)
		}
		songs = append(songs, doc.toSong())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cursor: %w", err)
	}
	return songs, nil
}

func (s *MongoStore) Count(ctx context.Context, filter query.Expr) (int64, error) {
	f, err := compileFilter(filter)
	if err != nil {
		return 0, fmt.Errorf("failed to build filter: %w", err)
	}
	total, err := s.coll.CountDocuments(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return total, nil
}

func (s *MongoStore) Distinct(ctx context.Context, field query.Field) (int, error) {
	name, err := documentField(field)
	if err != nil {
		return 0, err
	}
	values, err := s.coll.Distinct(ctx, name, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count distinct %s: %w", field, err)
	}
	return len(values), nil
}

// GroupCount takes the representative with $first, so which member supplies
// it follows the collection's natural order.
func (s *MongoStore) GroupCount(ctx context.Context, field, representative query.Field) ([]models.GroupCount, error) {
	name, err := documentField(field)
	if err != nil {
		return nil, err
	}
	group := bson.M{
		"_id":   "$" + name,
		"count": bson.M{"$sum": 1},
	}
	if representative != "" {
		rep, err := documentField(representative)
		if err != nil {
			return nil, err
		}
		group["representative"] = bson.M{"$first": "$" + rep}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: group}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to group songs by %s: %w", field, err)
	}
	defer cursor.Close(ctx)

	var docs []groupDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode groups: %w", err)
	}

	groups := make([]models.GroupCount, 0, len(docs))
	for _, d := range docs {
		groups = append(groups, models.GroupCount{Key: d.Key, Count: d.Count, Representative: d.Representative})
	}
	return groups, nil
}

// Insert stores timestamps at millisecond precision, the resolution BSON
// dates keep, so the returned record equals what a later read yields.
func (s *MongoStore) Insert(ctx context.Context, in models.SongInput) (*models.Song, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := songDocument{
		ID:        primitive.NewObjectID(),
		Title:     in.Title,
		Artist:    in.Artist,
		Album:     in.Album,
		Genre:     in.Genre,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to insert song: %w", err)
	}

	song := doc.toSong()
	log.Debug().Str("id", song.ID).Msg("Created song")
	return &song, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*models.Song, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc songDocument
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get song: %w", err)
	}
	song := doc.toSong()
	return &song, nil
}

func (s *MongoStore) Update(ctx context.Context, id string, in models.SongInput) (*models.Song, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	update := bson.M{"$set": bson.M{
		"title":     in.Title,
		"artist":    in.Artist,
		"album":     in.Album,
		"genre":     in.Genre,
		"updatedAt": time.Now().UTC().Truncate(time.Millisecond),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc songDocument
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update song: %w", err)
	}
	song := doc.toSong()
	return &song, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) (*models.Song, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc songDocument
	if err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete song: %w", err)
	}
	song := doc.toSong()
	return &song, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from mongo: %w", err)
	}
	log.Info().Str("backend", "mongo").Msg("Database connection closed")
	return nil
}

func documentField(f query.Field) (string, error) {
	if !f.IsSortable() {
		return "", fmt.Errorf("unknown field %q", f)
	}
	return string(f), nil
}

// pattern returns an anchored or unanchored case-insensitive regular
// expression matching value literally.
func pattern(e query.Expr) string {
	quoted := regexp.QuoteMeta(e.Value)
	switch e.Kind {
	case query.KindEquals:
		return "^" + quoted + "$"
	case query.KindPrefix:
		return "^" + quoted
	}
	return quoted
}

func compileFilter(e query.Expr) (bson.M, error) {
	switch e.Kind {
	case query.KindAll:
		return bson.M{}, nil
	case query.KindEquals, query.KindPrefix, query.KindContains:
		name, err := documentField(e.Field)
		if err != nil {
			return nil, err
		}
		return bson.M{name: bson.M{"$regex": pattern(e), "$options": "i"}}, nil
	case query.KindAnd, query.KindOr:
		clauses := bson.A{}
		for _, op := range e.Operands {
			c, err := compileFilter(op)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		}
		key := "$and"
		if e.Kind == query.KindOr {
			key = "$or"
		}
		return bson.M{key: clauses}, nil
	}
	return nil, fmt.Errorf("unsupported expression kind %s", e.Kind)
}

// compileCondition translates e into an aggregation expression evaluating
// to a boolean.
func compileCondition(e query.Expr) (interface{}, error) {
	switch e.Kind {
	case query.KindAll:
		return true, nil
	case query.KindEquals, query.KindPrefix, query.KindContains:
		name, err := documentField(e.Field)
		if err != nil {
			return nil, err
		}
		return bson.M{"$regexMatch": bson.M{
			"input":   "$" + name,
			"regex":   pattern(e),
			"options": "i",
		}}, nil
	case query.KindAnd, query.KindOr:
		operands := bson.A{}
		for _, op := range e.Operands {
			c, err := compileCondition(op)
			if err != nil {
				return nil, err
			}
			operands = append(operands, c)
		}
		key := "$and"
		if e.Kind == query.KindOr {
			key = "$or"
		}
		return bson.M{key: operands}, nil
	}
	return nil, fmt.Errorf("unsupported expression kind %s", e.Kind)
}

func compileScore(sc query.Score) (interface{}, error) {
	terms := bson.A{}
	for _, tier := range sc {
		if len(tier) == 0 {
			continue
		}
		branches := bson.A{}
		for _, rule := range tier {
			cond, err := compileCondition(rule.When)
			if err != nil {
				return nil, err
			}
			branches = append(branches, bson.M{"case": cond, "then": rule.Points})
		}
		terms = append(terms, bson.M{"$switch": bson.M{"branches": branches, "default": 0}})
	}
	if len(terms) == 0 {
		return 0, nil
	}
	return bson.M{"$add": terms}, nil
}

func compileSort(by query.Sort, scored bool) (bson.D, error) {
	name, err := documentField(by.Field)
	if err != nil {
		return nil, err
	}
	dir := -1
	if by.Order == query.OrderAsc {
		dir = 1
	}
	order := bson.D{}
	if scored {
		order = append(order, bson.E{Key: "score", Value: -1})
	}
	return append(order, bson.E{Key: name, Value: dir}, bson.E{Key: "_id", Value: 1}), nil
}
