package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/placenotes/internal/models"
)

const placeCounterID = "places"

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoPlaceCollection stores places in one collection and allocates their
// integer IDs from a counter document in another.
type MongoPlaceCollection struct {
	Collection *mongo.Collection
	Counters   *mongo.Collection
}

// NewMongoPlaceCollection uses the "places" and "counters" collections of database.
func NewMongoPlaceCollection(database *mongo.Database) *MongoPlaceCollection {
	return &MongoPlaceCollection{
		Collection: database.Collection("places"),
		Counters:   database.Collection("counters"),
	}
}

// EnsureIndexes creates the name and geohash indexes used by FindPlaces.
func (c *MongoPlaceCollection) EnsureIndexes(ctx context.Context) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	_, err := c.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "geohash", Value: 1}}},
	})
	return err
}

func (c *MongoPlaceCollection) nextID(ctx context.Context) (int64, error) {
	if c.Counters == nil {
		return 0, fmt.Errorf("counters collection is nil")
	}
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := c.Counters.FindOneAndUpdate(ctx,
		bson.M{"_id": placeCounterID},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate place id: %w", err)
	}
	return counter.Seq, nil
}

// InsertPlace stores place under a freshly allocated ID and returns the stored record.
func (c *MongoPlaceCollection) InsertPlace(ctx context.Context, place models.Place) (models.Place, error) {
	if c.Collection == nil {
		return models.Place{}, fmt.Errorf("mongo collection is nil")
	}
	id, err := c.nextID(ctx)
	if err != nil {
		return models.Place{}, err
	}
	place.ID = id
	place.Geohash = geohash.Encode(place.Location.Lat, place.Location.Lon)

	if _, err := c.Collection.InsertOne(ctx, place); err != nil {
		return models.Place{}, err
	}
	return place, nil
}

// FindPlaces returns matching places ordered by name.
func (c *MongoPlaceCollection) FindPlaces(ctx context.Context, filter PlaceFilter) ([]models.Place, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}

	query := bson.M{}
	if filter.GeohashPrefix != "" {
		query["geohash"] = bson.M{"$regex": "^" + regexp.QuoteMeta(filter.GeohashPrefix)}
	}

	cursor, err := c.Collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	places := []models.Place{}
	if err := cursor.All(ctx, &places); err != nil {
		return nil, err
	}
	return places, nil
}

// FindPlaceByID finds a place by its ID.
func (c *MongoPlaceCollection) FindPlaceByID(ctx context.Context, id int64) (*models.Place, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}

	var place models.Place
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&place)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPlaceNotFound
		}
		return nil, err
	}
	return &place, nil
}

// UpdatePlace replaces the stored record that has place.ID.
func (c *MongoPlaceCollection) UpdatePlace(ctx context.Context, place models.Place) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	place.Geohash = geohash.Encode(place.Location.Lat, place.Location.Lon)

	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": place.ID}, place)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrPlaceNotFound
	}
	return nil
}

// DeletePlace deletes a place by its ID.
func (c *MongoPlaceCollection) DeletePlace(ctx context.Context, id int64) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}

	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrPlaceNotFound
	}
	return nil
}
