package booking

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/haziqazlan/agcutz-barbershop/internal/models"
)

// ListFilter narrows admin listings. Zero values mean "no filter".
type ListFilter struct {
	Date   string
	Status string
}

// Repository is the appointment store. Insert is the atomic admission
// backstop: it must fail with ErrSlotTaken when a non-canceled appointment
// already holds the same (date, timeSlot), even under concurrent callers.
type Repository interface {
	Insert(ctx context.Context, appointment models.Appointment) error
	FindConflicting(ctx context.Context, date, timeSlot string) (models.Appointment, error)
	ListActiveByDate(ctx context.Context, date string) ([]models.Appointment, error)
	List(ctx context.Context, filter ListFilter, limit, offset int64) ([]models.Appointment, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
	GetByID(ctx context.Context, id string) (models.Appointment, error)
	UpdateStatus(ctx context.Context, id, status string, now time.Time) (models.Appointment, error)
	Delete(ctx context.Context, id string) error
}

// MongoRepository relies on the partial unique index over (date, timeSlot)
// created by db.EnsureIndexes to serialize racing inserts.
type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, appointment models.Appointment) error {
	_, err := r.col.InsertOne(ctx, appointment)
	if mongo.IsDuplicateKeyError(err) {
		return ErrSlotTaken
	}
	return err
}

func (r *MongoRepository) FindConflicting(ctx context.Context, date, timeSlot string) (models.Appointment, error) {
	filter := bson.M{
		"date":     date,
		"timeSlot": timeSlot,
		"status":   bson.M{"$ne": models.StatusCanceled},
	}
	var appointment models.Appointment
	if err := r.col.FindOne(ctx, filter).Decode(&appointment); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Appointment{}, ErrNotFound
		}
		return models.Appointment{}, err
	}
	return appointment, nil
}

func (r *MongoRepository) ListActiveByDate(ctx context.Context, date string) ([]models.Appointment, error) {
	filter := bson.M{
		"date":   date,
		"status": bson.M{"$ne": models.StatusCanceled},
	}
	opts := options.Find().SetSort(bson.D{{Key: "timeSlot", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *MongoRepository) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]models.Appointment, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}, {Key: "timeSlot", Value: 1}}).
		SetLimit(limit).
		SetSkip(offset)
	return r.find(ctx, r.filterToBSON(filter), opts)
}

func (r *MongoRepository) Count(ctx context.Context, filter ListFilter) (int64, error) {
	return r.col.CountDocuments(ctx, r.filterToBSON(filter))
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (models.Appointment, error) {
	var appointment models.Appointment
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&appointment); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Appointment{}, ErrNotFound
		}
		return models.Appointment{}, err
	}
	return appointment, nil
}

func (r *MongoRepository) UpdateStatus(ctx context.Context, id, status string, now time.Time) (models.Appointment, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$set": bson.M{
			"status":    status,
			"updatedAt": now,
		},
	}

	var updated models.Appointment
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Appointment{}, ErrNotFound
		}
		return models.Appointment{}, err
	}
	return updated, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Appointment, error) {
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]models.Appointment, 0)
	for cursor.Next(ctx) {
		var appointment models.Appointment
		if err := cursor.Decode(&appointment); err != nil {
			return nil, err
		}
		items = append(items, appointment)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) filterToBSON(filter ListFilter) bson.M {
	query := bson.M{}
	if filter.Date != "" {
		query["date"] = filter.Date
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return query
}
