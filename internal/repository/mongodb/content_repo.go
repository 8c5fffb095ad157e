package mongodb

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ContentFlow/internal/model"
	"ContentFlow/internal/repository"
)

type ContentRepository struct {
	coll *mongo.Collection
}

func NewContentRepository(db *mongo.Database) *ContentRepository {
	return &ContentRepository{coll: db.Collection(ContentCollection)}
}

func (r *ContentRepository) Create(ctx context.Context, c *model.Content) error {
	_, err := r.coll.InsertOne(ctx, c)
	return err
}

// buildListFilter 关键字按字面做不区分大小写的子串匹配
func buildListFilter(q repository.ListQuery) bson.M {
	filter := bson.M{}
	if q.OwnerID != "" {
		filter["createdBy"] = q.OwnerID
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.Keyword != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q.Keyword), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
		}
	}
	return filter
}

func (r *ContentRepository) List(ctx context.Context, q repository.ListQuery) ([]model.Content, int64, error) {
	filter := buildListFilter(q)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(q.Offset)).
		SetLimit(int64(q.Limit))
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	list := make([]model.Content, 0, q.Limit)
	if err = cur.All(ctx, &list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *ContentRepository) Decide(ctx context.Context, id string, d repository.Decision) (*model.Content, error) {
	update := bson.M{"$set": bson.M{
		"status":     d.Status,
		"approvedBy": d.ApprovedBy,
		"approvedAt": d.ApprovedAt,
		"updatedAt":  d.ApprovedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var c model.Content
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ContentRepository) CountByStatus(ctx context.Context) (model.StatusCounts, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return model.StatusCounts{}, err
	}

	var rows []struct {
		Status model.Status `bson:"_id"`
		Count  int64        `bson:"count"`
	}
	if err = cur.All(ctx, &rows); err != nil {
		return model.StatusCounts{}, err
	}

	var sc model.StatusCounts
	for _, row := range rows {
		sc.Total += row.Count
		switch row.Status {
		case model.StatusPending:
			sc.Pending = row.Count
		case model.StatusApproved:
			sc.Approved = row.Count
		case model.StatusRejected:
			sc.Rejected = row.Count
		}
	}
	return sc, nil
}

// monthlyPipeline $year / $month 按 UTC 计算
func monthlyPipeline(since time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"year":   bson.M{"$year": "$createdAt"},
				"month":  bson.M{"$month": "$createdAt"},
				"status": "$status",
			},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "_id.year", Value: 1},
			{Key: "_id.month", Value: 1},
			{Key: "_id.status", Value: 1},
		}}},
	}
}

func (r *ContentRepository) MonthlySince(ctx context.Context, since time.Time) ([]model.MonthlyStat, error) {
	cur, err := r.coll.Aggregate(ctx, monthlyPipeline(since))
	if err != nil {
		return nil, err
	}
	stats := make([]model.MonthlyStat, 0)
	if err = cur.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *ContentRepository) RecentDecided(ctx context.Context, limit int) ([]model.Content, error) {
	filter := bson.M{"status": bson.M{"$in": bson.A{model.StatusApproved, model.StatusRejected}}}
	opts := options.Find().
		SetSort(bson.D{{Key: "approvedAt", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	list := make([]model.Content, 0, limit)
	if err = cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}
