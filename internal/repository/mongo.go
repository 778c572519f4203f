package repository

import (
	"context"
	"smart_lms_analytics/internal/util"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LMS 文档库中的集合名
const (
	CollStudents        = "students"
	CollCourses         = "courses"
	CollProjects        = "projects"
	CollTasks           = "tasks"
	CollProjectProgress = "studentprojectprogresses"
	CollTaskProgress    = "studenttaskprogresses"
	CollPredictions     = "predictions"
)

const defaultQueryTimeout = 10 * time.Second

type mongoRepo struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func newMongoRepo(db *mongo.Database, name string, timeout time.Duration) mongoRepo {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return mongoRepo{coll: db.Collection(name), timeout: timeout}
}

func (r mongoRepo) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, r.timeout)
}

// findAll 把查询结果全部解码到 out
func (r mongoRepo) findAll(ctx context.Context, filter interface{}, out interface{}, opts ...*options.FindOptions) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	cur, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, util.ErrInvalidObjectID
	}
	return oid, nil
}

func inStrings(ids []string) bson.M {
	if ids == nil {
		ids = []string{}
	}
	return bson.M{"$in": ids}
}
