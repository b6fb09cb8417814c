package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskforge/task-manager/internal/core/domain"
	"github.com/taskforge/task-manager/internal/core/ports"
)

const tasksCollection = "tasks"

// dueSortMax is the sort sentinel stored for tasks without a due date, so
// they always order after every dated task in ascending due-date order.
var dueSortMax = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// TaskRepository implements ports.TaskRepository using MongoDB. Every query
// filters by user_id, so tasks owned by other users are indistinguishable
// from missing ones.
type TaskRepository struct {
	coll *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{coll: db.Collection(tasksCollection)}
}

type mongoTask struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      primitive.ObjectID `bson:"user_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	DueDate     *time.Time         `bson:"due_date,omitempty"`
	// DueSort mirrors DueDate with a far-future sentinel when unset; it
	// exists purely so the list sort can be a plain index walk.
	DueSort time.Time `bson:"due_sort"`
	Status  string    `bson:"status"`
	// PriorityWeight is the numeric companion to Priority (high=3, medium=2,
	// low=1); sorting the string labels would order them lexicographically.
	Priority       string    `bson:"priority"`
	PriorityWeight int       `bson:"priority_weight"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func toMongoTask(t *domain.Task, userID primitive.ObjectID) mongoTask {
	doc := mongoTask{
		UserID:         userID,
		Title:          t.Title,
		Description:    t.Description,
		DueDate:        t.DueDate,
		DueSort:        dueSortMax,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		PriorityWeight: t.Priority.Weight(),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if t.DueDate != nil {
		doc.DueSort = t.DueDate.UTC()
	}
	return doc
}

func (d mongoTask) toDomain() *domain.Task {
	t := &domain.Task{
		ID:          d.ID.Hex(),
		UserID:      d.UserID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Status:      domain.Status(d.Status),
		Priority:    domain.Priority(d.Priority),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if d.DueDate != nil {
		due := d.DueDate.UTC()
		t.DueDate = &due
	}
	return t
}

// ownerFilter builds the {_id, user_id} filter shared by all single-task
// operations. Malformed identifiers cannot match any document, so they map
// to not-found rather than an error.
func ownerFilter(taskID, userID string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, domain.ErrTaskNotFound
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, domain.ErrTaskNotFound
	}
	return bson.M{"_id": oid, "user_id": uid}, nil
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	uid, err := primitive.ObjectIDFromHex(t.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}

	res, err := r.coll.InsertOne(ctx, toMongoTask(t, uid))
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	created := *t
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter, err := ownerFilter(taskID, userID)
	if err != nil {
		return nil, err
	}

	var doc mongoTask
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return doc.toDomain(), nil
}

// List returns one page of the user's tasks ordered by priority weight
// descending, then due date ascending (undated last), then creation time.
func (r *TaskRepository) List(ctx context.Context, filter ports.ListTasksFilter) ([]*domain.Task, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	uid, err := primitive.ObjectIDFromHex(filter.UserID)
	if err != nil {
		return nil, 0, fmt.Errorf("parse user id: %w", err)
	}
	query := bson.M{"user_id": uid}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{
			{Key: "priority_weight", Value: -1},
			{Key: "due_sort", Value: 1},
			{Key: "created_at", Value: 1},
		}).
		SetSkip(int64(filter.Page-1) * int64(filter.Limit)).
		SetLimit(int64(filter.Limit))

	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer cur.Close(ctx)

	tasks := make([]*domain.Task, 0, filter.Limit)
	for cur.Next(ctx) {
		var doc mongoTask
		if err := cur.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("decode task: %w", err)
		}
		tasks = append(tasks, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, total, nil
}

// Update applies the patch in a single FindOneAndUpdate, so the owner check
// and the mutation are one atomic document operation.
func (r *TaskRepository) Update(ctx context.Context, taskID, userID string, patch ports.TaskPatch) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter, err := ownerFilter(taskID, userID)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.DueDate != nil {
		due := patch.DueDate.UTC()
		set["due_date"] = due
		set["due_sort"] = due
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.Priority != nil {
		set["priority"] = string(*patch.Priority)
		set["priority_weight"] = patch.Priority.Weight()
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoTask
	err = r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *TaskRepository) Delete(ctx context.Context, taskID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter, err := ownerFilter(taskID, userID)
	if err != nil {
		return err
	}

	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// EnsureIndexes creates the indexes backing owner scoping and the list sort.
func (r *TaskRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "priority_weight", Value: -1},
			{Key: "due_sort", Value: 1},
		}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
