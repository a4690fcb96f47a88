package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"yangbot/model"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreTaskStore persists tasks in a Firestore collection.
type FirestoreTaskStore struct {
	client *firestore.Client
}

func NewFirestoreTaskStore(client *firestore.Client) *FirestoreTaskStore {
	return &FirestoreTaskStore{client: client}
}

func (s *FirestoreTaskStore) col() *firestore.CollectionRef {
	return s.client.Collection(CollectionName)
}

func (s *FirestoreTaskStore) Create(ctx context.Context, task model.Task) (string, error) {
	doc := s.col().NewDoc()
	if _, err := doc.Create(ctx, task); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return doc.ID, nil
}

func (s *FirestoreTaskStore) Get(ctx context.Context, id string) (model.Task, error) {
	snap, err := s.col().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return model.Task{}, ErrTaskNotFound
		}
		return model.Task{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	var task model.Task
	if err := snap.DataTo(&task); err != nil {
		return model.Task{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	task.ID = snap.Ref.ID
	return task, nil
}

func (s *FirestoreTaskStore) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(fields))
	// Deterministic order keeps write logs stable.
	paths := make([]string, 0, len(fields))
	for path := range fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		updates = append(updates, firestore.Update{Path: path, Value: fields[path]})
	}
	if _, err := s.col().Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrTaskNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *FirestoreTaskStore) Delete(ctx context.Context, id string) error {
	// Firestore deletes are idempotent, a missing document is not an error.
	if _, err := s.col().Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *FirestoreTaskStore) QueryNotifyWindow(ctx context.Context, lo, hi time.Time) ([]model.Task, error) {
	query := s.col().
		Where("isNotified", "==", false).
		Where("notifyDate", ">=", lo).
		Where("notifyDate", "<", hi)
	return s.queryTasks(ctx, query)
}

func (s *FirestoreTaskStore) QueryBySourceID(ctx context.Context, sourceID string) ([]model.Task, error) {
	return s.queryTasks(ctx, s.col().Where("sourceId", "==", sourceID))
}

func (s *FirestoreTaskStore) queryTasks(ctx context.Context, query firestore.Query) ([]model.Task, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	var tasks []model.Task
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		var task model.Task
		if err := snap.DataTo(&task); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		task.ID = snap.Ref.ID
		tasks = append(tasks, task)
	}
	return tasks, nil
}

var errAlreadyNotified = errors.New("already notified")

func (s *FirestoreTaskStore) MarkNotified(ctx context.Context, id string) (bool, error) {
	ref := s.col().Doc(id)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var task model.Task
		if err := snap.DataTo(&task); err != nil {
			return err
		}
		if task.IsNotified {
			return errAlreadyNotified
		}
		return tx.Update(ref, []firestore.Update{{Path: "isNotified", Value: true}})
	})
	if errors.Is(err, errAlreadyNotified) {
		return false, nil
	}
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, ErrTaskNotFound
		}
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return true, nil
}
