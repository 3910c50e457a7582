package inmemdb

import (
	"context"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/feedback"
)

var feedbackComparators = comparators[feedback.Feedback]{
	"id":         func(a, b feedback.Feedback) int { return compareInts(a.ID, b.ID) },
	"rating":     func(a, b feedback.Feedback) int { return compareInts(a.Rating, b.Rating) },
	"created_at": func(a, b feedback.Feedback) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

type feedbackRepository struct {
	db *table[feedback.Feedback]
}

var _ feedback.Repository = (*feedbackRepository)(nil) // interface compliance check

func NewFeedbackRepository(db *DB) feedback.Repository {
	return &feedbackRepository{db: db.feedback}
}

func (repo *feedbackRepository) CreateFeedback(_ context.Context, fb feedback.Feedback) (feedback.Feedback, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	fb.ID = repo.db.nextPK()
	repo.db.rows[fb.ID] = fb
	return fb, nil
}

func (repo *feedbackRepository) GetFeedback(_ context.Context, id int) (feedback.Feedback, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if fb, ok := repo.db.rows[id]; ok {
		return fb, nil
	}
	return feedback.Feedback{}, feedback.ErrNotFound
}

func (repo *feedbackRepository) filter(filter feedback.QueryFilter) []feedback.Feedback {
	fbs := make([]feedback.Feedback, 0, len(repo.db.rows))
	for _, fb := range repo.db.all() {
		if filter.Approved == nil || fb.Approved == *filter.Approved {
			fbs = append(fbs, fb)
		}
	}
	return fbs
}

func (repo *feedbackRepository) QueryFeedback(_ context.Context, filter feedback.QueryFilter, ordering ...core.DBOrdering) ([]feedback.Feedback, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	fbs := repo.filter(filter)
	order(fbs, feedbackComparators, ordering)
	return fbs, nil
}

func (repo *feedbackRepository) ApproveFeedback(_ context.Context, id int) (feedback.Feedback, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	fb, ok := repo.db.rows[id]
	if !ok {
		return feedback.Feedback{}, feedback.ErrNotFound
	}
	fb.Approved = true
	repo.db.rows[id] = fb
	return fb, nil
}

func (repo *feedbackRepository) DeleteFeedback(_ context.Context, id int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.rows[id]; !ok {
		return feedback.ErrNotFound
	}
	delete(repo.db.rows, id)
	return nil
}

func (repo *feedbackRepository) CountFeedback(_ context.Context, filter feedback.QueryFilter) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.filter(filter)), nil
}
