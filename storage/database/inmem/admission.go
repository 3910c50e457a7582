package inmemdb

import (
	"context"
	"time"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/admission"
)

var inquiryComparators = comparators[admission.Inquiry]{
	"id":           func(a, b admission.Inquiry) int { return compareInts(a.ID, b.ID) },
	"student_name": func(a, b admission.Inquiry) int { return compareStrings(a.StudentName, b.StudentName) },
	"parent_name":  func(a, b admission.Inquiry) int { return compareStrings(a.ParentName, b.ParentName) },
	"form_level":   func(a, b admission.Inquiry) int { return compareStrings(a.FormLevel, b.FormLevel) },
	"status":       func(a, b admission.Inquiry) int { return compareStrings(string(a.Status), string(b.Status)) },
	"created_at":   func(a, b admission.Inquiry) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

type admissionRepository struct {
	db *table[admission.Inquiry]
}

var _ admission.Repository = (*admissionRepository)(nil) // interface compliance check

func NewAdmissionRepository(db *DB) admission.Repository {
	return &admissionRepository{db: db.admission}
}

// copyInquiry keeps stored rows from sharing their Documents map with callers.
func copyInquiry(inq admission.Inquiry) admission.Inquiry {
	docs := make(map[admission.FileSlot]string, len(inq.Documents))
	for slot, ref := range inq.Documents {
		docs[slot] = ref
	}
	inq.Documents = docs
	return inq
}

func (repo *admissionRepository) CreateInquiry(_ context.Context, inq admission.Inquiry) (admission.Inquiry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, row := range repo.db.rows {
		if row.TrackingCode == inq.TrackingCode {
			return admission.Inquiry{}, errDuplicate("tracking_code")
		}
	}
	inq.ID = repo.db.nextPK()
	repo.db.rows[inq.ID] = copyInquiry(inq)
	return copyInquiry(inq), nil
}

func (repo *admissionRepository) GetInquiry(_ context.Context, id int) (admission.Inquiry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if inq, ok := repo.db.rows[id]; ok {
		return copyInquiry(inq), nil
	}
	return admission.Inquiry{}, admission.ErrNotFound
}

func (repo *admissionRepository) QueryInquiries(_ context.Context, filter admission.QueryFilter, ordering ...core.DBOrdering) ([]admission.Inquiry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	inqs := make([]admission.Inquiry, 0, len(repo.db.rows))
	for _, inq := range repo.db.all() {
		if matches(filter.Search, inq.StudentName, inq.ParentName, inq.Email) {
			inqs = append(inqs, copyInquiry(inq))
		}
	}
	order(inqs, inquiryComparators, ordering)
	return inqs, nil
}

func (repo *admissionRepository) UpdateInquiryStatus(_ context.Context, id int, status admission.Status, updatedAt time.Time) (admission.Inquiry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	inq, ok := repo.db.rows[id]
	if !ok {
		return admission.Inquiry{}, admission.ErrNotFound
	}
	inq.Status = status
	inq.UpdatedAt = updatedAt
	repo.db.rows[id] = inq
	return copyInquiry(inq), nil
}

func (repo *admissionRepository) CountInquiries(context.Context) (int, error) {
	return repo.db.count(), nil
}
