package inmemdb

import (
	"context"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/community"
)

var (
	parentComparators = comparators[community.Parent]{
		"id":           func(a, b community.Parent) int { return compareInts(a.ID, b.ID) },
		"name":         func(a, b community.Parent) int { return compareStrings(a.Name, b.Name) },
		"student_name": func(a, b community.Parent) int { return compareStrings(a.StudentName, b.StudentName) },
		"created_at":   func(a, b community.Parent) int { return a.CreatedAt.Compare(b.CreatedAt) },
	}
	alumnusComparators = comparators[community.Alumnus]{
		"id":              func(a, b community.Alumnus) int { return compareInts(a.ID, b.ID) },
		"name":            func(a, b community.Alumnus) int { return compareStrings(a.Name, b.Name) },
		"graduation_year": func(a, b community.Alumnus) int { return compareInts(a.GraduationYear, b.GraduationYear) },
		"created_at":      func(a, b community.Alumnus) int { return a.CreatedAt.Compare(b.CreatedAt) },
	}
)

type communityRepository struct {
	parents *table[community.Parent]
	alumni  *table[community.Alumnus]
}

var _ community.Repository = (*communityRepository)(nil) // interface compliance check

func NewCommunityRepository(db *DB) community.Repository {
	return &communityRepository{parents: db.parent, alumni: db.alumnus}
}

func (repo *communityRepository) CreateParent(_ context.Context, p community.Parent) (community.Parent, error) {
	repo.parents.mutex.Lock()
	defer repo.parents.mutex.Unlock()

	p.ID = repo.parents.nextPK()
	repo.parents.rows[p.ID] = p
	return p, nil
}

func (repo *communityRepository) QueryParents(_ context.Context, filter community.QueryFilter, ordering ...core.DBOrdering) ([]community.Parent, error) {
	repo.parents.mutex.RLock()
	defer repo.parents.mutex.RUnlock()

	parents := make([]community.Parent, 0, len(repo.parents.rows))
	for _, p := range repo.parents.all() {
		if matches(filter.Search, p.Name, p.Email, p.StudentName) {
			parents = append(parents, p)
		}
	}
	order(parents, parentComparators, ordering)
	return parents, nil
}

func (repo *communityRepository) CountParents(context.Context) (int, error) {
	return repo.parents.count(), nil
}

func (repo *communityRepository) CreateAlumnus(_ context.Context, a community.Alumnus) (community.Alumnus, error) {
	repo.alumni.mutex.Lock()
	defer repo.alumni.mutex.Unlock()

	a.ID = repo.alumni.nextPK()
	repo.alumni.rows[a.ID] = a
	return a, nil
}

func (repo *communityRepository) QueryAlumni(_ context.Context, filter community.QueryFilter, ordering ...core.DBOrdering) ([]community.Alumnus, error) {
	repo.alumni.mutex.RLock()
	defer repo.alumni.mutex.RUnlock()

	alumni := make([]community.Alumnus, 0, len(repo.alumni.rows))
	for _, a := range repo.alumni.all() {
		if matches(filter.Search, a.Name, a.Email, a.Profession) {
			alumni = append(alumni, a)
		}
	}
	order(alumni, alumnusComparators, ordering)
	return alumni, nil
}

func (repo *communityRepository) CountAlumni(context.Context) (int, error) {
	return repo.alumni.count(), nil
}
