// Package inmemdb implements every domain Repository in memory. It is used in tests and for local development.
package inmemdb

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/admission"
	"github.com/fmlibermann/website/core/community"
	"github.com/fmlibermann/website/core/contact"
	"github.com/fmlibermann/website/core/feedback"
	"github.com/fmlibermann/website/core/newsletter"
	"github.com/fmlibermann/website/core/user"
)

type (
	DB struct {
		user       *table[user.User]
		admission  *table[admission.Inquiry]
		contact    *table[contact.Contact]
		parent     *table[community.Parent]
		alumnus    *table[community.Alumnus]
		feedback   *table[feedback.Feedback]
		subscriber *table[newsletter.Subscriber]
	}

	table[T any] struct {
		mutex   sync.RWMutex
		pkCount int
		rows    map[int]T
	}
)

func Open() *DB {
	return &DB{
		user:       newTable[user.User](),
		admission:  newTable[admission.Inquiry](),
		contact:    newTable[contact.Contact](),
		parent:     newTable[community.Parent](),
		alumnus:    newTable[community.Alumnus](),
		feedback:   newTable[feedback.Feedback](),
		subscriber: newTable[newsletter.Subscriber](),
	}
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[int]T)}
}

// nextPK must be called with the write lock held.
func (t *table[T]) nextPK() int {
	t.pkCount++
	return t.pkCount
}

// all returns the rows by ascending primary key. Must be called with a lock held.
func (t *table[T]) all() []T {
	ids := make([]int, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	rows := make([]T, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, t.rows[id])
	}
	return rows
}

func (t *table[T]) count() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return len(t.rows)
}

// comparators compare two rows on a single field, returning <0, 0 or >0.
type comparators[T any] map[string]func(a, b T) int

// order sorts rows by ordering, fields without a comparator are ignored.
func order[T any](rows []T, cmps comparators[T], ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ord := range ordering {
			cmp, ok := cmps[ord.Field]
			if !ok {
				continue
			}
			c := cmp(rows[i], rows[j])
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func compareInts(a, b int) int { return a - b }

func compareStrings(a, b string) int { return strings.Compare(a, b) }

// matches does a case-insensitive substring match of search on any of values.
func matches(search string, values ...string) bool {
	if search == "" {
		return true
	}
	search = strings.ToLower(search)
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), search) {
			return true
		}
	}
	return false
}

func errDuplicate(column string) error {
	return errors.Errorf("duplicate value for %s", column)
}
