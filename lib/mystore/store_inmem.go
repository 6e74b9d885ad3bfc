package mystore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"
)

type InMemoryStore[T any] struct {
	sync.Mutex
	Items map[string]T
}

func newInMemoryStore[T any](c context.Context) (*InMemoryStore[T], func(), error) {
	return &InMemoryStore[T]{
		Items: make(map[string]T),
	}, func() {}, nil
}

// NewInMemoryStore is used directly in tests
func NewInMemoryStore[T any](c context.Context) (*InMemoryStore[T], func(), error) {
	return newInMemoryStore[T](c)
}

func (s *InMemoryStore[T]) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	// Start transaction
	s.Lock()

	ctx := context.WithValue(c, ctxTransactionKey{}, true)

	// Within this block everything is transactional
	err := f(ctx)
	if err != nil {
		// Rollback
		s.Unlock()

		return err
	}

	// Commit
	s.Unlock()

	return nil
}

func (s *InMemoryStore[T]) Put(c context.Context, uid string, value T) error {
	nonTransactional := c.Value(ctxTransactionKey{}) == nil

	if nonTransactional {
		s.Lock()
	}

	s.Items[uid] = value

	if nonTransactional {
		s.Unlock()
	}

	return nil
}

func (s *InMemoryStore[T]) Get(c context.Context, uid string) (T, bool, error) {
	nonTransactional := c.Value(ctxTransactionKey{}) == nil

	if nonTransactional {
		s.Lock()
	}
	result, exists := s.Items[uid]

	if nonTransactional {
		s.Unlock()
	}

	return result, exists, nil
}

func (s *InMemoryStore[T]) List(c context.Context) ([]T, error) {
	nonTransactional := c.Value(ctxTransactionKey{}) == nil

	if nonTransactional {
		s.Lock()
	}

	result := make([]T, 0, len(s.Items))
	for _, v := range s.Items {
		result = append(result, v)
	}

	if nonTransactional {
		s.Unlock()
	}

	return result, nil
}

// Query mimics the datastore backend: every filter must match and results are
// ordered on orderByField (prefix "-" for descending).
func (s *InMemoryStore[T]) Query(c context.Context, filters []Filter, orderByField string) ([]T, error) {
	all, err := s.List(c)
	if err != nil {
		return nil, err
	}

	result := make([]T, 0, len(all))
	for _, item := range all {
		matchesAll := true
		for _, f := range filters {
			matches, err := matchesFilter(item, f)
			if err != nil {
				return nil, err
			}
			if !matches {
				matchesAll = false
				break
			}
		}
		if matchesAll {
			result = append(result, item)
		}
	}

	if orderByField != "" {
		descending := strings.HasPrefix(orderByField, "-")
		field := strings.TrimPrefix(orderByField, "-")
		var sortErr error
		sort.SliceStable(result, func(i, j int) bool {
			cmp, err := compareFieldValues(fieldByPath(result[i], field), fieldByPath(result[j], field))
			if err != nil {
				sortErr = err
				return false
			}
			if descending {
				return cmp > 0
			}
			return cmp < 0
		})
		if sortErr != nil {
			return nil, sortErr
		}
	}

	return result, nil
}

func matchesFilter[T any](item T, f Filter) (bool, error) {
	cmp, err := compareFieldValues(fieldByPath(item, f.Field), reflect.ValueOf(f.Value))
	if err != nil {
		return false, err
	}

	switch f.Compare {
	case "=", "==":
		return cmp == 0, nil
	case "!=":
		return cmp != 0, nil
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	default:
		return false, fmt.Errorf("unsupported compare operator %q", f.Compare)
	}
}

// fieldByPath resolves a possibly dotted field path ("Client.DeviceToken")
func fieldByPath[T any](item T, path string) reflect.Value {
	v := reflect.ValueOf(item)
	for _, part := range strings.Split(path, ".") {
		for v.Kind() == reflect.Pointer {
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct {
			return reflect.Value{}
		}
		v = v.FieldByName(part)
		if !v.IsValid() {
			return reflect.Value{}
		}
	}
	return v
}

func compareFieldValues(a, b reflect.Value) (int, error) {
	if !a.IsValid() || !b.IsValid() {
		return 0, fmt.Errorf("unknown field in filter or order-by")
	}

	if a.Type() == reflect.TypeOf(time.Time{}) && b.Type() == reflect.TypeOf(time.Time{}) {
		at := a.Interface().(time.Time)
		bt := b.Interface().(time.Time)
		return at.Compare(bt), nil
	}

	switch a.Kind() {
	case reflect.String:
		return strings.Compare(a.String(), b.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		ai, bi := a.Int(), toInt(b)
		switch {
		case ai < bi:
			return -1, nil
		case ai > bi:
			return 1, nil
		}
		return 0, nil
	case reflect.Float32, reflect.Float64:
		af, bf := a.Float(), b.Float()
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		}
		return 0, nil
	case reflect.Bool:
		ab, bb := a.Bool(), b.Bool()
		if ab == bb {
			return 0, nil
		}
		if !ab {
			return -1, nil
		}
		return 1, nil
	default:
		return 0, fmt.Errorf("unsupported field type %s in filter", a.Kind())
	}
}

func toInt(v reflect.Value) int64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return int64(v.Float())
	default:
		return 0
	}
}
