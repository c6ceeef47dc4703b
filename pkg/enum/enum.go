package enum

import (
	"fmt"
	"reflect"
	"sync"
)

var (
	mu          sync.RWMutex
	enumManager = map[reflect.Type]any{}
)

type enum[T comparable] struct {
	toEnum   map[string]T
	toString map[T]string
	order    []T
}

// New registers value under name. Registration order is kept and reported
// by Values.
func New[T comparable](value T, name string) T {
	mu.Lock()
	defer mu.Unlock()

	t := reflect.TypeOf(value)
	e, ok := enumManager[t].(*enum[T])
	if !ok {
		e = &enum[T]{toEnum: map[string]T{}, toString: map[T]string{}}
		enumManager[t] = e
	}

	if _, ok := e.toString[value]; !ok {
		e.order = append(e.order, value)
	}

	e.toEnum[name] = value
	e.toString[value] = name
	return value
}

func ToEnum[T comparable](s string) (T, error) {
	var defaultT T
	e, ok := get[T]()
	if !ok {
		return defaultT, fmt.Errorf("not found enum type %T", defaultT)
	}

	t, ok := e.toEnum[s]
	if !ok {
		return defaultT, fmt.Errorf("not found value %s in enum %T", s, defaultT)
	}

	return t, nil
}

// ToString returns the registered name of value, or an empty string.
func ToString[T comparable](value T) string {
	e, ok := get[T]()
	if !ok {
		return ""
	}

	return e.toString[value]
}

func Values[T comparable]() []T {
	e, ok := get[T]()
	if !ok {
		return nil
	}

	return append([]T{}, e.order...)
}

func get[T comparable]() (*enum[T], bool) {
	mu.RLock()
	defer mu.RUnlock()

	var defaultT T
	e, ok := enumManager[reflect.TypeOf(defaultT)].(*enum[T])
	return e, ok
}
