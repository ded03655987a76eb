// Package configloader locates config files and keeps a process wide,
// type-keyed registry of loaded configs so relayd and relayctl packages can
// share them without import cycles.
//
//	configloader.RegisterConfig(cfg)           // cfg is *configd.Config
//	cfg := configloader.MustGetConfig[*configd.Config]()
package configloader

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrNoConfig reports that no config file was found on the search path.
var ErrNoConfig = errors.New("no config found")

var registry sync.Map // reflect.Type -> instance

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// RegisterConfig stores cfg as the instance for type T.
// A second registration for the same type panics.
func RegisterConfig[T any](cfg T) {
	if _, loaded := registry.LoadOrStore(typeKey[T](), cfg); loaded {
		panic(fmt.Sprintf("config already registered for type %v", typeKey[T]()))
	}
}

// ReplaceConfig stores cfg for type T whether or not one existed.
func ReplaceConfig[T any](cfg T) {
	registry.Store(typeKey[T](), cfg)
}

// MustGetConfig returns the instance for type T or panics.
func MustGetConfig[T any]() T {
	cfg, ok := TryGetConfig[T]()
	if !ok {
		panic(fmt.Sprintf("no config registered for type %v", typeKey[T]()))
	}
	return cfg
}

// TryGetConfig returns the instance for type T and whether it exists.
func TryGetConfig[T any]() (T, bool) {
	if val, ok := registry.Load(typeKey[T]()); ok {
		return val.(T), true
	}
	var zero T
	return zero, false
}
