//go:build js && wasm

package main

import (
	"context"
	"fmt"
	"syscall/js"

	"quiz-studio/internal/persist"
)

// localStorage is a persist.Store over window.localStorage. Browsers that
// block storage (private mode, file:// quirks) surface as errors, which
// the quiz logs and carries on.
type localStorage struct {
	ls js.Value
}

func newLocalStorage() (store *localStorage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("localStorage unavailable: %v", r)
		}
	}()
	ls := js.Global().Get("localStorage")
	if ls.IsUndefined() || ls.IsNull() {
		return nil, fmt.Errorf("localStorage unavailable")
	}
	return &localStorage{ls: ls}, nil
}

func (s *localStorage) Get(_ context.Context, key string) (value string, err error) {
	defer recoverJS(&err)
	v := s.ls.Call("getItem", key)
	if v.IsNull() || v.IsUndefined() {
		return "", persist.ErrNotFound
	}
	return v.String(), nil
}

func (s *localStorage) Set(_ context.Context, key, value string) (err error) {
	defer recoverJS(&err)
	s.ls.Call("setItem", key, value)
	return nil
}

func (s *localStorage) Remove(_ context.Context, key string) (err error) {
	defer recoverJS(&err)
	s.ls.Call("removeItem", key)
	return nil
}

// recoverJS turns a thrown JS exception (quota exceeded, security error)
// into an error.
func recoverJS(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("localStorage: %v", r)
	}
}
