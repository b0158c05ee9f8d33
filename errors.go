// FILE: lixenwraith/namespace/errors.go
package namespace

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a looked-up path has no binding.
	ErrNotFound = errors.New("namespace: not found")
	// ErrTypeMismatch is returned when a path descends into a leaf, or a
	// subtree is found where a leaf is required and vice versa.
	ErrTypeMismatch = errors.New("namespace: type mismatch")
	// ErrAlreadyBound is returned when a bind collides with an existing
	// binding and the merge policy forbids overwriting it.
	ErrAlreadyBound = errors.New("namespace: already bound")
	// ErrStructuralConflict aborts a load in which one name is used both as
	// a leaf and as a subtree prefix.
	ErrStructuralConflict = errors.New("namespace: structural conflict")
	// ErrConversion marks every coercion failure.
	ErrConversion = errors.New("namespace: conversion failed")
	// ErrSourceNotFound is returned when a file or directory source is absent.
	ErrSourceNotFound = errors.New("namespace: source not found")
)

// PathError records the operation and fully qualified path that failed.
type PathError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

// Unwrap implements the implicit interface for usage with errors.Is and errors.As.
func (e *PathError) Unwrap() error {
	return e.Err
}

func pathErr(op, path string, err error) error {
	return &PathError{Op: op, Path: path, Err: err}
}

// ConversionError is returned when a raw value cannot be coerced into the
// declared type. Value is the offending raw string.
type ConversionError struct {
	Value string
	Type  string
	Err   error
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cannot convert %q to %s", e.Value, e.Type)
	}
	return fmt.Sprintf("cannot convert %q to %s: %v", e.Value, e.Type, e.Err)
}

// Unwrap implements the implicit interface for usage with errors.Is and errors.As.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Is reports every ConversionError as ErrConversion.
func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

func convErr(value, typeName string, err error) error {
	return &ConversionError{Value: value, Type: typeName, Err: err}
}
