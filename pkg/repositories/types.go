package repositories

import (
	"errors"
	"fmt"
)

type ErrNotFound struct {
	Entity string
}

func (e *ErrNotFound) Error() string {
	if e.Entity == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Entity)
}

func IsNotFound(err error) bool {
	var target *ErrNotFound
	return errors.As(err, &target)
}

type ErrAlreadyExists struct {
	Entity string
}

func (e *ErrAlreadyExists) Error() string {
	return fmt.Sprintf("%s already exists", e.Entity)
}

func IsAlreadyExists(err error) bool {
	var target *ErrAlreadyExists
	return errors.As(err, &target)
}
