package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrAPIContract  = errors.New("api contract violation")
	ErrColumnLength = errors.New("column length mismatch")
	ErrTimeOrder    = errors.New("time column not strictly increasing")
	ErrLockHeld     = errors.New("lock already held")
	ErrRateLimited  = errors.New("rate limited")
)
