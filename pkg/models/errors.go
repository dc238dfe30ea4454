package models

import "errors"

var (
	ErrParentNotFound = errors.New("parent product not found")
	ErrEmptyName      = errors.New("listing name is empty after removing the weight")
	ErrCandidateLoad  = errors.New("failed to load candidate parents")
	ErrNotParent      = errors.New("product is not a parent")
)
