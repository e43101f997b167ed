package services

import "errors"

var (
	// ErrDataNotLoaded is returned before the dataset is available
	ErrDataNotLoaded = errors.New("dataset not loaded")
)
