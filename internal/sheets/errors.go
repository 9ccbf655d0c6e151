package sheets

import "errors"

var (
	ErrRemoteRead  = errors.New("remote read failed")
	ErrRemoteWrite = errors.New("remote write failed")
	ErrDuplicateID = errors.New("product id already exists")
	ErrNotFound    = errors.New("product not found")
	ErrRangeFull   = errors.New("product range is full")
)
