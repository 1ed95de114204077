package record

import "errors"

var (
	ErrRecordNotFound     = errors.New("scan record not found")
	ErrInvalidLabel       = errors.New("invalid prediction label")
	ErrPercentageMismatch = errors.New("pneumonia and normal percentages must sum to 100")
)
