package models

import "errors"

// Custom errors
var (
	ErrNoBars            = errors.New("bar series is empty")
	ErrBarsNotIncreasing = errors.New("bar times must be strictly increasing")
	ErrEmptyScript       = errors.New("script is empty")
	ErrEmptyRanges       = errors.New("no parameter ranges to search")
	ErrScriptTimeout     = errors.New("script execution timed out")
	ErrScriptCanceled    = errors.New("script execution canceled")
)
