package services

import (
	"errors"

	"sspyviz/internal/dataprocessing"
	"sspyviz/internal/datasets"
)

// Dataset service errors. The aliases let callers match with errors.Is
// without importing the lower layers.
var (
	ErrDatasetNotFound   = datasets.ErrNotFound
	ErrUnsupportedSource = datasets.ErrUnsupportedSource
	ErrUnknownSource     = datasets.ErrUnknownSource
	ErrUnsupportedFormat = dataprocessing.ErrUnsupportedFormat

	ErrEmptyUpload       = dataprocessing.ErrEmptyFile
	ErrUnsupportedExport = errors.New("unsupported export format")
)
