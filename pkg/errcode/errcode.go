package errcode

import (
	"github.com/gnames/gn"
)

const (
	UnknownError gn.ErrorCode = iota

	// File System errors
	CreateDirError
	CopyFileError
	ReadFileError
	StoreDirError

	// Logging errors
	CreateLogFileError

	// Configuration errors
	ConfigMissingSettingError

	// Record store errors
	StoreConnectionError
	StoreSchemaError
	StoreReadError
	StoreWriteError

	// Ingestion errors
	IngestOpenError
	IngestHeaderError
	IngestColumnMapError
	IngestRowError

	// Collaborator setup errors
	CacheOpenError
	CacheNotOpenError
	FixtureLoadError
	ClimateGridError
	ClassifierSetupError

	// Curation errors
	CurationCorpusExistsError
	CurationAbortedError
)
