package codec

import "github.com/primeforge/codec-engine/pkg/models"

// Error kinds are defined once in pkg/models (every internal package needs
// them) and re-exported here as the façade's public error vocabulary, so
// callers of pkg/codec never need to import pkg/models directly.
type (
	NotInRegistryError    = models.NotInRegistryError
	NoChecksumError       = models.NoChecksumError
	ChecksumMismatchError = models.ChecksumMismatchError
	ChunkValidationError  = models.ChunkValidationError
	EncodingError         = models.EncodingError
	VMExecutionError      = models.VMExecutionError
	NTTDomainError        = models.NTTDomainError
	ConfigurationError    = models.ConfigurationError
	ChunkIndexError       = models.ChunkIndexError
	TransientError        = models.TransientError
)

var (
	ErrNonPositive       = models.ErrNonPositive
	ErrStackUnderflow    = models.ErrStackUnderflow
	ErrNTTDisabled       = models.ErrNTTDisabled
	ErrTimeout           = models.ErrTimeout
	ErrCancelled         = models.ErrCancelled
	ErrRateLimitExceeded = models.ErrRateLimitExceeded
	ErrCircuitOpen       = models.ErrCircuitOpen
	ErrMemoryPressure    = models.ErrMemoryPressure
)
