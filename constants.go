package omxil

import "github.com/go-omxil/omxilcore/internal/constants"

// Re-exported library/spec version stamps and defaults for callers that
// want to compare against them without reaching into internal/constants.
const (
	LibVersionMajor    = constants.LibVersionMajor
	LibVersionMinor    = constants.LibVersionMinor
	LibVersionRevision = constants.LibVersionRevision
	LibVersionStep     = constants.LibVersionStep

	SpecVersionMajor    = constants.SpecVersionMajor
	SpecVersionMinor    = constants.SpecVersionMinor
	SpecVersionRevision = constants.SpecVersionRevision
	SpecVersionStep     = constants.SpecVersionStep

	DefaultPortQueueDepth    = constants.DefaultPortQueueDepth
	DefaultBufferCountMin    = constants.DefaultBufferCountMin
	DefaultBufferCountActual = constants.DefaultBufferCountActual
)
