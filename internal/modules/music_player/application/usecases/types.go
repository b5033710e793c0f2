package usecases

import (
	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
)

// Re-export domain types for presentation layer use.
// This allows presentation to depend only on usecases without importing domain directly.

// Track is an alias for domain.Track.
type Track = domain.Track

// LoopMode is an alias for domain.LoopMode.
type LoopMode = domain.LoopMode

// Volume is an alias for domain.Volume.
type Volume = domain.Volume

// PlayerStateRepository is an alias for domain.PlayerStateRepository.
type PlayerStateRepository = domain.PlayerStateRepository

// Loop mode values re-exported for the presentation layer.
const (
	LoopModeNone  = domain.LoopModeNone
	LoopModeTrack = domain.LoopModeTrack
	LoopModeQueue = domain.LoopModeQueue
)

// ParseLoopMode is re-exported from domain.
var ParseLoopMode = domain.ParseLoopMode
