package infrastructure

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
)

// MemoryRepository is an in-memory implementation of PlayerStateRepository.
// States are handed out by pointer; callers lock the state itself before use.
type MemoryRepository struct {
	mu            sync.RWMutex
	states        map[snowflake.ID]*domain.PlayerState
	defaultVolume domain.Volume
}

// RepositoryOption configures a MemoryRepository.
type RepositoryOption func(*MemoryRepository)

// WithDefaultVolume sets the volume new guild queues start at.
func WithDefaultVolume(volume domain.Volume) RepositoryOption {
	return func(r *MemoryRepository) {
		r.defaultVolume = volume.Clamp()
	}
}

// NewMemoryRepository creates a new MemoryRepository.
func NewMemoryRepository(opts ...RepositoryOption) *MemoryRepository {
	r := &MemoryRepository{
		states:        make(map[snowflake.ID]*domain.PlayerState),
		defaultVolume: domain.DefaultVolume,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the PlayerState for the given guild, or nil if not exists.
func (r *MemoryRepository) Get(guildID snowflake.ID) *domain.PlayerState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.states[guildID]
}

// GetOrCreate returns the guild's PlayerState, creating it on first use.
// Concurrent first calls for one guild all receive the same state.
func (r *MemoryRepository) GetOrCreate(guildID snowflake.ID) *domain.PlayerState {
	r.mu.RLock()
	state, ok := r.states[guildID]
	r.mu.RUnlock()
	if ok {
		return state
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if state, ok := r.states[guildID]; ok {
		return state
	}
	state = domain.NewPlayerState(guildID)
	state.Queue.SetVolume(r.defaultVolume)
	r.states[guildID] = state
	return state
}

// Delete removes the PlayerState for the given guild.
func (r *MemoryRepository) Delete(guildID snowflake.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, guildID)
}

// Count returns the number of player states (for testing/monitoring).
func (r *MemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.states)
}

// Ensure MemoryRepository implements PlayerStateRepository.
var _ domain.PlayerStateRepository = (*MemoryRepository)(nil)
