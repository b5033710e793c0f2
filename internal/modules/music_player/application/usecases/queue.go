package usecases

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application/ports"
	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
)

// DefaultPageSize is how many pending tracks the queue listing shows.
const DefaultPageSize = 10

// QueueAddInput contains the input for the QueueAdd use case.
type QueueAddInput struct {
	GuildID               snowflake.ID
	Track                 *domain.Track
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// QueueAddOutput contains the result of the QueueAdd use case.
type QueueAddOutput struct {
	Position int  // 1-indexed position among pending tracks
	WasIdle  bool // true if playback will start with this track
}

// QueueListInput contains the input for the QueueList use case.
type QueueListInput struct {
	GuildID snowflake.ID
	Limit   int // Items to return (optional, defaults to DefaultPageSize)
}

// QueueListOutput contains the result of the QueueList use case.
type QueueListOutput struct {
	CurrentTrack *domain.Track
	Tracks       []*domain.Track // first Limit pending tracks in play order
	TotalTracks  int             // all pending tracks
	LoopMode     domain.LoopMode
	Volume       domain.Volume
}

// QueueShuffleInput contains the input for the QueueShuffle use case.
type QueueShuffleInput struct {
	GuildID snowflake.ID
}

// QueueShuffleOutput contains the result of the QueueShuffle use case.
type QueueShuffleOutput struct {
	ShuffledCount int
}

// QueueService handles queue operations.
type QueueService struct {
	repo      domain.PlayerStateRepository
	publisher ports.EventPublisher
}

// NewQueueService creates a new QueueService.
func NewQueueService(
	repo domain.PlayerStateRepository,
	publisher ports.EventPublisher,
) *QueueService {
	return &QueueService{
		repo:      repo,
		publisher: publisher,
	}
}

// Add adds a track to the queue and publishes an event to trigger playback if idle.
func (q *QueueService) Add(_ context.Context, input QueueAddInput) (*QueueAddOutput, error) {
	state := q.repo.Get(input.GuildID)
	if state == nil {
		return nil, ErrNotConnected
	}

	state.Lock()
	defer state.Unlock()

	if !state.IsConnected() {
		return nil, ErrNotConnected
	}

	// Update notification channel if provided
	if input.NotificationChannelID != 0 {
		state.SetNotificationChannelID(input.NotificationChannelID)
	}

	wasIdle := state.IsIdle()
	state.Queue.Add(input.Track)

	// Publish event - PlaybackEventHandler will start playback if wasIdle
	if q.publisher != nil {
		if err := q.publisher.Publish(domain.TrackEnqueuedEvent{
			GuildID: input.GuildID,
			Track:   input.Track,
			WasIdle: wasIdle,
		}); err != nil {
			return nil, err
		}
	}

	return &QueueAddOutput{
		Position: state.Queue.Len(),
		WasIdle:  wasIdle,
	}, nil
}

// List returns the current track and the first pending tracks.
func (q *QueueService) List(input QueueListInput) (*QueueListOutput, error) {
	state := q.repo.Get(input.GuildID)
	if state == nil {
		return nil, ErrQueueEmpty
	}

	state.Lock()
	defer state.Unlock()

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}

	pending := state.Queue.Pending()
	current := state.Queue.Current()
	if len(pending) == 0 && current == nil {
		return nil, ErrQueueEmpty
	}

	total := len(pending)
	if len(pending) > limit {
		pending = pending[:limit]
	}

	return &QueueListOutput{
		CurrentTrack: current,
		Tracks:       pending,
		TotalTracks:  total,
		LoopMode:     state.Queue.LoopMode(),
		Volume:       state.Queue.Volume(),
	}, nil
}

// Shuffle randomly reorders the pending tracks.
func (q *QueueService) Shuffle(input QueueShuffleInput) (*QueueShuffleOutput, error) {
	state := q.repo.Get(input.GuildID)
	if state == nil {
		return nil, ErrQueueEmpty
	}

	state.Lock()
	defer state.Unlock()

	if state.Queue.IsEmpty() {
		return nil, ErrQueueEmpty
	}

	state.Queue.Shuffle()

	return &QueueShuffleOutput{ShuffledCount: state.Queue.Len()}, nil
}
