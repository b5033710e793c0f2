package usecases

import "errors"

// Domain errors for the music player module.
var (
	// ErrNotConnected is returned when an operation requires the bot to be in a voice channel.
	ErrNotConnected = errors.New("not connected to a voice channel")

	// ErrUserNotInVoice is returned when the user is not in a voice channel.
	ErrUserNotInVoice = errors.New("you must be in a voice channel")

	// ErrVoiceConnect is returned when joining or moving a voice channel fails or times out.
	ErrVoiceConnect = errors.New("failed to connect to the voice channel")

	// ErrNotPlaying is returned when no track is currently playing.
	ErrNotPlaying = errors.New("nothing is currently playing")

	// ErrNoResults is returned when a search yields no results.
	ErrNoResults = errors.New("no results found")

	// ErrResolution is returned when the lookup backend fails for reasons other than no match.
	ErrResolution = errors.New("failed to look up track")

	// ErrStreamConstruction is returned when the audio stream for a track cannot be started.
	ErrStreamConstruction = errors.New("failed to start audio stream")

	// ErrNoHistory is returned when there is no previous track to go back to.
	ErrNoHistory = errors.New("there is no previous track")

	// ErrQueueEmpty is returned when the queue is empty.
	ErrQueueEmpty = errors.New("the queue is empty")
)
