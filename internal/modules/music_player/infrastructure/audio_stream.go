package infrastructure

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
	"go.uber.org/atomic"
	"layeh.com/gopus"
)

const (
	channels   = 2
	sampleRate = 48000
	frameSize  = 960 // 20ms at 48kHz

	pcmFrameBytes = frameSize * channels * 2
)

// frameEncoder turns one frame of interleaved PCM into an Opus packet.
type frameEncoder interface {
	Encode(pcm []int16, frameSize, maxDataBytes int) ([]byte, error)
}

func newOpusEncoder() (frameEncoder, error) {
	encoder, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return nil, fmt.Errorf("encoder error: %w", err)
	}
	return encoder, nil
}

// audioStream pumps PCM from a transcoder into a voice connection as Opus frames.
// It runs on its own goroutine and reports its end exactly once through onEnd.
type audioStream struct {
	id      domain.StreamID
	guildID snowflake.ID
	source  io.ReadCloser
	encoder frameEncoder
	sink    chan<- []byte
	onEnd   func(domain.TrackEndedEvent)

	gain   *atomic.Float64
	paused *atomic.Bool
	resume chan struct{}

	stop       chan struct{}
	stopOnce   sync.Once
	stopReason *atomic.String

	closeOnce sync.Once
	closeErr  error

	frames int
	done   chan struct{}
}

func newAudioStream(
	id domain.StreamID,
	guildID snowflake.ID,
	source io.ReadCloser,
	encoder frameEncoder,
	sink chan<- []byte,
	volume domain.Volume,
	onEnd func(domain.TrackEndedEvent),
) *audioStream {
	return &audioStream{
		id:         id,
		guildID:    guildID,
		source:     source,
		encoder:    encoder,
		sink:       sink,
		onEnd:      onEnd,
		gain:       atomic.NewFloat64(float64(volume.Clamp())),
		paused:     atomic.NewBool(false),
		resume:     make(chan struct{}, 1),
		stop:       make(chan struct{}),
		stopReason: atomic.NewString(""),
		done:       make(chan struct{}),
	}
}

// SetVolume changes the gain applied to the next frames.
func (s *audioStream) SetVolume(volume domain.Volume) {
	s.gain.Store(float64(volume.Clamp()))
}

// Pause holds the pump before the next frame.
func (s *audioStream) Pause() {
	s.paused.Store(true)
}

// Resume releases a paused pump.
func (s *audioStream) Resume() {
	s.paused.Store(false)
	select {
	case s.resume <- struct{}{}:
	default:
	}
}

// IsPaused reports whether the pump is held.
func (s *audioStream) IsPaused() bool {
	return s.paused.Load()
}

// Stop ends the stream and tags its end report with reason.
// Only the first call has an effect.
func (s *audioStream) Stop(reason domain.TrackEndReason) {
	s.stopOnce.Do(func() {
		s.stopReason.Store(string(reason))
		close(s.stop)
		// Unblocks a pump waiting on the transcoder.
		_ = s.closeSource()
	})
}

// Done is closed after the end report has been delivered.
func (s *audioStream) Done() <-chan struct{} {
	return s.done
}

func (s *audioStream) run() {
	defer close(s.done)

	reason, err := s.pump()
	closeErr := s.closeSource()

	if reason == domain.TrackEndFinished && closeErr != nil {
		reason = domain.TrackEndErrored
		err = closeErr
	}

	s.onEnd(domain.TrackEndedEvent{
		GuildID:    s.guildID,
		StreamID:   s.id,
		Reason:     reason,
		FramesSent: s.frames,
		Err:        err,
	})
}

func (s *audioStream) pump() (domain.TrackEndReason, error) {
	pcmBuf := make([]byte, pcmFrameBytes)
	intBuf := make([]int16, frameSize*channels)

	for {
		for s.paused.Load() {
			select {
			case <-s.resume:
			case <-s.stop:
				return s.stoppedReason(), nil
			}
		}

		select {
		case <-s.stop:
			return s.stoppedReason(), nil
		default:
		}

		if _, err := io.ReadFull(s.source, pcmBuf); err != nil {
			if s.isStopped() {
				return s.stoppedReason(), nil
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return domain.TrackEndFinished, nil
			}
			return domain.TrackEndErrored, fmt.Errorf("read error: %w", err)
		}

		for i := range intBuf {
			intBuf[i] = int16(binary.LittleEndian.Uint16(pcmBuf[i*2 : i*2+2]))
		}
		applyGain(intBuf, s.gain.Load())

		opus, err := s.encoder.Encode(intBuf, frameSize, pcmFrameBytes)
		if err != nil {
			return domain.TrackEndErrored, fmt.Errorf("encode error: %w", err)
		}

		select {
		case s.sink <- opus:
			s.frames++
		case <-s.stop:
			return s.stoppedReason(), nil
		}
	}
}

func (s *audioStream) isStopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

func (s *audioStream) stoppedReason() domain.TrackEndReason {
	return domain.TrackEndReason(s.stopReason.Load())
}

func (s *audioStream) closeSource() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.source.Close()
	})
	return s.closeErr
}

// applyGain scales samples in place, saturating at the int16 range.
func applyGain(samples []int16, gain float64) {
	if gain == 1 {
		return
	}
	for i, sample := range samples {
		scaled := math.Round(float64(sample) * gain)
		switch {
		case scaled > math.MaxInt16:
			samples[i] = math.MaxInt16
		case scaled < math.MinInt16:
			samples[i] = math.MinInt16
		default:
			samples[i] = int16(scaled)
		}
	}
}
