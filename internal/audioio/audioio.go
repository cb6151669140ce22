// Package audioio adapts a gordonklaus/portaudio stream to
// internal/dsp's SampleSource/SampleSink interfaces, keeping the actual
// sound-card I/O out of the protocol core per §1 ("wave-file I/O" and
// the SDR/soundcard driver are explicitly out of scope, consumed only
// through an interface).
package audioio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Stream wraps a single portaudio.Stream carrying one mono channel's
// worth of full-duplex baseband audio, implementing both
// dsp.SampleSource and dsp.SampleSink so a Channel's DSP front end can
// read/write it without knowing it is backed by a sound card.
type Stream struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	in     []float32
	out    []float32
}

// Open starts a full-duplex portaudio stream at sampleRate with the
// given per-callback buffer length in frames.
func Open(sampleRate float64, framesPerBuffer int) (*Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audioio: initialize portaudio: %w", err)
	}
	s := &Stream{
		in:  make([]float32, framesPerBuffer),
		out: make([]float32, framesPerBuffer),
	}
	stream, err := portaudio.OpenDefaultStream(1, 1, sampleRate, framesPerBuffer, s.callback)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("audioio: open default stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("audioio: start stream: %w", err)
	}
	s.stream = stream
	return s, nil
}

// callback is portaudio's real-time audio thread entry point; it only
// copies into/out of the buffers ReadSamples/WriteSamples drain under
// the mutex, never touching DSP state directly, since the DSP core
// itself must run only on the sample-pump callback thread per §5.
func (s *Stream) callback(in, out []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.in, in)
	copy(out, s.out)
}

// ReadSamples implements dsp.SampleSource.
func (s *Stream) ReadSamples(dst []float64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(dst)
	if n > len(s.in) {
		n = len(s.in)
	}
	for i := 0; i < n; i++ {
		dst[i] = float64(s.in[i])
	}
	return n, nil
}

// WriteSamples implements dsp.SampleSink.
func (s *Stream) WriteSamples(src []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(src)
	if n > len(s.out) {
		n = len(s.out)
	}
	for i := 0; i < n; i++ {
		s.out[i] = float32(src[i])
	}
	return nil
}

// Close stops the stream and releases portaudio's global state.
func (s *Stream) Close() error {
	if err := s.stream.Stop(); err != nil {
		return fmt.Errorf("audioio: stop stream: %w", err)
	}
	if err := s.stream.Close(); err != nil {
		return fmt.Errorf("audioio: close stream: %w", err)
	}
	return portaudio.Terminate()
}
