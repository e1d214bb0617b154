package player

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/alac"
	"github.com/llehouerou/go-faad2"
	"github.com/llehouerou/go-m4a"
)

const alacFrameSize = 4096

var errM4ACodec = errors.New("m4a: unsupported codec")

// m4aStream decodes the AAC or ALAC track of an MP4 container one sample
// (container access unit) at a time.
type m4aStream struct {
	container *m4a.Reader
	closer    io.Closer
	rate      beep.SampleRate
	decode    func(data []byte) ([][2]float64, error)
	release   func()

	idx    int // next container sample
	frames [][2]float64
	drop   int // frames to discard after a seek lands early
	pos    int
	length int
	err    error
}

func decodeM4A(f io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	container, err := m4a.Open(f)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("m4a: %w", err)
	}

	rate := beep.SampleRate(container.SampleRate())
	channels := int(container.Channels())
	s := &m4aStream{
		container: container,
		closer:    f,
		rate:      rate,
		length:    rate.N(container.Duration()),
		release:   func() {},
	}

	switch container.Codec() {
	case m4a.CodecAAC:
		ctx := context.Background()
		dec, err := faad2.NewDecoder(ctx)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("aac: %w", err)
		}
		if err := dec.Init(ctx, container.CodecConfig()); err != nil {
			dec.Close(ctx)
			return nil, beep.Format{}, fmt.Errorf("aac: %w", err)
		}
		s.decode = func(data []byte) ([][2]float64, error) {
			pcm, err := dec.Decode(ctx, data)
			if err != nil {
				return nil, fmt.Errorf("aac: %w", err)
			}
			return int16Frames(pcm, channels), nil
		}
		s.release = func() { dec.Close(ctx) }

	case m4a.CodecALAC:
		bits := int(container.SampleSize())
		dec, err := alac.NewWithConfig(alac.Config{
			SampleRate:  int(container.SampleRate()),
			SampleSize:  bits,
			NumChannels: channels,
			FrameSize:   alacFrameSize,
		})
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("alac: %w", err)
		}
		s.decode = func(data []byte) ([][2]float64, error) {
			return pcmBytesFrames(dec.Decode(data), bits, channels), nil
		}

	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", errM4ACodec, container.Codec())
	}

	format := beep.Format{SampleRate: rate, NumChannels: min(channels, 2), Precision: Precision}
	return s, format, nil
}

func (s *m4aStream) Stream(samples [][2]float64) (n int, ok bool) {
	if s.err != nil {
		return 0, false
	}
	for n < len(samples) {
		if len(s.frames) == 0 {
			if s.idx >= s.container.SampleCount() {
				return n, n > 0
			}
			data, err := s.container.ReadSample(s.idx)
			if err != nil {
				s.err = err
				return n, n > 0
			}
			s.idx++
			if s.frames, err = s.decode(data); err != nil {
				s.err = err
				return n, n > 0
			}
			d := min(s.drop, len(s.frames))
			s.frames = s.frames[d:]
			s.drop -= d
			continue
		}
		k := copy(samples[n:], s.frames)
		s.frames = s.frames[k:]
		s.pos += k
		n += k
	}
	return n, true
}

func (s *m4aStream) Err() error    { return s.err }
func (s *m4aStream) Len() int      { return s.length }
func (s *m4aStream) Position() int { return s.pos }

// Seek jumps to the container sample covering p, then discards decoded
// frames up to p.
func (s *m4aStream) Seek(p int) error {
	p = min(max(p, 0), s.length)
	s.idx = s.container.SeekToTime(s.rate.D(p))
	landed := s.rate.N(s.container.SampleTime(s.idx))
	s.drop = max(p-landed, 0)
	s.frames = nil
	s.pos = p
	s.err = nil
	return nil
}

func (s *m4aStream) Close() error {
	s.release()
	return s.closer.Close()
}

// int16Frames converts interleaved 16-bit PCM to stereo frames.
func int16Frames(pcm []int16, channels int) [][2]float64 {
	if channels < 1 {
		return nil
	}
	frames := make([][2]float64, len(pcm)/channels)
	for i := range frames {
		l := float64(pcm[i*channels]) / 32768
		r := l
		if channels > 1 {
			r = float64(pcm[i*channels+1]) / 32768
		}
		frames[i] = [2]float64{l, r}
	}
	return frames
}

// pcmBytesFrames converts little-endian 16 or 24-bit interleaved PCM to
// stereo frames.
func pcmBytesFrames(data []byte, bits, channels int) [][2]float64 {
	width := bits / 8
	if (width != 2 && width != 3) || channels < 1 {
		return nil
	}
	sample := func(off int) float64 {
		if width == 2 {
			return float64(int16(uint16(data[off])|uint16(data[off+1])<<8)) / 32768
		}
		v := int32(data[off]) | int32(data[off+1])<<8 | int32(data[off+2])<<16
		v = v << 8 >> 8 // sign-extend 24 bits
		return float64(v) / 8388608
	}

	stride := width * channels
	frames := make([][2]float64, len(data)/stride)
	for i := range frames {
		off := i * stride
		l := sample(off)
		r := l
		if channels > 1 {
			r = sample(off + width)
		}
		frames[i] = [2]float64{l, r}
	}
	return frames
}
