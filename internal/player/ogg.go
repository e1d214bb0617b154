package player

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/jfreymuth/vorbis"
	"github.com/jj11hh/opus"
)

const (
	oggHeaderSize  = 27
	opusSampleRate = 48000
	opusMaxFrame   = 5760 // 120ms at 48kHz
)

var (
	errOggCapture = errors.New("ogg: missing capture pattern")
	errOggVersion = errors.New("ogg: unsupported version")
	errOggCodec   = errors.New("ogg: not an Opus or Vorbis stream")
	errOggHeader  = errors.New("ogg: truncated codec header")
	errOggSeek    = errors.New("ogg: stream is not seekable")
)

// oggPackets splits the first logical bitstream of an Ogg file into packets.
// Pages of other bitstreams are skipped.
type oggPackets struct {
	r       *bufio.Reader
	serial  uint32
	started bool
	queue   [][]byte
	partial []byte
	eos     bool
}

func newOggPackets(r io.Reader) *oggPackets {
	return &oggPackets{r: bufio.NewReader(r)}
}

// next returns the next complete packet, or io.EOF after the last one.
func (o *oggPackets) next() ([]byte, error) {
	for len(o.queue) == 0 {
		if o.eos {
			return nil, io.EOF
		}
		if err := o.readPage(); err != nil {
			return nil, err
		}
	}
	p := o.queue[0]
	o.queue = o.queue[1:]
	return p, nil
}

func (o *oggPackets) readPage() error {
	var hdr [oggHeaderSize]byte
	if _, err := io.ReadFull(o.r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			o.eos = true
			return nil
		}
		return err
	}
	if string(hdr[0:4]) != "OggS" {
		return errOggCapture
	}
	if hdr[4] != 0 {
		return errOggVersion
	}
	flags := hdr[5]
	serial := binary.LittleEndian.Uint32(hdr[14:18])

	lacing := make([]byte, hdr[26])
	if _, err := io.ReadFull(o.r, lacing); err != nil {
		return err
	}
	bodyLen := 0
	for _, l := range lacing {
		bodyLen += int(l)
	}
	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(o.r, body); err != nil {
		return err
	}

	if !o.started {
		o.serial = serial
		o.started = true
	}
	if serial != o.serial {
		return nil
	}

	// A lacing value below 255 ends a packet; a page ending on 255 carries
	// the packet over to the next page.
	start := 0
	pos := 0
	for _, l := range lacing {
		pos += int(l)
		if l < 255 {
			o.queue = append(o.queue, append(o.partial, body[start:pos]...))
			o.partial = nil
			start = pos
		}
	}
	if start < pos {
		o.partial = append(o.partial, body[start:pos]...)
	}

	if flags&0x04 != 0 {
		o.eos = true
	}
	return nil
}

// oggCodec decodes audio packets into interleaved float samples.
type oggCodec interface {
	decode(packet []byte) ([]float32, error)
	channels() int
	sampleRate() int
}

type opusCodec struct {
	dec     *opus.Decoder
	nch     int
	preSkip int
	pcm     []float32
}

func newOpusCodec(head []byte) (*opusCodec, error) {
	// OpusHead: magic(8) version(1) channels(1) pre-skip(2) rate(4) ...
	if len(head) < 19 || head[8] != 1 {
		return nil, errOggHeader
	}
	nch := int(head[9])
	dec, err := opus.NewDecoder(opusSampleRate, nch)
	if err != nil {
		return nil, fmt.Errorf("opus: %w", err)
	}
	return &opusCodec{
		dec:     dec,
		nch:     nch,
		preSkip: int(binary.LittleEndian.Uint16(head[10:12])),
		pcm:     make([]float32, opusMaxFrame*nch),
	}, nil
}

func (c *opusCodec) decode(packet []byte) ([]float32, error) {
	n, err := c.dec.DecodeFloat32(packet, c.pcm)
	if err != nil {
		return nil, fmt.Errorf("opus: %w", err)
	}
	out := c.pcm[:n*c.nch]
	if c.preSkip > 0 {
		drop := min(c.preSkip, n)
		c.preSkip -= drop
		out = out[drop*c.nch:]
	}
	return out, nil
}

func (c *opusCodec) channels() int   { return c.nch }
func (c *opusCodec) sampleRate() int { return opusSampleRate }

type vorbisCodec struct {
	dec vorbis.Decoder
	nch int
	hz  int
}

// newVorbisCodec reads the identification, comment and setup headers.
func newVorbisCodec(ident []byte, packets *oggPackets) (*vorbisCodec, error) {
	// Identification: type(1) "vorbis"(6) version(4) channels(1) rate(4) ...
	if len(ident) < 16 {
		return nil, errOggHeader
	}
	c := &vorbisCodec{
		nch: int(ident[11]),
		hz:  int(binary.LittleEndian.Uint32(ident[12:16])),
	}
	if err := c.dec.ReadHeader(ident); err != nil {
		return nil, fmt.Errorf("vorbis: %w", err)
	}
	for range 2 {
		p, err := packets.next()
		if err != nil {
			return nil, fmt.Errorf("vorbis: %w", err)
		}
		if err := c.dec.ReadHeader(p); err != nil {
			return nil, fmt.Errorf("vorbis: %w", err)
		}
	}
	return c, nil
}

func (c *vorbisCodec) decode(packet []byte) ([]float32, error) {
	out, err := c.dec.Decode(packet)
	if err != nil {
		return nil, fmt.Errorf("vorbis: %w", err)
	}
	return out, nil
}

func (c *vorbisCodec) channels() int   { return c.nch }
func (c *vorbisCodec) sampleRate() int { return c.hz }

// openOggCodec identifies the codec from the first packet and consumes the
// remaining header packets.
func openOggCodec(packets *oggPackets) (oggCodec, error) {
	first, err := packets.next()
	if err != nil {
		return nil, err
	}
	switch {
	case len(first) >= 8 && string(first[:8]) == "OpusHead":
		c, err := newOpusCodec(first)
		if err != nil {
			return nil, err
		}
		// OpusTags
		if _, err := packets.next(); err != nil {
			return nil, err
		}
		return c, nil
	case len(first) >= 7 && first[0] == 0x01 && string(first[1:7]) == "vorbis":
		return newVorbisCodec(first, packets)
	default:
		return nil, errOggCodec
	}
}

// oggStream plays an Ogg Opus or Vorbis file from start to end. It cannot
// seek and reports an unknown length, so callers skip by reading.
type oggStream struct {
	packets *oggPackets
	codec   oggCodec
	closer  io.Closer
	pcm     []float32
	pos     int
	err     error
}

func decodeOgg(f io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	packets := newOggPackets(f)
	codec, err := openOggCodec(packets)
	if err != nil {
		return nil, beep.Format{}, err
	}
	if codec.channels() < 1 {
		return nil, beep.Format{}, errOggHeader
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(codec.sampleRate()),
		NumChannels: min(codec.channels(), 2),
		Precision:   Precision,
	}
	return &oggStream{packets: packets, codec: codec, closer: f}, format, nil
}

func (s *oggStream) Stream(samples [][2]float64) (n int, ok bool) {
	if s.err != nil {
		return 0, false
	}
	nch := s.codec.channels()
	for n < len(samples) {
		if len(s.pcm) == 0 {
			packet, err := s.packets.next()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					s.err = err
				}
				return n, n > 0
			}
			if s.pcm, err = s.codec.decode(packet); err != nil {
				s.err = err
				return n, n > 0
			}
			continue
		}
		samples[n] = interleavedFrame(s.pcm, nch)
		s.pcm = s.pcm[nch:]
		s.pos++
		n++
	}
	return n, true
}

// interleavedFrame takes the first frame of pcm as stereo: mono is
// duplicated and channels past the second are dropped.
func interleavedFrame(pcm []float32, nch int) [2]float64 {
	if nch == 1 {
		return [2]float64{float64(pcm[0]), float64(pcm[0])}
	}
	return [2]float64{float64(pcm[0]), float64(pcm[1])}
}

func (s *oggStream) Err() error    { return s.err }
func (s *oggStream) Len() int      { return 0 }
func (s *oggStream) Position() int { return s.pos }
func (s *oggStream) Seek(int) error {
	return errOggSeek
}
func (s *oggStream) Close() error { return s.closer.Close() }
