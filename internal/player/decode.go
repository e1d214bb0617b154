package player

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/wav"
)

const (
	extMP3  = ".mp3"
	extFLAC = ".flac"
	extWAV  = ".wav"
	extOGG  = ".ogg"
	extOPUS = ".opus"
	extM4A  = ".m4a"
)

var (
	ErrOpen              = errors.New("open audio file")
	ErrDecode            = errors.New("decode audio")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// decodeFunc turns an open file into a sample stream. The returned streamer
// owns f and closes it on Close.
type decodeFunc func(f *os.File) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[string]decodeFunc{
	extMP3:  decodeMP3,
	extFLAC: decodeFLAC,
	extWAV:  decodeWAV,
	extOGG:  decodeOGG,
	extOPUS: decodeOGG,
	extM4A:  decodeMP4,
}

// SupportedExtensions lists the file extensions that can be decoded.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(decoders))
	for ext := range decoders {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// openStream opens path and decodes it with the decoder for its extension.
func openStream(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: %w", ErrOpen, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := decoders[ext]
	if !ok {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	streamer, format, err := decode(f)
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: %s: %w", ErrDecode, filepath.Base(path), err)
	}
	return streamer, format, nil
}

func decodeMP3(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
	return decodeGoMP3(f)
}

func decodeFLAC(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
	// Some taggers prepend an ID3v2 block the FLAC decoder rejects.
	if err := skipID3v2(f); err != nil {
		return nil, beep.Format{}, err
	}
	return flac.Decode(f)
}

func decodeWAV(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
	return wav.Decode(f)
}

func decodeOGG(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
	return decodeOgg(f)
}

func decodeMP4(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
	return decodeM4A(f)
}

// skipID3v2 positions r after an ID3v2 tag, or back at the start when there
// is none.
func skipID3v2(r io.ReadSeeker) error {
	header := make([]byte, 10)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	if n < 10 || string(header[0:3]) != "ID3" {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	// Syncsafe integer: 7 bits per byte.
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])

	_, err = r.Seek(10+size, io.SeekStart)
	return err
}
