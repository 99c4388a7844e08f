package player

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// decoder turns a format-specific source into seekable 16-bit LE PCM.
type decoder interface {
	io.ReadSeeker
	Length() int64 // total PCM bytes, -1 if unknown
	SampleRate() int
	Channels() int
}

// openDecoder picks a decoder by file extension.
func openDecoder(f *os.File) (decoder, error) {
	switch ext := strings.ToLower(filepath.Ext(f.Name())); ext {
	case ".mp3":
		dec, err := mp3.NewDecoder(f)
		if err != nil {
			return nil, fmt.Errorf("decoding MP3: %w", err)
		}
		return &mp3Source{dec: dec}, nil
	case ".wav":
		return newWAVSource(f)
	case ".flac":
		return newFLACSource(f)
	case ".ogg":
		return newOGGSource(f)
	default:
		return nil, fmt.Errorf("unsupported format: %s", ext)
	}
}

// carry holds PCM bytes produced in excess of the caller's buffer, handed out
// on the next Read.
type carry struct {
	buf []byte
}

func (c *carry) drain(p []byte) int {
	if len(c.buf) == 0 {
		return 0
	}
	n := copy(p, c.buf)
	c.buf = c.buf[n:]
	return n
}

func (c *carry) handoff(p, raw []byte) int {
	n := copy(p, raw)
	if n < len(raw) {
		c.buf = raw[n:]
	}
	return n
}

func (c *carry) reset() { c.buf = nil }

func clamp16(v int) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// clampPCMPos bounds an absolute seek position to [0, total].
func clampPCMPos(pos, total int64) int64 {
	if pos < 0 {
		return 0
	}
	if total >= 0 && pos > total {
		return total
	}
	return pos
}

func resolveWhence(offset, pos, total int64, whence int) int64 {
	switch whence {
	case io.SeekCurrent:
		return pos + offset
	case io.SeekEnd:
		return total + offset
	default:
		return offset
	}
}

// mp3Source: go-mp3 already outputs 16-bit stereo PCM at 44.1kHz.
type mp3Source struct {
	dec *mp3.Decoder
}

func (s *mp3Source) Read(p []byte) (int, error) { return s.dec.Read(p) }
func (s *mp3Source) Seek(offset int64, whence int) (int64, error) {
	return s.dec.Seek(offset, whence)
}
func (s *mp3Source) Length() int64   { return s.dec.Length() }
func (s *mp3Source) SampleRate() int { return 44100 }
func (s *mp3Source) Channels() int   { return 2 }

// wavSource converts arbitrary-depth WAV PCM to 16-bit on the fly.
type wavSource struct {
	file     *os.File
	carry    carry
	pos      int64
	total    int64
	pcmStart int64 // file offset of the first PCM byte
	rate     int
	channels int
	depth    int // source bits per sample
}

func newWAVSource(f *os.File) (*wavSource, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("locating WAV PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	depth := int(dec.BitDepth)
	if channels < 1 || depth < 8 {
		return nil, fmt.Errorf("unplayable WAV layout (%d ch, %d bit)", channels, depth)
	}
	srcFrame := int64(channels) * int64(depth) / 8
	frames := dec.PCMLen() / srcFrame

	pcmStart, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	return &wavSource{
		file:     f,
		total:    frames * int64(channels) * 2,
		pcmStart: pcmStart,
		rate:     int(dec.SampleRate),
		channels: channels,
		depth:    depth,
	}, nil
}

func (s *wavSource) Read(p []byte) (int, error) {
	if n := s.carry.drain(p); n > 0 {
		s.pos += int64(n)
		return n, nil
	}

	srcBytes := s.depth / 8
	want := len(p) / 2
	if want == 0 {
		want = 1
	}
	src := make([]byte, want*srcBytes)
	n, err := io.ReadFull(s.file, src)
	samples := n / srcBytes
	if samples == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, samples*2)
	for i := range samples {
		off := i * srcBytes
		var v int
		switch s.depth {
		case 8:
			v = (int(src[off]) - 128) << 8 // 8-bit WAV is unsigned
		case 16:
			v = int(int16(binary.LittleEndian.Uint16(src[off:])))
		case 24:
			u := int32(src[off]) | int32(src[off+1])<<8 | int32(src[off+2])<<16
			if u&0x800000 != 0 {
				u |= ^int32(0xFFFFFF)
			}
			v = int(u >> 8)
		case 32:
			v = int(int32(binary.LittleEndian.Uint32(src[off:])) >> 16)
		}
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(clamp16(v)))
	}

	written := s.carry.handoff(p, raw)
	s.pos += int64(written)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return written, err
}

func (s *wavSource) Seek(offset int64, whence int) (int64, error) {
	newPos := clampPCMPos(resolveWhence(offset, s.pos, s.total, whence), s.total)

	outFrame := int64(s.channels) * 2
	srcFrame := int64(s.channels) * int64(s.depth) / 8
	srcPos := newPos / outFrame * srcFrame

	if _, err := s.file.Seek(s.pcmStart+srcPos, io.SeekStart); err != nil {
		return s.pos, err
	}
	s.carry.reset()
	s.pos = newPos
	return newPos, nil
}

func (s *wavSource) Length() int64   { return s.total }
func (s *wavSource) SampleRate() int { return s.rate }
func (s *wavSource) Channels() int   { return s.channels }

// flacSource decodes FLAC frames, rescaling any bit depth to 16.
type flacSource struct {
	stream   *flac.Stream
	carry    carry
	pos      int64
	total    int64
	rate     int
	channels int
	bps      int
}

func newFLACSource(f *os.File) (*flacSource, error) {
	stream, err := flac.NewSeek(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}
	info := stream.Info
	channels := int(info.NChannels)
	return &flacSource{
		stream:   stream,
		total:    int64(info.NSamples) * int64(channels) * 2,
		rate:     int(info.SampleRate),
		channels: channels,
		bps:      int(info.BitsPerSample),
	}, nil
}

func (s *flacSource) Read(p []byte) (int, error) {
	if n := s.carry.drain(p); n > 0 {
		s.pos += int64(n)
		return n, nil
	}

	frame, err := s.stream.ParseNext()
	if err != nil {
		return 0, err
	}

	nSamples := int(frame.Subframes[0].NSamples)
	raw := make([]byte, nSamples*s.channels*2)
	for i := range nSamples {
		for ch := range s.channels {
			v := int(frame.Subframes[ch].Samples[i])
			switch {
			case s.bps > 16:
				v >>= s.bps - 16
			case s.bps < 16:
				v <<= 16 - s.bps
			}
			binary.LittleEndian.PutUint16(raw[(i*s.channels+ch)*2:], uint16(clamp16(v)))
		}
	}

	written := s.carry.handoff(p, raw)
	s.pos += int64(written)
	return written, nil
}

func (s *flacSource) Seek(offset int64, whence int) (int64, error) {
	newPos := clampPCMPos(resolveWhence(offset, s.pos, s.total, whence), s.total)

	sampleNum := uint64(newPos / (int64(s.channels) * 2))
	if _, err := s.stream.Seek(sampleNum); err != nil {
		return s.pos, err
	}
	s.carry.reset()
	s.pos = newPos
	return newPos, nil
}

func (s *flacSource) Length() int64   { return s.total }
func (s *flacSource) SampleRate() int { return s.rate }
func (s *flacSource) Channels() int   { return s.channels }

// oggSource converts Vorbis float samples to 16-bit PCM.
type oggSource struct {
	reader   *oggvorbis.Reader
	carry    carry
	pos      int64
	total    int64
	rate     int
	channels int
}

func newOGGSource(f *os.File) (*oggSource, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}
	channels := reader.Channels()
	return &oggSource{
		reader:   reader,
		total:    reader.Length() * int64(channels) * 2,
		rate:     reader.SampleRate(),
		channels: channels,
	}, nil
}

func (s *oggSource) Read(p []byte) (int, error) {
	if n := s.carry.drain(p); n > 0 {
		s.pos += int64(n)
		return n, nil
	}

	samples := make([]float32, len(p)/2)
	n, err := s.reader.Read(samples)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, io.EOF
	}

	raw := make([]byte, n*2)
	for i := range n {
		v := samples[i]
		if v > 1.0 {
			v = 1.0
		} else if v < -1.0 {
			v = -1.0
		}
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(int16(v*32767)))
	}

	written := s.carry.handoff(p, raw)
	s.pos += int64(written)
	return written, err
}

func (s *oggSource) Seek(offset int64, whence int) (int64, error) {
	newPos := clampPCMPos(resolveWhence(offset, s.pos, s.total, whence), s.total)

	if err := s.reader.SetPosition(newPos / (int64(s.channels) * 2)); err != nil {
		return s.pos, err
	}
	s.carry.reset()
	s.pos = newPos
	return newPos, nil
}

func (s *oggSource) Length() int64   { return s.total }
func (s *oggSource) SampleRate() int { return s.rate }
func (s *oggSource) Channels() int   { return s.channels }
