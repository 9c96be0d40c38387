package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// ErrUnsupportedWAV reports a WAV file that is not 16-bit PCM.
var ErrUnsupportedWAV = errors.New("unsupported wav encoding (16-bit PCM required)")

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// Format is the fmt chunk of a WAV file.
type Format struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// PCM16 builds a 16-bit PCM format.
func PCM16(channels uint16, sampleRate uint32) Format {
	return Format{
		AudioFormat:   wavFormatPCM,
		Channels:      channels,
		SampleRate:    sampleRate,
		ByteRate:      sampleRate * uint32(channels) * 2,
		BlockAlign:    channels * 2,
		BitsPerSample: 16,
	}
}

// IsPCM16 reports whether samples are interleaved little-endian int16.
func (f Format) IsPCM16() bool {
	return f.AudioFormat == wavFormatPCM && f.BitsPerSample == 16 && f.Channels > 0 && f.SampleRate > 0
}

// Info describes a WAV file without its sample data.
type Info struct {
	Format     Format
	DataSize   int64
	dataOffset int64
}

// Seconds is the playback length derived from the data size and byte rate.
func (i Info) Seconds() float64 {
	if i.Format.ByteRate == 0 {
		return 0
	}
	return float64(i.DataSize) / float64(i.Format.ByteRate)
}

// ReadInfo parses the RIFF header of path.
func ReadInfo(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return Info{}, err
	}
	return readInfo(f, st.Size())
}

func readInfo(r io.ReadSeeker, size int64) (Info, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Info{}, fmt.Errorf("read riff header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return Info{}, errors.New("not a RIFF/WAVE file")
	}

	var (
		info    Info
		haveFmt bool
		offset  int64 = 12
	)
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			return Info{}, fmt.Errorf("wav data chunk not found: %w", err)
		}
		offset += 8
		id := string(chunk[0:4])
		chunkSize := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		switch id {
		case "fmt ":
			if chunkSize < 16 {
				return Info{}, errors.New("wav fmt chunk too short")
			}
			body := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, body); err != nil {
				return Info{}, fmt.Errorf("read fmt chunk: %w", err)
			}
			info.Format = parseFormat(body)
			haveFmt = true
		case "data":
			if !haveFmt {
				return Info{}, errors.New("wav data chunk precedes fmt chunk")
			}
			info.dataOffset = offset
			info.DataSize = chunkSize
			if size > 0 && offset+chunkSize > size {
				info.DataSize = size - offset
			}
			return info, nil
		default:
			if _, err := r.Seek(chunkSize, io.SeekCurrent); err != nil {
				return Info{}, err
			}
		}
		offset += chunkSize
		if chunkSize%2 == 1 {
			if _, err := r.Seek(1, io.SeekCurrent); err != nil {
				return Info{}, err
			}
			offset++
		}
	}
}

func parseFormat(body []byte) Format {
	f := Format{
		AudioFormat:   binary.LittleEndian.Uint16(body[0:2]),
		Channels:      binary.LittleEndian.Uint16(body[2:4]),
		SampleRate:    binary.LittleEndian.Uint32(body[4:8]),
		ByteRate:      binary.LittleEndian.Uint32(body[8:12]),
		BlockAlign:    binary.LittleEndian.Uint16(body[12:14]),
		BitsPerSample: binary.LittleEndian.Uint16(body[14:16]),
	}
	// WAVE_FORMAT_EXTENSIBLE carries the real format code in its sub-format GUID.
	if f.AudioFormat == wavFormatExtensible && len(body) >= 26 {
		f.AudioFormat = binary.LittleEndian.Uint16(body[24:26])
	}
	return f
}

// DecodeFile reads a 16-bit PCM WAV file into memory.
func DecodeFile(path string) (Format, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return Format{}, nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return Format{}, nil, err
	}
	info, err := readInfo(f, st.Size())
	if err != nil {
		return Format{}, nil, err
	}
	if !info.Format.IsPCM16() {
		return Format{}, nil, ErrUnsupportedWAV
	}
	if _, err := f.Seek(info.dataOffset, io.SeekStart); err != nil {
		return Format{}, nil, err
	}
	data := make([]byte, info.DataSize)
	if _, err := io.ReadFull(f, data); err != nil {
		return Format{}, nil, fmt.Errorf("read wav samples: %w", err)
	}
	frame := int(info.Format.BlockAlign)
	if frame <= 0 {
		frame = int(info.Format.Channels) * 2
	}
	return info.Format, data[:len(data)-len(data)%frame], nil
}

// Encode writes a canonical 44-byte-header PCM WAV.
func Encode(w io.Writer, format Format, data []byte) error {
	if !format.IsPCM16() {
		return ErrUnsupportedWAV
	}
	format = PCM16(format.Channels, format.SampleRate)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, format)
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(data)))

	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// WAVSlicer cuts ranges out of PCM-16 WAV files.
type WAVSlicer struct{}

// Slice writes [start, end) seconds of src to dst. The range is clamped to
// the source length; an empty result is an error.
func (WAVSlicer) Slice(src, dst string, start, end float64) error {
	format, data, err := DecodeFile(src)
	if err != nil {
		return err
	}
	frame := int(format.BlockAlign)
	frames := len(data) / frame
	from := clampFrame(start, format.SampleRate, frames)
	to := clampFrame(end, format.SampleRate, frames)
	if to <= from {
		return fmt.Errorf("slice %.3f-%.3fs is outside the %d-frame source", start, end, frames)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if err := Encode(out, format, data[from*frame:to*frame]); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func clampFrame(seconds float64, rate uint32, frames int) int {
	n := int(math.Round(seconds * float64(rate)))
	if n < 0 {
		return 0
	}
	if n > frames {
		return frames
	}
	return n
}

// IsWAV reports whether path looks like a RIFF/WAVE file.
func IsWAV(path string) bool {
	_, err := ReadInfo(path)
	return err == nil
}
