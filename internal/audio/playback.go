package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"os/exec"
	"strconv"
	"sync"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Request is one clip to play.
type Request struct {
	Path   string
	Sink   string
	Volume int
}

// Playback is a running clip.
type Playback interface {
	Stop()
	Done() <-chan struct{}
}

// Backend starts playbacks. Implementations must not tie the playback
// lifetime to ctx beyond startup.
type Backend interface {
	Play(ctx context.Context, req Request) (Playback, error)
}

// PulseBackend streams 16-bit PCM WAV files to a Pulse sink.
type PulseBackend struct{}

// Play decodes req.Path and starts a playback stream on req.Sink.
func (PulseBackend) Play(_ context.Context, req Request) (Playback, error) {
	format, data, err := DecodeFile(req.Path)
	if err != nil {
		return nil, err
	}
	return startPCM(format, data, req.Sink, gainFor(req.Volume), "soundpp clip")
}

// PlayPCM plays 16-bit little-endian samples on the default sink and
// returns once they drained or ctx ended.
func PlayPCM(ctx context.Context, format Format, data []byte, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pb, err := startPCM(format, data, DefaultSinkID, 1, name)
	if err != nil {
		return err
	}
	select {
	case <-pb.Done():
		return pb.stream.Error()
	case <-ctx.Done():
		pb.Stop()
		return ctx.Err()
	}
}

func startPCM(format Format, data []byte, sink string, gain float64, name string) (*pulsePlayback, error) {
	if !format.IsPCM16() {
		return nil, fmt.Errorf("%w: %d-bit format %d", ErrUnsupportedWAV, format.BitsPerSample, format.AudioFormat)
	}
	var layout pulse.PlaybackOption
	switch format.Channels {
	case 1:
		layout = pulse.PlaybackMono
	case 2:
		layout = pulse.PlaybackStereo
	default:
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedWAV, format.Channels)
	}

	client, err := newPulseClient()
	if err != nil {
		return nil, err
	}

	opts := []pulse.PlaybackOption{
		layout,
		pulse.PlaybackSampleRate(int(format.SampleRate)),
		pulse.PlaybackMediaName(name),
	}
	if sink != "" && sink != DefaultSinkID {
		s, err := client.SinkByID(sink)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("resolve sink %q: %w", sink, err)
		}
		opts = append(opts, pulse.PlaybackSink(s))
	}

	source := &pcmSource{data: data, gain: gain}
	stream, err := client.NewPlayback(pulse.NewReader(source, pulseproto.FormatInt16LE), opts...)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create pulse playback stream: %w", err)
	}

	pb := &pulsePlayback{client: client, stream: stream, done: make(chan struct{})}
	stream.Start()
	go func() {
		stream.Drain()
		pb.Stop()
	}()
	return pb, nil
}

type pulsePlayback struct {
	client *pulse.Client
	stream *pulse.PlaybackStream
	once   sync.Once
	done   chan struct{}
}

func (p *pulsePlayback) Stop() {
	p.once.Do(func() {
		p.stream.Stop()
		p.stream.Close()
		p.client.Close()
		close(p.done)
	})
}

func (p *pulsePlayback) Done() <-chan struct{} {
	return p.done
}

// pcmSource feeds little-endian int16 frames scaled by gain and ends the
// stream with pulse.EndOfData.
type pcmSource struct {
	mu   sync.Mutex
	data []byte
	pos  int
	gain float64
}

func (s *pcmSource) Read(buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := copy(buf[:len(buf)-len(buf)%2], s.data[s.pos:])
	s.pos += n
	if s.gain != 1 {
		scaleInt16(buf[:n], s.gain)
	}
	if s.pos >= len(s.data) {
		return n, pulse.EndOfData
	}
	return n, nil
}

func scaleInt16(buf []byte, gain float64) {
	for i := 0; i+1 < len(buf); i += 2 {
		v := float64(int16(binary.LittleEndian.Uint16(buf[i:]))) * gain
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		binary.LittleEndian.PutUint16(buf[i:], uint16(int16(v)))
	}
}

func gainFor(volume int) float64 {
	return float64(clampVolume(volume)) / 100
}

// CommandBackend plays any format through pw-play.
type CommandBackend struct {
	Binary string
}

// Play runs "pw-play --volume <v> [--target <sink>] <path>".
func (b CommandBackend) Play(_ context.Context, req Request) (Playback, error) {
	bin := b.Binary
	if bin == "" {
		bin = "pw-play"
	}
	args := []string{"--volume", strconv.FormatFloat(gainFor(req.Volume), 'f', 2, 64)}
	if req.Sink != "" && req.Sink != DefaultSinkID {
		args = append(args, "--target", req.Sink)
	}
	args = append(args, req.Path)

	cmd := exec.Command(bin, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", bin, err)
	}
	pb := &commandPlayback{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(pb.done)
	}()
	return pb, nil
}

type commandPlayback struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func (p *commandPlayback) Stop() {
	select {
	case <-p.done:
		return
	default:
	}
	if p.cmd.Process != nil {
		// Kill fails only when the process already exited; Wait still closes done.
		_ = p.cmd.Process.Kill()
	}
	<-p.done
}

func (p *commandPlayback) Done() <-chan struct{} {
	return p.done
}
