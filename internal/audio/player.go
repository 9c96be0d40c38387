package audio

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rbright/soundpp/internal/logging"
)

const minRestoreVolume = 10

// PlayerOptions configures a Player. Nil backends use the Pulse and
// pw-play implementations.
type PlayerOptions struct {
	PCM     Backend
	Command Backend
	Volume  int
	Logger  *slog.Logger
}

// Player keeps at most one clip playing and owns the runtime volume.
type Player struct {
	mu      sync.Mutex
	pcm     Backend
	command Backend
	logger  *slog.Logger

	current    Playback
	currentRef string
	volume     int
	lastVolume int
	muted      bool
}

// NewPlayer builds a Player.
func NewPlayer(opts PlayerOptions) *Player {
	p := &Player{
		pcm:     opts.PCM,
		command: opts.Command,
		logger:  logging.OrDiscard(opts.Logger),
		volume:  clampVolume(opts.Volume),
	}
	if p.pcm == nil {
		p.pcm = PulseBackend{}
	}
	if p.command == nil {
		p.command = CommandBackend{}
	}
	p.lastVolume = p.volume
	return p
}

// Play stops the active clip and starts path on sink. PCM-16 WAV files go
// through the Pulse stream; everything else, or a failed stream, falls back
// to pw-play.
func (p *Player) Play(ctx context.Context, path, sink string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	req := Request{Path: path, Sink: sink, Volume: p.volume}

	var (
		pb  Playback
		err error
	)
	if info, infoErr := ReadInfo(path); infoErr == nil && info.Format.IsPCM16() {
		pb, err = p.pcm.Play(ctx, req)
		if err != nil {
			p.logger.Warn("pcm playback failed; falling back to command", "path", path, "error", err.Error())
		}
	}
	if pb == nil {
		pb, err = p.command.Play(ctx, req)
		if err != nil {
			return err
		}
	}

	p.current = pb
	p.currentRef = path
	go p.reap(pb)
	return nil
}

func (p *Player) reap(pb Playback) {
	<-pb.Done()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == pb {
		p.current = nil
		p.currentRef = ""
	}
}

// Stop halts the active clip. It reports whether anything was playing.
func (p *Player) Stop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

func (p *Player) stopLocked() bool {
	if p.current == nil {
		return false
	}
	p.current.Stop()
	p.current = nil
	p.currentRef = ""
	return true
}

// Wait blocks until the active clip finishes or ctx ends, stopping the
// clip in the latter case.
func (p *Player) Wait(ctx context.Context) error {
	p.mu.Lock()
	pb := p.current
	p.mu.Unlock()
	if pb == nil {
		return nil
	}
	select {
	case <-pb.Done():
		return nil
	case <-ctx.Done():
		pb.Stop()
		return ctx.Err()
	}
}

// Playing returns the path of the active clip.
func (p *Player) Playing() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentRef, p.current != nil
}

// Volume returns the current volume (0-100).
func (p *Player) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SetVolume changes the volume for subsequent clips. A positive volume
// clears the muted flag.
func (p *Player) SetVolume(v int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = clampVolume(v)
	if p.volume > 0 {
		p.muted = false
	}
}

// Muted reports whether ToggleMute last muted the player.
func (p *Player) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// ToggleMute silences the player, or restores the pre-mute volume (at
// least 10) when already muted.
func (p *Player) ToggleMute() (volume int, muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.muted {
		p.lastVolume = p.volume
		p.volume = 0
		p.muted = true
		return p.volume, true
	}
	p.volume = max(minRestoreVolume, p.lastVolume)
	p.muted = false
	return p.volume, false
}

func clampVolume(v int) int {
	return min(100, max(0, v))
}
