package indicator

import (
	"context"
	"encoding/binary"
	"math"
	"time"

	"github.com/rbright/soundpp/internal/audio"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueComplete
	cueCancel
)

const (
	cueRate = 22050
	cueGain = 0.18
	cueGap  = 22 * time.Millisecond
	cueRamp = 5 * time.Millisecond
)

var cueFormat = audio.PCM16(1, cueRate)

type note struct {
	hz     float64
	length time.Duration
}

// Rising pair to start, a brighter rise on a captured shortcut, falling on cancel.
var cueNotes = map[cueKind][]note{
	cueStart:    {{880, 70 * time.Millisecond}, {1175, 70 * time.Millisecond}},
	cueComplete: {{740, 65 * time.Millisecond}, {988, 90 * time.Millisecond}},
	cueCancel:   {{480, 75 * time.Millisecond}, {360, 90 * time.Millisecond}},
}

func emitCue(ctx context.Context, kind cueKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pcm := renderCue(cueNotes[kind])
	if len(pcm) == 0 {
		return nil
	}
	return audio.PlayPCM(ctx, cueFormat, pcm, "soundpp cue")
}

// renderCue lays notes end to end with a short silence between them.
func renderCue(notes []note) []byte {
	var pcm []byte
	for i, n := range notes {
		if i > 0 {
			pcm = append(pcm, make([]byte, 2*frames(cueGap))...)
		}
		pcm = appendTone(pcm, n)
	}
	return pcm
}

// appendTone appends a sine with a linear attack and release so the
// edges do not click.
func appendTone(dst []byte, n note) []byte {
	count := frames(n.length)
	if count <= 0 || n.hz <= 0 {
		return dst
	}
	ramp := max(min(frames(cueRamp), count/10), 1)

	for i := range count {
		envelope := min(1, float64(i)/float64(ramp), float64(count-1-i)/float64(ramp))
		v := math.Sin(2*math.Pi*n.hz*float64(i)/cueRate) * cueGain * envelope
		dst = binary.LittleEndian.AppendUint16(dst, uint16(int16(math.Round(v*math.MaxInt16))))
	}
	return dst
}

func frames(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueRate))
}
