package indicator

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEveryCueRenders(t *testing.T) {
	for _, kind := range []cueKind{cueStart, cueComplete, cueCancel} {
		require.NotEmpty(t, renderCue(cueNotes[kind]), kind)
	}
	require.Empty(t, renderCue(cueNotes[cueKind(99)]))
}

func TestRenderCueLength(t *testing.T) {
	notes := []note{{440, 50 * time.Millisecond}, {660, 50 * time.Millisecond}}
	got := renderCue(notes)
	require.Len(t, got, 2*(2*frames(50*time.Millisecond)+frames(cueGap)))
}

func TestAppendToneRampsFromSilence(t *testing.T) {
	pcm := appendTone(nil, note{440, 100 * time.Millisecond})
	require.Len(t, pcm, 2*frames(100*time.Millisecond))

	first := int16(binary.LittleEndian.Uint16(pcm[0:]))
	last := int16(binary.LittleEndian.Uint16(pcm[len(pcm)-2:]))
	require.Zero(t, first)
	require.Zero(t, last)

	var peak int16
	for i := 0; i < len(pcm); i += 2 {
		peak = max(peak, int16(binary.LittleEndian.Uint16(pcm[i:])))
	}
	require.InDelta(t, cueGain*32767, float64(peak), 200)
}

func TestAppendToneIgnoresEmptyNotes(t *testing.T) {
	require.Empty(t, appendTone(nil, note{0, 100 * time.Millisecond}))
	require.Empty(t, appendTone(nil, note{440, 0}))
}

func TestEmitCueRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, emitCue(ctx, cueStart), context.Canceled)
}
