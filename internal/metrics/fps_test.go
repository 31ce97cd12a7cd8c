package metrics_test

import (
	"testing"

	"github.com/bugVanisher/drcstream/internal/metrics"
	"github.com/stretchr/testify/require"
)

func TestFPS_StartsAtZero(t *testing.T) {
	f := metrics.NewFPS()
	require.Equal(t, uint32(0), f.GetFPS())
	require.Equal(t, "0", f.String())
}

func TestBitrate_StartsAtZero(t *testing.T) {
	b := metrics.NewBitrate()
	require.Equal(t, uint64(0), b.GetBitrate())
	require.Equal(t, uint64(0), b.GetBitTotal())
}

func TestBitrate_AddAccumulatesWithinWindow(t *testing.T) {
	b := metrics.NewBitrate()
	b.Add(1024)
	b.Add(1024)
	require.Equal(t, uint64(2*1024*8), b.GetBitTotal())
}

func TestPacingDrift_ZeroUntilFirstWindowElapses(t *testing.T) {
	d := metrics.NewPacingDrift()
	d.Add(1000)
	require.Equal(t, int64(0), d.GetDriftMillis())
}

func TestFlow_StatVideoUpdatesBitrate(t *testing.T) {
	f := metrics.NewFlow()
	f.StatVideo(1000, 40000)
	require.Equal(t, uint64(1000*8), f.VideoBitrate.GetBitTotal())
}

func TestFlow_StatAudioUpdatesBitrate(t *testing.T) {
	f := metrics.NewFlow()
	f.StatAudio(1544, 8000)
	require.Equal(t, uint64(1544*8), f.AudioBitrate.GetBitTotal())
}
