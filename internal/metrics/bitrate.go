package metrics

import "fmt"

// Bitrate tracks a rolling bits-per-second rate over a PeriodicStatistic.
type Bitrate struct {
	statistic *PeriodicStatistic
}

// NewBitrate creates a Bitrate counter with a five-second rolling window.
func NewBitrate() *Bitrate {
	return &Bitrate{statistic: NewPeriodicStatistic(DefaultStatGridNum, 1)}
}

// Add records sizeBytes worth of payload sent just now.
func (b *Bitrate) Add(sizeBytes uint64) {
	b.statistic.Stat(int64(sizeBytes) * 8)
}

// GetBitrate returns the rolling average rate in bits/second.
func (b *Bitrate) GetBitrate() uint64 {
	return uint64(b.statistic.Avg())
}

// GetBitTotal returns the total bits sent within the current window.
func (b *Bitrate) GetBitTotal() uint64 {
	return uint64(b.statistic.Sum())
}

func (b *Bitrate) String() string {
	return fmt.Sprintf("%dkb/s", b.statistic.Avg()/1024)
}
