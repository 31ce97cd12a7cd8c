// Package metrics tracks the rolling pacing and throughput statistics
// for the video and audio streamers: frame rate, bitrate, and how far
// each stream's actual send time drifts from its scheduled TSF
// deadline. None of it feeds back into pacing decisions; it exists so
// a running drcstream process can report its own health.
package metrics

import "time"

// DefaultStatGridNum is how many one-second buckets a PeriodicStatistic
// keeps by default, giving a five-second rolling window.
const DefaultStatGridNum = int64(5)

// PeriodicStatistic keeps a rolling sum/avg over gridNum buckets of
// gridPeriod seconds each, so a caller can Stat() values as they occur
// and read back a smoothed rate without storing history.
//
// TODO: the average is biased low until a full window of buckets has
// been filled; acceptable here since it only affects the first few
// seconds after a stream starts.
type PeriodicStatistic struct {
	gridNum    int64
	gridPeriod int64
	dataGrid   []int64

	avg int64
	sum int64

	lastIdx      int64
	lastStatTime int64
}

// NewPeriodicStatistic creates a rolling-window accumulator: gridNum
// buckets of gridPeriod seconds each.
func NewPeriodicStatistic(gridNum, gridPeriod int64) *PeriodicStatistic {
	return &PeriodicStatistic{
		gridNum:    gridNum + 1,
		gridPeriod: gridPeriod,
		dataGrid:   make([]int64, gridNum+1),
	}
}

func (rcv *PeriodicStatistic) expired() bool {
	return time.Now().Unix() > rcv.lastStatTime+rcv.gridNum*rcv.gridPeriod
}

// Stat records val as having occurred now.
func (rcv *PeriodicStatistic) Stat(val int64) {
	now := time.Now().Unix()
	idx := now % (rcv.gridNum * rcv.gridPeriod) / rcv.gridPeriod

	if now >= rcv.lastStatTime+rcv.gridNum*rcv.gridPeriod {
		for i := int64(0); i < rcv.gridNum; i++ {
			rcv.dataGrid[i] = 0
		}
		rcv.dataGrid[idx] = val
		rcv.sum = val
		rcv.lastIdx = idx
		rcv.avg = rcv.calcAvg()
		rcv.lastStatTime = now
		return
	}
	if idx == rcv.lastIdx && now-rcv.lastStatTime <= rcv.gridPeriod {
		rcv.dataGrid[idx] += val
		rcv.sum += val
		rcv.avg = rcv.calcAvg()
		rcv.lastStatTime = now
		return
	}

	// Moved to a new bucket; zero out anything skipped in between.
	virtualPos := idx
	if virtualPos <= rcv.lastIdx {
		virtualPos += rcv.gridNum
	}
	for i := rcv.lastIdx + 1; i <= virtualPos; i++ {
		actualPos := i % rcv.gridNum
		rcv.sum -= rcv.dataGrid[actualPos]
		rcv.dataGrid[actualPos] = 0
	}
	rcv.dataGrid[idx] += val
	rcv.sum += val
	rcv.lastIdx = idx
	rcv.avg = rcv.calcAvg()
	rcv.lastStatTime = now
}

func (rcv *PeriodicStatistic) calcAvg() int64 {
	// Drop the still-filling bucket from the average.
	return (rcv.sum - rcv.dataGrid[rcv.lastIdx]) / (rcv.gridNum - 1)
}

// Avg returns the rolling average, or 0 if nothing has been Stat'd recently.
func (rcv *PeriodicStatistic) Avg() int64 {
	if rcv.expired() {
		return 0
	}
	return rcv.avg
}

// Sum returns the rolling total.
func (rcv *PeriodicStatistic) Sum() int64 {
	if rcv.expired() {
		return 0
	}
	return rcv.sum
}
