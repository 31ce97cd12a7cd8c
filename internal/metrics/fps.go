package metrics

import (
	"fmt"
	"time"
)

// FPS tracks how many frames (or audio packets) per second a stream
// is actually producing.
type FPS struct {
	fps      uint32
	interval time.Duration

	frameCount int64
	beginTS    int64
}

// NewFPS creates an FPS counter with a one-second measurement window.
func NewFPS() *FPS {
	return &FPS{interval: time.Second}
}

// Add records that one frame was produced.
func (f *FPS) Add() {
	nowTS := time.Now().UnixNano()

	f.frameCount++
	d := nowTS - f.beginTS
	if d >= int64(f.interval) {
		f.fps = uint32(f.frameCount * int64(time.Second) / d)
		f.frameCount = 0
		f.beginTS = nowTS
	}
}

// GetFPS returns the most recently measured rate.
func (f *FPS) GetFPS() uint32 {
	return f.fps
}

func (f *FPS) String() string {
	return fmt.Sprintf("%d", f.fps)
}
