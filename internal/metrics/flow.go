package metrics

// Flow bundles the pacing and throughput counters for one running
// drcstream session: one video stream, one audio stream, each fed by
// the streamer/pacer as packets go out.
type Flow struct {
	VideoBitrate *Bitrate
	AudioBitrate *Bitrate
	VideoFPS     *FPS
	AudioFPS     *FPS
	VideoDrift   *PacingDrift
	AudioDrift   *PacingDrift
}

// NewFlow creates an empty Flow ready to receive StatVideo/StatAudio calls.
func NewFlow() *Flow {
	return &Flow{
		VideoBitrate: NewBitrate(),
		AudioBitrate: NewBitrate(),
		VideoFPS:     NewFPS(),
		AudioFPS:     NewFPS(),
		VideoDrift:   NewPacingDrift(),
		AudioDrift:   NewPacingDrift(),
	}
}

// StatVideo records one paced-out video frame of sizeBytes scheduled
// at scheduleUS (the frame's next_timestamp, in microseconds).
func (f *Flow) StatVideo(sizeBytes uint64, scheduleUS int64) {
	f.VideoBitrate.Add(sizeBytes)
	f.VideoFPS.Add()
	f.VideoDrift.Add(scheduleUS)
}

// StatAudio records one paced-out audio packet of sizeBytes scheduled
// at scheduleUS (the packet's next_time, in microseconds).
func (f *Flow) StatAudio(sizeBytes uint64, scheduleUS int64) {
	f.AudioBitrate.Add(sizeBytes)
	f.AudioFPS.Add()
	f.AudioDrift.Add(scheduleUS)
}
