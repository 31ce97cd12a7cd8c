// Package frame defines the planar YUV420 image view the video
// pipeline consumes, and the single-slot mailbox that hands frames
// from producers to the streaming worker.
package frame

// Image is a read-only view onto a planar YUV420 frame: three planes,
// each with its own stride so callers can pass views into larger
// buffers (e.g. a capture surface) without copying.
type Image struct {
	Width, Height int
	Y, U, V       []byte
	StrideY       int
	StrideU       int
	StrideV       int
}

// Frame is implemented by anything the Video Streamer can encode. It
// is the boundary the capture/decode path sits behind; this package
// only ever sees the image view, never how it was produced.
type Frame interface {
	AsImage() Image
}
