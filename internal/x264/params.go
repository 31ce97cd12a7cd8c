// Package x264 configures and drives the GamePad's H.264 encoder: a
// constrained-intra, fixed-QP, DRH-mode libx264 build that emits one
// NAL unit per macroblock-row chunk via a per-unit callback instead of
// the usual end-of-frame NAL array. The encoder binary itself, and the
// algorithm it implements, are an external dependency; this package
// only owns the parameter set and the chunk bookkeeping around it.
package x264

// Width and Height are the GamePad's fixed frame dimensions. They are
// not configurable: the wire protocol, the chunk math below, and the
// GamePad's decoder all assume exactly this resolution.
const (
	Width  = 864
	Height = 480
)

// ChunksPerFrame is the number of macroblock-row chunks the encoder
// splits each frame into via its DRH callback.
const ChunksPerFrame = 5

// MbPerFrame is the total macroblock count for a Width x Height frame.
func MbPerFrame() int {
	return ((Width + 15) / 16) * ((Height + 15) / 16)
}

// MbPerChunk is the number of macroblocks in each of the
// ChunksPerFrame row chunks. It divides MbPerFrame evenly for the
// GamePad's fixed resolution.
func MbPerChunk() int {
	return MbPerFrame() / ChunksPerFrame
}

// ChunkIndex returns which of the ChunksPerFrame chunks a NAL unit
// starting at macroblock firstMb belongs to.
func ChunkIndex(firstMb int) int {
	return firstMb / MbPerChunk()
}
