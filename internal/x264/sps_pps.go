package x264

// SPS and PPS are the literal out-of-band parameter sets the GamePad
// expects for this encoder's fixed profile/level (profile High, level
// 1.0). They are exchanged during connection setup, outside this
// core's wire path — kept here only so diagnostic tooling (`drcstream
// sim --dump-h264`) can prepend them to a raw chunk dump for
// inspection with an external decoder.
var (
	SPS = []byte{0x67, 0x64, 0x00, 0x20, 0xAC, 0x2B, 0x40, 0x6C, 0x1E, 0xF3, 0x68}
	PPS = []byte{0x68, 0xEE, 0x06, 0x0C, 0xE8}
)

// AnnexBStartCode is the four-byte start code this core's diagnostic
// dump path prepends to each NAL unit it writes out, since a plain
// chunk dump (what Encode returns) has no framing of its own.
var AnnexBStartCode = []byte{0x00, 0x00, 0x00, 0x01}
