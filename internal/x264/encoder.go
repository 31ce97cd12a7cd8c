package x264

/*
#cgo pkg-config: x264
#include <stdlib.h>
#include <x264.h>

extern void goNaluCallback(x264_nal_t *nal, void *opaque);

static void drcstream_nalu_trampoline(x264_t *h, x264_nal_t *nal, void *opaque) {
	goNaluCallback(nal, opaque);
}

static void drcstream_set_nalu_process(x264_param_t *p) {
	p->nalu_process = drcstream_nalu_trampoline;
}
*/
import "C"

import (
	"runtime"
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/bugVanisher/drcstream/common/errs"
)

// Encoder wraps a single libx264 session configured for the GamePad's
// bitstream: constrained intra refresh, fixed QP 32, DRH row-chunk
// callback, no in-stream headers. It is not safe for concurrent use;
// callers serialize calls to Encode (the video streamer owns it on a
// dedicated goroutine).
type Encoder struct {
	handle *C.x264_t
	param  C.x264_param_t
	pic    C.x264_picture_t

	mu sync.Mutex
}

// New builds an Encoder for Width x Height I420 frames.
func New() (*Encoder, error) {
	e := &Encoder{}

	if C.x264_param_default_preset(&e.param, C.CString("medium"), nil) < 0 {
		return nil, errs.New(errs.CodeEncoder, "x264: unknown preset")
	}

	e.param.analyse.inter &^= C.X264_ANALYSE_PSUB16x16

	const enableIntraRefresh = true
	if enableIntraRefresh {
		e.param.i_keyint_min = 10
		e.param.i_keyint_max = 30
	} else {
		e.param.i_keyint_min = C.X264_KEYINT_MAX_INFINITE
		e.param.i_keyint_max = C.X264_KEYINT_MAX_INFINITE
	}
	e.param.i_scenecut_threshold = -1
	e.param.b_cabac = 1
	e.param.b_interlaced = 0
	e.param.i_bframe = 0
	e.param.i_bframe_pyramid = 0
	e.param.i_frame_reference = 1
	e.param.b_constrained_intra = 1
	e.param.b_intra_refresh = boolToCInt(enableIntraRefresh)
	e.param.analyse.i_weighted_pred = 0
	e.param.analyse.b_weighted_bipred = 0
	e.param.analyse.b_transform_8x8 = 0
	e.param.analyse.i_chroma_qp_offset = 0

	e.param.rc.i_rc_method = C.X264_RC_CQP
	e.param.rc.i_qp_constant = 32
	e.param.rc.i_qp_min = 32
	e.param.rc.i_qp_max = 32
	e.param.rc.f_ip_factor = 1.0

	e.param.b_repeat_headers = 0
	e.param.b_aud = 0

	// b_drh_mode is a field only present on the GamePad's patched
	// libx264 build: it makes the encoder emit one NAL per
	// macroblock row via nalu_process instead of one NAL per frame.
	e.param.b_drh_mode = 1

	e.param.i_threads = 1
	e.param.b_sliced_threads = 0
	e.param.i_slice_count = 1
	e.param.i_level_idc = 10

	e.param.i_csp = C.X264_CSP_I420
	e.param.i_width = Width
	e.param.i_height = Height

	C.drcstream_set_nalu_process(&e.param)

	e.handle = C.x264_encoder_open(&e.param)
	if e.handle == nil {
		return nil, errs.New(errs.CodeEncoder, "x264: failed to open encoder")
	}

	if C.x264_picture_alloc(&e.pic, C.X264_CSP_I420, Width, Height) < 0 {
		C.x264_encoder_close(e.handle)
		return nil, errs.New(errs.CodeEncoder, "x264: failed to allocate picture")
	}

	runtime.SetFinalizer(e, (*Encoder).Close)
	return e, nil
}

// Close releases the encoder and its picture buffer. Safe to call
// more than once.
func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handle != nil {
		C.x264_picture_clean(&e.pic)
		C.x264_encoder_close(e.handle)
		e.handle = nil
	}
	return nil
}

// nalCallback accumulates chunks for one call to Encode. It is handed
// to the C trampoline via a cgo.Handle so the callback can find its
// way back to Go state without touching global mutable state.
type nalCallback struct {
	chunks [ChunksPerFrame][]byte
	count  int
	isIDR  bool
}

//export goNaluCallback
func goNaluCallback(nal *C.x264_nal_t, opaque unsafe.Pointer) {
	const nalSEI = 6
	const nalPriorityDisposable = 0
	const nalSliceIDR = 5

	if int(nal.i_type) == nalSEI {
		return
	}

	h := *(*cgo.Handle)(opaque)
	ctx := h.Value().(*nalCallback)

	idx := ChunkIndex(int(nal.i_first_mb))
	if idx < 0 || idx >= ChunksPerFrame || idx != ctx.count {
		// Out-of-order or unexpected chunk; drop it rather than
		// corrupt an adjacent slot. The frame will fail the
		// completeness check in Encode.
		return
	}

	payload := C.GoBytes(unsafe.Pointer(nal.p_payload), nal.i_payload)
	ctx.chunks[idx] = payload
	ctx.count++

	if ctx.count == ChunksPerFrame {
		ctx.isIDR = nal.i_ref_idc != nalPriorityDisposable && int(nal.i_type) == nalSliceIDR
	}
}

// Encode encodes one I420 frame (Y plane then U then V, each
// tightly packed at native stride) and returns its ChunksPerFrame
// macroblock-row chunks in order, plus whether the last chunk landed
// on an IDR slice. resync requests the encoder force an IDR on this
// frame.
func (e *Encoder) Encode(y, u, v []byte, resync bool) ([ChunksPerFrame][]byte, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var zero [ChunksPerFrame][]byte
	if e.handle == nil {
		return zero, false, errs.New(errs.CodeEncoder, "x264: encoder is closed")
	}

	ySize := Width * Height
	cSize := (Width / 2) * (Height / 2)
	if len(y) < ySize || len(u) < cSize || len(v) < cSize {
		return zero, false, errs.New(errs.CodeEncoder, "x264: short plane data")
	}

	planes := [3][]byte{y[:ySize], u[:cSize], v[:cSize]}
	strides := [3]C.int{Width, Width / 2, Width / 2}
	for i, plane := range planes {
		e.pic.img.plane[i] = (*C.uint8_t)(unsafe.Pointer(&plane[0]))
		e.pic.img.i_stride[i] = strides[i]
	}

	if resync {
		e.pic.i_type = C.X264_TYPE_IDR
	} else {
		e.pic.i_type = C.X264_TYPE_AUTO
	}

	ctx := &nalCallback{}
	handle := cgo.NewHandle(ctx)
	defer handle.Delete()

	// The patched encoder threads the per-call opaque pointer set
	// here on param through to every nalu_process invocation for
	// this frame, mirroring the upstream binding's explicit
	// per-encode opaque argument.
	e.param.opaque = unsafe.Pointer(&handle)

	var nalCount C.int
	var pictureOut C.x264_picture_t
	frameSize := C.x264_encoder_encode(e.handle, nil, &nalCount, &e.pic, &pictureOut)
	_ = frameSize // DRH mode delivers payload via the callback, not the return array.

	if ctx.count != ChunksPerFrame {
		return zero, false, errs.New(errs.CodeEncoder, "x264: unexpected chunk count")
	}

	return ctx.chunks, ctx.isIDR, nil
}

func boolToCInt(b bool) C.int {
	if b {
		return 1
	}
	return 0
}
