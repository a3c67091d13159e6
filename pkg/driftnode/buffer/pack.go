package buffer

import "unsafe"

// Aligned returns a zero-filled byte slice of length n whose backing
// array is 8-byte aligned, so payloads of every supported element width
// can be reinterpreted in place.
func Aligned(n int) []byte {
	if n == 0 {
		return []byte{}
	}
	words := make([]uint64, (n+7)/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(words)*8)[:n]
}

// PackRaw copies b into an aligned payload buffer.
func PackRaw(b []byte) []byte {
	out := Aligned(len(b))
	copy(out, b)
	return out
}

// PackUint8s copies s into an aligned payload buffer.
func PackUint8s(s []uint8) []byte {
	return PackRaw(s)
}

// PackInt32s copies s into an aligned payload buffer in native element
// layout.
func PackInt32s(s []int32) []byte {
	if len(s) == 0 {
		return []byte{}
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
	out := Aligned(len(src))
	copy(out, src)
	return out
}

// PackFloat32s copies s into an aligned payload buffer in native
// element layout.
func PackFloat32s(s []float32) []byte {
	if len(s) == 0 {
		return []byte{}
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
	out := Aligned(len(src))
	copy(out, src)
	return out
}

// PackUint64s copies s into an aligned payload buffer in native
// element layout.
func PackUint64s(s []uint64) []byte {
	if len(s) == 0 {
		return []byte{}
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	out := Aligned(len(src))
	copy(out, src)
	return out
}
