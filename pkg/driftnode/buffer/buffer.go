// Package buffer provides typed, read-only views over payload memory
// owned by events.
//
// A View is a non-owning window: it carries an element type tag, the
// backing bytes, and an element count, but no independent lifetime. The
// owning event controls validity — once the event is released, every
// accessor on views derived from it returns (nil, false).
//
// Accessors perform checked reinterpretation: requesting a slice of a
// type that does not match the stored tag yields (nil, false) rather
// than misinterpreted memory.
package buffer

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// ElementType tags the primitive encoding of a payload.
type ElementType uint8

// Supported element encodings.
const (
	// Raw is an untyped byte payload. Element count equals byte count.
	Raw ElementType = iota
	Uint8
	Int32
	Float32
	Uint64
)

// String returns the wire name of the element type.
func (t ElementType) String() string {
	switch t {
	case Raw:
		return "raw"
	case Uint8:
		return "uint8"
	case Int32:
		return "int32"
	case Float32:
		return "float32"
	case Uint64:
		return "uint64"
	default:
		return fmt.Sprintf("elementtype(%d)", uint8(t))
	}
}

// ByteWidth returns the size in bytes of one element.
func (t ElementType) ByteWidth() int {
	switch t {
	case Raw, Uint8:
		return 1
	case Int32, Float32:
		return 4
	case Uint64:
		return 8
	default:
		return 0
	}
}

// Valid reports whether t is a known element type.
func (t ElementType) Valid() bool {
	return t.ByteWidth() != 0
}

// ParseElementType converts a wire name back to an ElementType.
func ParseElementType(s string) (ElementType, error) {
	switch s {
	case "raw":
		return Raw, nil
	case "uint8":
		return Uint8, nil
	case "int32":
		return Int32, nil
	case "float32":
		return Float32, nil
	case "uint64":
		return Uint64, nil
	default:
		return 0, fmt.Errorf("unknown element type %q", s)
	}
}

// View is a read-only typed window over memory owned by an event.
//
// Views are created by the event stream and share the event's backing
// buffer. They must not be accessed after the owning event is released;
// accessors detect release and return (nil, false).
type View struct {
	typ   ElementType
	data  []byte
	count int

	// alive is shared with the owning event. A nil alive means the view
	// is permanently valid (it owns a private copy of the data).
	alive *atomic.Bool
}

// NewView creates a view over data with the given element type.
// The alive flag ties the view's validity to its owning event; pass nil
// for a view that is valid forever.
//
// Returns an error when the byte length is not a multiple of the
// element width.
func NewView(typ ElementType, data []byte, alive *atomic.Bool) (*View, error) {
	w := typ.ByteWidth()
	if w == 0 {
		return nil, fmt.Errorf("invalid element type %d", uint8(typ))
	}
	if len(data)%w != 0 {
		return nil, fmt.Errorf("payload length %d is not a multiple of %s width %d", len(data), typ, w)
	}
	return &View{typ: typ, data: data, count: len(data) / w, alive: alive}, nil
}

// Type returns the element type tag.
func (v *View) Type() ElementType {
	return v.typ
}

// Len returns the element count. For Raw views this is the byte count.
func (v *View) Len() int {
	return v.count
}

// Valid reports whether the owning event is still live.
func (v *View) Valid() bool {
	return v != nil && (v.alive == nil || v.alive.Load())
}

// Bytes returns the payload as raw bytes.
// Returns (nil, false) unless the view is a live Raw view.
func (v *View) Bytes() ([]byte, bool) {
	if !v.Valid() || v.typ != Raw {
		return nil, false
	}
	return v.data, true
}

// Uint8s returns the payload as a uint8 slice.
// Returns (nil, false) unless the view is a live Uint8 view.
func (v *View) Uint8s() ([]uint8, bool) {
	if !v.Valid() || v.typ != Uint8 {
		return nil, false
	}
	return v.data, true
}

// Int32s returns the payload reinterpreted as int32 elements.
// Returns (nil, false) unless the view is a live, aligned Int32 view.
func (v *View) Int32s() ([]int32, bool) {
	if !v.reinterpretable(Int32) {
		return nil, false
	}
	if v.count == 0 {
		return []int32{}, true
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&v.data[0])), v.count), true
}

// Float32s returns the payload reinterpreted as float32 elements.
// Returns (nil, false) unless the view is a live, aligned Float32 view.
func (v *View) Float32s() ([]float32, bool) {
	if !v.reinterpretable(Float32) {
		return nil, false
	}
	if v.count == 0 {
		return []float32{}, true
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&v.data[0])), v.count), true
}

// Uint64s returns the payload reinterpreted as uint64 elements.
// Returns (nil, false) unless the view is a live, aligned Uint64 view.
func (v *View) Uint64s() ([]uint64, bool) {
	if !v.reinterpretable(Uint64) {
		return nil, false
	}
	if v.count == 0 {
		return []uint64{}, true
	}
	return unsafe.Slice((*uint64)(unsafe.Pointer(&v.data[0])), v.count), true
}

// reinterpretable checks validity, type match, and alignment of the
// backing bytes for the requested width.
func (v *View) reinterpretable(want ElementType) bool {
	if !v.Valid() || v.typ != want {
		return false
	}
	if v.count == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(&v.data[0]))%uintptr(want.ByteWidth()) == 0
}
