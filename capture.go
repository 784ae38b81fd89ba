package greenrt

import (
	"encoding/binary"
	"fmt"
)

// CaptureField describes one captured variable's slot in a capture record:
// its byte offset, width, and primitive kind.
type CaptureField struct {
	Offset uint32
	Size   uint32
	Kind   Kind
}

// CaptureDescriptor is the fixed layout of a capture record, computed by
// the code generator from the free-variable set of a spawn body. The same
// descriptor drives both the pack step at spawn time and the unpack step
// inside the generated closure, so the layout exists in exactly one place.
type CaptureDescriptor struct {
	Fields []CaptureField
	Size   uint32
}

// NewCaptureDescriptor builds a descriptor for the given field kinds in
// order. Each field is aligned to its own width.
func NewCaptureDescriptor(kinds ...Kind) CaptureDescriptor {
	fields := make([]CaptureField, len(kinds))
	var off uint32
	for i, k := range kinds {
		if !k.valid() {
			panic(fmt.Sprintf("greenrt: capture field %d has unknown kind %d", i, uint8(k)))
		}
		size := k.Size()
		if rem := off % size; rem != 0 {
			off += size - rem
		}
		fields[i] = CaptureField{Offset: off, Size: size, Kind: k}
		off += size
	}
	return CaptureDescriptor{Fields: fields, Size: off}
}

// Pack copies the captured values into a freshly allocated buffer laid out
// per the descriptor. values must carry one Word per field, already encoded
// for the field's kind; Pack panics on a length mismatch (a code-generation
// bug, not a runtime condition).
func (d CaptureDescriptor) Pack(values []Word) *CaptureBuffer {
	if len(values) != len(d.Fields) {
		panic(fmt.Sprintf("greenrt: capture pack: %d values for %d fields", len(values), len(d.Fields)))
	}
	b := &CaptureBuffer{desc: d, data: make([]byte, d.Size)}
	for i, f := range d.Fields {
		b.putWord(f, values[i])
	}
	return b
}

// CaptureBuffer is a packed capture record. It is allocated at spawn time,
// owned by the task until its closure returns, then released.
type CaptureBuffer struct {
	desc CaptureDescriptor
	data []byte
}

// Descriptor returns the layout this buffer was packed with.
func (b *CaptureBuffer) Descriptor() CaptureDescriptor { return b.desc }

// Field reads the value of field i back out of the buffer. The generated
// closure's first action is to unpack the variables it references.
func (b *CaptureBuffer) Field(i int) Word {
	f := b.desc.Fields[i]
	switch f.Size {
	case 1:
		return Word(b.data[f.Offset])
	case 4:
		return Word(binary.LittleEndian.Uint32(b.data[f.Offset:]))
	case 8:
		return Word(binary.LittleEndian.Uint64(b.data[f.Offset:]))
	default:
		panic(fmt.Sprintf("greenrt: capture field %d has unsupported size %d", i, f.Size))
	}
}

// Unpack reads every field back out in declaration order.
func (b *CaptureBuffer) Unpack() []Word {
	out := make([]Word, len(b.desc.Fields))
	for i := range b.desc.Fields {
		out[i] = b.Field(i)
	}
	return out
}

func (b *CaptureBuffer) putWord(f CaptureField, w Word) {
	switch f.Size {
	case 1:
		b.data[f.Offset] = byte(w)
	case 4:
		binary.LittleEndian.PutUint32(b.data[f.Offset:], uint32(w))
	case 8:
		binary.LittleEndian.PutUint64(b.data[f.Offset:], uint64(w))
	}
}
