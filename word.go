package greenrt

import (
	"fmt"
	"math"
)

// Kind identifies one of the primitive result types supported across the
// native call boundary. The result slot and capture fields are tagged
// unions over this set rather than raw byte regions.
//
// Boxed kinds (strings, records, collections) are an extension point: they
// will carry a heap pointer in the Word and require GC cooperation, and are
// not yet covered by the typed entry points.
type Kind uint8

const (
	KindI32 Kind = iota
	KindI64
	KindBool
	KindF32
	KindF64
)

// String returns the kind name used in diagnostics and metric labels.
func (k Kind) String() string {
	switch k {
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindBool:
		return "bool"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Size returns the number of bytes a value of this kind occupies in a
// capture record.
func (k Kind) Size() uint32 {
	switch k {
	case KindBool:
		return 1
	case KindI32, KindF32:
		return 4
	case KindI64, KindF64:
		return 8
	default:
		panic(fmt.Sprintf("greenrt: size of unknown kind %d", uint8(k)))
	}
}

func (k Kind) valid() bool {
	return k <= KindF64
}

// Word is a type-erased value slot sized to the largest supported
// primitive. A Word is meaningful only together with a Kind tag; the
// encode/decode helpers below are the sole code that interprets the bits.
type Word uint64

// I32Word encodes an int32 into a Word.
func I32Word(v int32) Word { return Word(uint32(v)) }

// I32 decodes the Word as an int32.
func (w Word) I32() int32 { return int32(uint32(w)) }

// I64Word encodes an int64 into a Word.
func I64Word(v int64) Word { return Word(uint64(v)) }

// I64 decodes the Word as an int64.
func (w Word) I64() int64 { return int64(w) }

// BoolWord encodes a bool into a Word.
func BoolWord(v bool) Word {
	if v {
		return 1
	}
	return 0
}

// Bool decodes the Word as a bool.
func (w Word) Bool() bool { return w != 0 }

// F32Word encodes a float32 into a Word.
func F32Word(v float32) Word { return Word(math.Float32bits(v)) }

// F32 decodes the Word as a float32.
func (w Word) F32() float32 { return math.Float32frombits(uint32(w)) }

// F64Word encodes a float64 into a Word.
func F64Word(v float64) Word { return Word(math.Float64bits(v)) }

// F64 decodes the Word as a float64.
func (w Word) F64() float64 { return math.Float64frombits(uint64(w)) }
