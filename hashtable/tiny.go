package hashtable

// Tiny slot width, ported from original_source/core/TinyHashTable.{h,cpp}.
const (
	tinyMask1 = uint8(1 << 7)
	tinyMask2 = tinyMask1 - 1
	// TinyMaxElements is the largest element count this tier can hold
	// (top bit of the slot reserved as the "more chain follows" flag).
	TinyMaxElements = uint32(tinyMask2) - 1
)

// Tiny is the 8-bit-slot hash table tier, used by families whose baby-step
// window never exceeds TinyMaxElements entries.
type Tiny struct {
	emptySlot uint8
	htable    []uint8
	olist     []uint8
	hsizeMask uint32
	bj        []uint64
	inserts   uint64
	conflicts uint64
}

// NewTiny allocates a Tiny table sized (by density) to hold elements entries.
func NewTiny(elements uint32) *Tiny {
	size := sizeForDensity(elements, 0.65)
	t := &Tiny{
		emptySlot: uint8(elements),
		htable:    make([]uint8, size),
		olist:     make([]uint8, elements+1),
		hsizeMask: size - 1,
		bj:        make([]uint64, elements+1),
	}
	t.Clear()
	return t
}

func (t *Tiny) Clear() {
	for i := range t.htable {
		t.htable[i] = t.emptySlot
	}
	t.bj[t.emptySlot] = NotFound
	t.inserts, t.conflicts = 0, 0
}

func (t *Tiny) Insert(bj uint64, j uint32) {
	t.inserts++
	t.bj[j] = bj
	slot := uint32(bj) & t.hsizeMask
	if t.htable[slot] == t.emptySlot {
		t.htable[slot] = uint8(j)
		return
	}
	t.olist[j] = t.htable[slot]
	t.htable[slot] = uint8(j) | tinyMask1
	t.conflicts++
}

func (t *Tiny) Lookup(bj uint64) uint32 {
	slot := uint32(bj) & t.hsizeMask
	elt := t.htable[slot]
	eltLow := elt & tinyMask2
	if t.bj[eltLow] == bj {
		return uint32(eltLow)
	}
	for elt != eltLow {
		elt = t.olist[elt&tinyMask2]
		eltLow = elt & tinyMask2
		if t.bj[eltLow] == bj {
			return uint32(eltLow)
		}
	}
	return NotFound32
}

func (t *Tiny) Inserts() uint64   { return t.inserts }
func (t *Tiny) Conflicts() uint64 { return t.conflicts }

// NotFound32 is the 32-bit sentinel returned by Lookup across all tiers.
const NotFound32 = ^uint32(0)
