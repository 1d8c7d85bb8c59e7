package duotoneanim

import (
	"encoding/json"
	"slices"
)

// GroupKey identifies a group pairing. On is a positive on-group id, Off a
// negative off-group id, and zero on either side means none.
type GroupKey struct {
	On  int `json:"on"`
	Off int `json:"off"`
}

// Full reports whether both sides are set, which is the case for every key
// that owns queues.
func (k GroupKey) Full() bool { return k.On != 0 && k.Off != 0 }

// Own returns the side of k that matches polarity bit.
func (k GroupKey) Own(bit uint8) int {
	if bit == 1 {
		return k.On
	}
	return k.Off
}

// ownKey is the composite key of a pixel that only knows its own group.
func ownKey(id int) GroupKey {
	if id > 0 {
		return GroupKey{On: id}
	}
	return GroupKey{Off: id}
}

// GroupRecord is the per-pairing bookkeeping driven by the scheduler and the
// mutation engine.
type GroupRecord struct {
	Key               GroupKey  `json:"key"`
	BorderCount       float64   `json:"borderCount"`
	LatestPerimChange float64   `json:"latestPerimChange"`
	PrevPerimChange   float64   `json:"prevPerimChange"`
	HasPrev           bool      `json:"hasPrevPerimChange"`
	WeightBase        float64   `json:"weightBase"`
	LastAdded         []int     `json:"lastAdded"`
	LastRemoved       []int     `json:"lastRemoved"`
	AddQueue          *PixelSet `json:"addQueue"`
	RemoveQueue       *PixelSet `json:"removeQueue"`
	SampleRadius      int       `json:"sampleRadius"`
	PixelsToChange    int       `json:"pixelsToChange"`
}

func newGroupRecord(k GroupKey) *GroupRecord {
	return &GroupRecord{
		Key:          k,
		AddQueue:     NewPixelSet(),
		RemoveQueue:  NewPixelSet(),
		SampleRadius: 1,
	}
}

type queueKind int

const (
	addQueue queueKind = iota
	removeQueue
)

// queueFor is the queue a pixel of polarity bit waits in.
func queueFor(bit uint8) queueKind {
	if bit == 1 {
		return removeQueue
	}
	return addQueue
}

func (r *GroupRecord) queue(kind queueKind) *PixelSet {
	if kind == removeQueue {
		return r.RemoveQueue
	}
	return r.AddQueue
}

func (r *GroupRecord) clone() GroupRecord {
	c := *r
	c.LastAdded = slices.Clone(r.LastAdded)
	c.LastRemoved = slices.Clone(r.LastRemoved)
	c.AddQueue = r.AddQueue.Clone()
	c.RemoveQueue = r.RemoveQueue.Clone()
	return c
}

// groupTable keeps records in creation order so iteration never depends on
// map ordering.
type groupTable struct {
	byKey map[GroupKey]*GroupRecord
	order []*GroupRecord
}

func newGroupTable() *groupTable {
	return &groupTable{byKey: make(map[GroupKey]*GroupRecord)}
}

func (t *groupTable) get(k GroupKey) (*GroupRecord, bool) {
	r, ok := t.byKey[k]
	return r, ok
}

func (t *groupTable) ensure(k GroupKey) *GroupRecord {
	if r, ok := t.byKey[k]; ok {
		return r
	}
	r := newGroupRecord(k)
	t.byKey[k] = r
	t.order = append(t.order, r)
	return r
}

func (t *groupTable) insert(r *GroupRecord) bool {
	if _, ok := t.byKey[r.Key]; ok {
		return false
	}
	t.byKey[r.Key] = r
	t.order = append(t.order, r)
	return true
}

func (t *groupTable) len() int { return len(t.order) }

// move transfers p from one queue to another. With justDelete the pixel only
// leaves its old queue.
func (t *groupTable) move(p int, from, to GroupKey, fromKind, toKind queueKind, justDelete bool) {
	if r, ok := t.byKey[from]; ok {
		r.queue(fromKind).Remove(p)
	}
	if !justDelete {
		t.ensure(to).queue(toKind).Add(p)
	}
}

// PixelSet is a set of pixel indices supporting O(1) membership, removal and
// uniform random access. Removal does not preserve order.
type PixelSet struct {
	items []int
	index map[int]int
}

func NewPixelSet(pixels ...int) *PixelSet {
	s := &PixelSet{index: make(map[int]int, len(pixels))}
	for _, p := range pixels {
		s.Add(p)
	}
	return s
}

func (s *PixelSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

func (s *PixelSet) Has(p int) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[p]
	return ok
}

func (s *PixelSet) Add(p int) bool {
	if _, ok := s.index[p]; ok {
		return false
	}
	s.index[p] = len(s.items)
	s.items = append(s.items, p)
	return true
}

func (s *PixelSet) Remove(p int) bool {
	i, ok := s.index[p]
	if !ok {
		return false
	}
	last := len(s.items) - 1
	moved := s.items[last]
	s.items[i] = moved
	s.index[moved] = i
	s.items = s.items[:last]
	delete(s.index, p)
	return true
}

// At returns the i-th member in the set's current internal order.
func (s *PixelSet) At(i int) int { return s.items[i] }

func (s *PixelSet) Values() []int {
	if s == nil {
		return nil
	}
	return slices.Clone(s.items)
}

func (s *PixelSet) Clone() *PixelSet {
	if s == nil {
		return NewPixelSet()
	}
	return NewPixelSet(s.items...)
}

// Equal compares members and their order.
func (s *PixelSet) Equal(o *PixelSet) bool {
	return slices.Equal(s.Values(), o.Values())
}

func (s *PixelSet) MarshalJSON() ([]byte, error) {
	items := s.Values()
	if items == nil {
		items = []int{}
	}
	return json.Marshal(items)
}

func (s *PixelSet) UnmarshalJSON(data []byte) error {
	var items []int
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = PixelSet{index: make(map[int]int, len(items))}
	for _, p := range items {
		s.Add(p)
	}
	return nil
}

// seqSet is an insertion-ordered set whose removals keep the order of the
// remaining members.
type seqSet struct {
	items []int
	pos   map[int]int
}

func newSeqSet() *seqSet {
	return &seqSet{pos: make(map[int]int)}
}

func (s *seqSet) Has(p int) bool {
	_, ok := s.pos[p]
	return ok
}

func (s *seqSet) Add(p int) {
	if s.Has(p) {
		return
	}
	s.pos[p] = len(s.items)
	s.items = append(s.items, p)
}

func (s *seqSet) Remove(p int) { delete(s.pos, p) }

func (s *seqSet) Len() int { return len(s.pos) }

func (s *seqSet) Values() []int {
	out := make([]int, 0, len(s.pos))
	for i, p := range s.items {
		if j, ok := s.pos[p]; ok && j == i {
			out = append(out, p)
		}
	}
	return out
}
