package fileindex

// File is a process-wide directory entry: a unique-id and the head of its
// segment list. Segments are kept in the scanner's native insertion order,
// decreasing by order-no; SegmentsAscending gives callers the commonly
// wanted increasing order without disturbing that representation.
type File struct {
	UniqueID uint32
	head     *Segment
	count    int

	Next *File
}

// insert places seg into the list at the first position where the next
// segment has a strictly smaller order-no, keeping the list in decreasing
// order-no order as the scanner discovers segments on flash.
func (f *File) insert(seg *Segment) {
	f.count++
	if f.head == nil || f.head.OrderNo < seg.OrderNo {
		seg.Next = f.head
		f.head = seg
		return
	}
	prev := f.head
	for prev.Next != nil && prev.Next.OrderNo >= seg.OrderNo {
		prev = prev.Next
	}
	seg.Next = prev.Next
	prev.Next = seg
}

// Segments returns the list head in the scanner's native decreasing
// order-no order; walk via Segment.Next.
func (f *File) Segments() *Segment { return f.head }

// SegmentCount reports how many segments are linked into f.
func (f *File) SegmentCount() int { return f.count }

// Segment looks up the segment with the given order-no.
func (f *File) Segment(orderNo uint16) (*Segment, Result) {
	for s := f.head; s != nil; s = s.Next {
		if s.OrderNo == orderNo {
			return s, ResultOK
		}
	}
	return nil, ResultNotFound
}

// SegmentsAscending returns a freshly built slice of f's segments ordered
// by increasing order-no: the native list reversed, so segments with equal
// order-no stay adjacent.
func (f *File) SegmentsAscending() []*Segment {
	out := make([]*Segment, 0, f.count)
	for s := f.head; s != nil; s = s.Next {
		out = append(out, s)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
