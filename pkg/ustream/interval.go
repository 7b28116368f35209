package ustream

// interval is a half-open byte range [Lo, Hi).
type interval struct {
	Lo, Hi uint32
}

func (iv interval) empty() bool { return iv.Hi <= iv.Lo }

// unionFront computes the union of up to three intervals, sorted by low
// bound with a 3-element bubble sort and then extended across any later
// interval whose low bound is <= the running high bound. Only the
// contiguous run starting at the smallest low bound is returned; a gap
// stops the extension.
func unionFront(ivs ...interval) interval {
	list := make([]interval, 0, len(ivs))
	for _, iv := range ivs {
		if !iv.empty() {
			list = append(list, iv)
		}
	}
	if len(list) == 0 {
		return interval{}
	}

	for i := 0; i < len(list); i++ {
		for j := 0; j < len(list)-1-i; j++ {
			if list[j+1].Lo < list[j].Lo {
				list[j], list[j+1] = list[j+1], list[j]
			}
		}
	}

	result := list[0]
	for _, iv := range list[1:] {
		if iv.Lo <= result.Hi {
			if iv.Hi > result.Hi {
				result.Hi = iv.Hi
			}
		} else {
			break
		}
	}
	return result
}
