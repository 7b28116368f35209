package ustream

import "testing"

func TestUnionFrontMergesOverlapping(t *testing.T) {
	got := unionFront(interval{Lo: 512, Hi: 1024}, interval{Lo: 0, Hi: 256}, interval{Lo: 200, Hi: 600})
	want := interval{Lo: 0, Hi: 1024}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestUnionFrontStopsAtGap(t *testing.T) {
	got := unionFront(interval{Lo: 0, Hi: 256}, interval{Lo: 512, Hi: 768})
	want := interval{Lo: 0, Hi: 256}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestUnionFrontIgnoresEmptyIntervals(t *testing.T) {
	got := unionFront(interval{}, interval{Lo: 100, Hi: 200}, interval{})
	want := interval{Lo: 100, Hi: 200}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestUnionFrontAllEmpty(t *testing.T) {
	got := unionFront(interval{}, interval{}, interval{})
	if !got.empty() {
		t.Fatalf("expected empty result, got %+v", got)
	}
}

func TestUnionFrontAdjacentIntervalsMerge(t *testing.T) {
	got := unionFront(interval{Lo: 0, Hi: 256}, interval{Lo: 256, Hi: 512})
	want := interval{Lo: 0, Hi: 512}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
