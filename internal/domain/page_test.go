package domain

import (
	"strconv"
	"testing"
)

func TestNewTaskPage_Bounds(t *testing.T) {
	data := []*Task{{ID: 1}, {ID: 2}}
	p := NewTaskPage(data, 17, 15, 2)

	if p.LastPage != 2 {
		t.Fatalf("expected last page 2, got %d", p.LastPage)
	}
	if p.From == nil || *p.From != 16 {
		t.Fatalf("expected from 16, got %v", p.From)
	}
	if p.To == nil || *p.To != 17 {
		t.Fatalf("expected to 17, got %v", p.To)
	}
}

func TestNewTaskPage_Empty(t *testing.T) {
	p := NewTaskPage(nil, 0, 15, 1)
	if p.Data == nil || len(p.Data) != 0 {
		t.Fatalf("expected empty non-nil data")
	}
	if p.LastPage != 1 || p.From != nil || p.To != nil {
		t.Fatalf("unexpected bounds: last=%d from=%v to=%v", p.LastPage, p.From, p.To)
	}
}

func TestBuildLinks_SmallRange(t *testing.T) {
	p := NewTaskPage([]*Task{{ID: 1}}, 31, 15, 1)
	p.BuildLinks(func(n int) string { return "/todos?page=" + strconv.Itoa(n) })

	// prev, 1, 2, 3, next
	if len(p.Links) != 5 {
		t.Fatalf("expected 5 links, got %d", len(p.Links))
	}
	if p.Links[0].URL != nil {
		t.Fatalf("previous must be disabled on the first page")
	}
	if !p.Links[1].Active || p.Links[1].Label != "1" {
		t.Fatalf("expected page 1 active, got %+v", p.Links[1])
	}
	if p.Links[4].URL == nil || *p.Links[4].URL != "/todos?page=2" {
		t.Fatalf("unexpected next link %+v", p.Links[4])
	}
}

func TestBuildLinks_CollapsesLongRanges(t *testing.T) {
	p := NewTaskPage([]*Task{{ID: 1}}, 15*40, 15, 20)
	p.BuildLinks(func(n int) string { return strconv.Itoa(n) })

	var labels []string
	for _, l := range p.Links {
		labels = append(labels, l.Label)
	}
	want := []string{labelPrevious, "1", "2", labelGap, "18", "19", "20", "21", "22", labelGap, "39", "40", labelNext}
	if len(labels) != len(want) {
		t.Fatalf("got %v; want %v", labels, want)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("got %v; want %v", labels, want)
		}
	}
}
