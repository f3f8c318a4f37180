package service

import (
	"reflect"
	"testing"
)

func TestRing(t *testing.T) {
	r := NewRing[int](3)
	if _, ok := r.Back(0); ok {
		t.Fatal("empty ring returned a value")
	}
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}
	if r.Len() != 3 || !r.Full() {
		t.Fatalf("len = %d", r.Len())
	}
	if v, _ := r.Back(0); v != 5 {
		t.Errorf("Back(0) = %d", v)
	}
	if v, _ := r.Back(2); v != 3 {
		t.Errorf("Back(2) = %d", v)
	}
	if _, ok := r.Back(3); ok {
		t.Error("Back(3) must be out of range")
	}
	if got := r.Values(); !reflect.DeepEqual(got, []int{3, 4, 5}) {
		t.Errorf("Values = %v", got)
	}
	r.Reset()
	if r.Len() != 0 {
		t.Error("reset did not clear")
	}
}
