package stream

import (
	"reflect"
	"testing"
)

func TestMapFilterTakeSkip(t *testing.T) {
	s := FromSlice([]int{1, 2, 3, 4, 5, 6, 7, 8})
	doubled := Map(s, func(v int) int { return v * 2 })
	even := doubled.Filter(func(v int) bool { return v%4 == 0 })
	limited := even.Skip(1).Take(2)

	got := limited.ToArray()
	want := []int{8, 12}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestReduce(t *testing.T) {
	s := FromSlice([]int{1, 2, 3, 4})
	sum := Reduce(s, 0, func(acc, v int) int { return acc + v })
	if sum != 10 {
		t.Fatalf("sum = %d, want 10", sum)
	}
}

func TestConcat(t *testing.T) {
	a := FromSlice([]int{1, 2})
	b := FromSlice([]int{3, 4})
	got := a.Concat(b).ToArray()
	want := []int{1, 2, 3, 4}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBranchIndependence(t *testing.T) {
	s := FromSlice([]int{1, 2, 3})
	left, right := s.Branch()

	leftSum := Reduce(left, 0, func(acc, v int) int { return acc + v })
	rightVals := right.ToArray()

	if leftSum != 6 {
		t.Fatalf("leftSum = %d, want 6", leftSum)
	}
	if !reflect.DeepEqual(rightVals, []int{1, 2, 3}) {
		t.Fatalf("rightVals = %v", rightVals)
	}
}

func TestForEachOrder(t *testing.T) {
	s := FromSlice([]string{"a", "b", "c"})
	var seen []string
	s.ForEach(func(v string) { seen = append(seen, v) })
	if !reflect.DeepEqual(seen, []string{"a", "b", "c"}) {
		t.Fatalf("seen = %v", seen)
	}
}
