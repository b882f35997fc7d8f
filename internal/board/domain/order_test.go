package domain

import (
	"reflect"
	"testing"
)

func TestCardOrder_InsertAtDoesNotAlias(t *testing.T) {
	base := make(CardOrder, 2, 10)
	base[0], base[1] = "a", "b"
	got := base.InsertAt(1, "x")
	if !reflect.DeepEqual(base, CardOrder{"a", "b"}) {
		t.Errorf("receiver modified: %v", base)
	}
	if !reflect.DeepEqual(got, CardOrder{"a", "x", "b"}) {
		t.Errorf("InsertAt = %v", got)
	}
}

func TestCardOrder_Without(t *testing.T) {
	o := CardOrder{"a", "b", "a"}
	got, ok := o.Without("a")
	if !ok || !reflect.DeepEqual(got, CardOrder{"b", "a"}) {
		t.Errorf("Without = %v, %v", got, ok)
	}
	if _, ok := o.Without("z"); ok {
		t.Error("Without(z) should report not found")
	}
	all, n := o.WithoutAll("a")
	if n != 2 || !reflect.DeepEqual(all, CardOrder{"b"}) {
		t.Errorf("WithoutAll = %v, %d", all, n)
	}
}

func TestClampIndex(t *testing.T) {
	testCases := []struct{ i, n, want int }{
		{-1, 3, 0}, {0, 3, 0}, {2, 3, 2}, {3, 3, 3}, {4, 3, 3}, {0, 0, 0}, {5, 0, 0},
	}
	for _, tc := range testCases {
		if got := ClampIndex(tc.i, tc.n); got != tc.want {
			t.Errorf("ClampIndex(%d, %d) = %d, want %d", tc.i, tc.n, got, tc.want)
		}
	}
}
