package intern_test

import (
	"strings"
	"testing"

	"github.com/eak1mov/go-quadtiles/intern"
	"github.com/google/go-cmp/cmp"
)

func TestMake(t *testing.T) {
	a := intern.Make("abc")
	b := intern.Make(strings.Join([]string{"a", "b", "c"}, ""))
	if a != b {
		t.Errorf("Make returned different handles for equal strings")
	}
	if a == intern.Make("abd") {
		t.Errorf("Make returned equal handles for different strings")
	}
	if got := a.Value(); got != "abc" {
		t.Errorf("Value() = %q, want = \"abc\"", got)
	}
}

func TestSort(t *testing.T) {
	names := []intern.Name{intern.Make("b"), intern.Make(""), intern.Make("ab"), intern.Make("a")}
	intern.Sort(names)
	if diff := cmp.Diff([]string{"", "a", "ab", "b"}, intern.Strings(names)); diff != "" {
		t.Errorf("Sort mismatch (-want+got):\n%v", diff)
	}
}
