package ir

import (
	"testing"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		a, b     *Node
		expected int
	}{
		// Kind ranking: Null < Bool < Number < String < Sequence < Mapping
		{"Null < Bool", Null(), FromBool(false), -1},
		{"Bool < Number", FromBool(true), FromInt(1), -1},
		{"Number < String", FromInt(1), FromString("a"), -1},
		{"String < Sequence", FromString("a"), FromSlice(nil), -1},
		{"Sequence < Mapping", FromSlice(nil), FromKeyVals(nil), -1},

		// Bool comparison
		{"false < true", FromBool(false), FromBool(true), -1},
		{"true == true", FromBool(true), FromBool(true), 0},

		// Number comparison is numeric across representations
		{"Int == Float", FromInt(1), FromFloat(1.0), 0},
		{"Int < Int", FromInt(1), FromInt(2), -1},
		{"Float < Float", FromFloat(1.0), FromFloat(2.0), -1},
		{"Float < Int", FromFloat(1.5), FromInt(2), -1},
		{"StringNum < StringNum", &Node{Kind: NumberKind, Number: "1"}, &Node{Kind: NumberKind, Number: "2"}, -1},

		// String comparison
		{"String < String", FromString("a"), FromString("b"), -1},
		{"String == String", FromString("a"), FromString("a"), 0},

		// Sequence comparison
		{"Empty Sequence == Empty Sequence", FromSlice(nil), FromSlice(nil), 0},
		{"Short Sequence < Long Sequence", FromSlice([]*Node{FromInt(1)}), FromSlice([]*Node{FromInt(1), FromInt(2)}), -1},
		{"Sequence element comparison", FromSlice([]*Node{FromInt(1)}), FromSlice([]*Node{FromInt(2)}), -1},

		// Mapping comparison
		{"Empty Mapping == Empty Mapping", FromKeyVals(nil), FromKeyVals(nil), 0},
		{"Short Mapping < Long Mapping",
			FromKeyVals([]KeyVal{{Key: FromString("a"), Val: FromInt(1)}}),
			FromKeyVals([]KeyVal{{Key: FromString("a"), Val: FromInt(1)}, {Key: FromString("b"), Val: FromInt(2)}}),
			-1},
		{"Mapping key comparison",
			FromKeyVals([]KeyVal{{Key: FromString("a"), Val: FromInt(1)}}),
			FromKeyVals([]KeyVal{{Key: FromString("b"), Val: FromInt(1)}}),
			-1},
		{"Mapping value comparison",
			FromKeyVals([]KeyVal{{Key: FromString("a"), Val: FromInt(1)}}),
			FromKeyVals([]KeyVal{{Key: FromString("a"), Val: FromInt(2)}}),
			-1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.expected {
				t.Errorf("Compare() = %v, want %v", got, tt.expected)
			}
			// symmetry
			if got := Compare(tt.b, tt.a); got != -tt.expected {
				t.Errorf("Compare(b, a) = %v, want %v", got, -tt.expected)
			}
		})
	}
}

func TestEqualIgnoresAnchors(t *testing.T) {
	a := FromString("x").WithAnchor("left")
	b := FromString("x").WithAnchor("right")
	if !Equal(a, b) {
		t.Errorf("Equal() = false, want true")
	}
}
