package utils

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestToString(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"nil", nil, ""},
		{"string", "9092", "9092"},
		{"int", 9092, "9092"},
		{"int64", int64(19092), "19092"},
		{"uint16", uint16(443), "443"},
		{"integral float64", float64(9092), "9092"},
		{"fractional float64", 1.5, "1.5"},
		{"float32", float32(29092), "29092"},
		{"json number", json.Number("9093"), "9093"},
		{"bool", true, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToString(tt.in); got != tt.want {
				t.Errorf("ToString(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" a, b ,,c ")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitList = %v, want %v", got, want)
	}
	if got := SplitList(""); len(got) != 0 {
		t.Errorf("SplitList(\"\") = %v, want empty", got)
	}
}
