package services

import "testing"

func TestNormalizeAnswer(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  X=2, x=3  ", "x=2, x=3"},
		{"1/2", "1/2"},
		{"X = 2", "x = 2"},
		{"근의   공식", "근의 공식"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := normalizeAnswer(tc.in); got != tc.want {
			t.Errorf("normalizeAnswer(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
