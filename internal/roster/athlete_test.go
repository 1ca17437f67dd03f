package roster

import "testing"

func TestParseSide(t *testing.T) {
	tests := []struct {
		in     string
		want   Side
		wantOK bool
	}{
		{"Port", SidePort, true},
		{"port", SidePort, true},
		{"PORT", SidePort, true},
		{"  starboard  ", SideStarboard, true},
		{"Both", SideBoth, true},
		{"cox", SideCox, true},
		{"", "", false},
		{"left", "", false},
		{"portside", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseSide(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ParseSide(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseSide(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
