package linux

import "testing"

func TestHIDRawIoctlNumbers(t *testing.T) {
	tests := []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"HIDIOCGFEATURE(5)", hidiocGFeature(5), 0xC0054807},
		{"HIDIOCSFEATURE(5)", hidiocSFeature(5), 0xC0054806},
		{"HIDIOCGFEATURE(64)", hidiocGFeature(64), 0xC0404807},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %#x, want %#x", tt.got, tt.want)
			}
		})
	}
}
