package hidapi

import (
	"errors"
	"testing"

	"github.com/sstallion/go-hid"

	"github.com/ardnew/fsrpad/pkg"
)

func TestInfoFrom(t *testing.T) {
	got := infoFrom(&hid.DeviceInfo{
		Path:         "1-1:1.0",
		VendorID:     0x16C0,
		ProductID:    0x27D9,
		SerialNbr:    "0001",
		MfrStr:       "http://pubby.games",
		ProductStr:   "FSR Pad",
		UsagePage:    0xFF00,
		Usage:        0xA0,
		InterfaceNbr: 0,
	})

	if got.Path != "1-1:1.0" || got.VendorID != 0x16C0 || got.ProductID != 0x27D9 {
		t.Errorf("ids = %+v", got)
	}
	if got.Manufacturer != "http://pubby.games" || got.Product != "FSR Pad" || got.Serial != "0001" {
		t.Errorf("strings = %+v", got)
	}
	if got.UsagePage != 0xFF00 || got.Usage != 0xA0 || got.Interface != 0 {
		t.Errorf("usage = %+v", got)
	}
}

func TestEnumerate_BeforeInit(t *testing.T) {
	if _, err := New().Enumerate(0, 0); !errors.Is(err, pkg.ErrNotConfigured) {
		t.Errorf("Enumerate() before Init error = %v, want ErrNotConfigured", err)
	}
}
