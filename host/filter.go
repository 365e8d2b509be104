package host

import (
	"github.com/ardnew/fsrpad/host/hal"
	"github.com/ardnew/fsrpad/pkg/config"
)

// Filter selects devices during enumeration. Zero fields match anything.
type Filter struct {
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	Usage        uint16
}

// PadFilter returns the filter matching the feature collection of an FSR
// pad.
func PadFilter() Filter {
	return Filter{
		VendorID:     config.DefaultVendorID,
		ProductID:    config.DefaultProductID,
		Manufacturer: config.DefaultManufacturer,
		Usage:        config.DefaultUsage,
	}
}

// FilterFrom builds a filter from normalized host configuration.
func FilterFrom(cfg config.HostConfig) Filter {
	return Filter{
		VendorID:     cfg.VendorID,
		ProductID:    cfg.ProductID,
		Manufacturer: cfg.Manufacturer,
		Usage:        cfg.Usage,
	}
}

// Match reports whether info passes the filter.
func (f Filter) Match(info hal.DeviceInfo) bool {
	if f.VendorID != 0 && info.VendorID != f.VendorID {
		return false
	}
	if f.ProductID != 0 && info.ProductID != f.ProductID {
		return false
	}
	if f.Manufacturer != "" && info.Manufacturer != f.Manufacturer {
		return false
	}
	if f.Usage != 0 && info.Usage != f.Usage {
		return false
	}
	return true
}
