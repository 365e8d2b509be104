//go:build linux

package linux

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ardnew/fsrpad/host/hal"
)

// =============================================================================
// hidraw Node Information
// =============================================================================

// hidrawInfo holds what sysfs tells about one hidraw node.
type hidrawInfo struct {
	name         string // Node name, e.g. "hidraw3"
	bus          uint16 // HID_ID bus type
	vendorID     uint16
	productID    uint16
	hidName      string // HID_NAME
	serial       string // HID_UNIQ
	manufacturer string // USB device "manufacturer" attribute
	product      string // USB device "product" attribute
	iface        int    // USB bInterfaceNumber, -1 if not USB
	usages       []usage
}

// usage is a top-level collection's usage page and usage.
type usage struct {
	page uint16
	id   uint16
}

// =============================================================================
// Sysfs Parsing
// =============================================================================

// scanHIDRaw lists the hidraw nodes under root (normally SysfsHIDRawPath).
func scanHIDRaw(root string) ([]hidrawInfo, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var nodes []hidrawInfo
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "hidraw") {
			continue
		}
		info, err := parseHIDRaw(root, name)
		if err != nil {
			continue // Skip nodes we can't parse
		}
		nodes = append(nodes, info)
	}
	return nodes, nil
}

// parseHIDRaw reads one node. The node's "device" link resolves to the HID
// device directory, whose parent is the USB interface and grandparent the
// USB device.
func parseHIDRaw(root, name string) (hidrawInfo, error) {
	info := hidrawInfo{name: name, iface: -1}

	hidDir, err := filepath.EvalSymlinks(filepath.Join(root, name, "device"))
	if err != nil {
		return info, err
	}

	uevent, err := readUEvent(filepath.Join(hidDir, "uevent"))
	if err != nil {
		return info, err
	}
	bus, vid, pid, ok := parseHIDID(uevent["HID_ID"])
	if !ok {
		return info, os.ErrInvalid
	}
	info.bus, info.vendorID, info.productID = bus, vid, pid
	info.hidName = uevent["HID_NAME"]
	info.serial = uevent["HID_UNIQ"]

	if desc, err := os.ReadFile(filepath.Join(hidDir, "report_descriptor")); err == nil {
		info.usages = topLevelUsages(desc)
	}

	if bus == BusUSB {
		ifaceDir := filepath.Dir(hidDir)
		if n, err := readSysfsHexUint8(filepath.Join(ifaceDir, "bInterfaceNumber")); err == nil {
			info.iface = int(n)
		}
		usbDir := filepath.Dir(ifaceDir)
		info.manufacturer, _ = readSysfsString(filepath.Join(usbDir, "manufacturer"))
		info.product, _ = readSysfsString(filepath.Join(usbDir, "product"))
		if info.serial == "" {
			info.serial, _ = readSysfsString(filepath.Join(usbDir, "serial"))
		}
	}
	if info.product == "" {
		info.product = info.hidName
	}
	return info, nil
}

// readUEvent parses a KEY=VALUE uevent file.
func readUEvent(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	kv := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		k, v, ok := strings.Cut(strings.TrimSpace(line), "=")
		if ok {
			kv[k] = v
		}
	}
	return kv, nil
}

// parseHIDID parses "BBBB:VVVVVVVV:PPPPPPPP" (hex fields).
func parseHIDID(s string) (bus, vid, pid uint16, ok bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	var vals [3]uint16
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 16, 32)
		if err != nil || v > 0xFFFF {
			return 0, 0, 0, false
		}
		vals[i] = uint16(v)
	}
	return vals[0], vals[1], vals[2], true
}

// topLevelUsages returns the usage page and usage of every top-level
// application collection in a report descriptor.
func topLevelUsages(desc []byte) []usage {
	var (
		result []usage
		page   uint16
		id     uint16
		depth  int
	)
	for i := 0; i < len(desc); {
		prefix := desc[i]
		if prefix == itemLong {
			if i+1 >= len(desc) {
				break
			}
			i += 3 + int(desc[i+1])
			continue
		}

		size := int(prefix & 0x03)
		if size == 3 {
			size = 4
		}
		if i+1+size > len(desc) {
			break
		}
		data := itemData(desc[i+1 : i+1+size])

		switch prefix & 0xFC {
		case itemUsagePage:
			page = uint16(data)
		case itemUsage:
			if depth == 0 {
				// A 4-byte usage carries its own page in the high half.
				if size == 4 {
					page = uint16(data >> 16)
				}
				id = uint16(data)
			}
		case itemCollection:
			if depth == 0 && data == collectionApplication {
				result = append(result, usage{page: page, id: id})
			}
			depth++
		case itemEndColl:
			if depth > 0 {
				depth--
			}
		}
		i += 1 + size
	}
	return result
}

// itemData decodes little-endian item data.
func itemData(b []byte) uint32 {
	var v uint32
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint32(b[i])
	}
	return v
}

// deviceInfos expands a node into one hal.DeviceInfo per top-level
// collection, as hidapi does on Linux.
func (n *hidrawInfo) deviceInfos(devRoot string) []hal.DeviceInfo {
	base := hal.DeviceInfo{
		Path:         filepath.Join(devRoot, n.name),
		VendorID:     n.vendorID,
		ProductID:    n.productID,
		Manufacturer: n.manufacturer,
		Product:      n.product,
		Serial:       n.serial,
		Interface:    n.iface,
	}
	if len(n.usages) == 0 {
		return []hal.DeviceInfo{base}
	}
	infos := make([]hal.DeviceInfo, 0, len(n.usages))
	for _, u := range n.usages {
		info := base
		info.UsagePage = u.page
		info.Usage = u.id
		infos = append(infos, info)
	}
	return infos
}

// =============================================================================
// Sysfs Read Helpers
// =============================================================================

// readSysfsString reads a string from a sysfs attribute file.
func readSysfsString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// readSysfsHexUint8 reads a hexadecimal uint8 from a sysfs attribute file.
func readSysfsHexUint8(path string) (uint8, error) {
	s, err := readSysfsString(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}
