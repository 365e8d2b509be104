package linux

// =============================================================================
// System Paths
// =============================================================================

// SysfsHIDRawPath is the sysfs class directory listing hidraw nodes.
const SysfsHIDRawPath = "/sys/class/hidraw"

// DevPath is the directory holding hidraw device nodes.
const DevPath = "/dev"

// =============================================================================
// Report Limits
// =============================================================================

// MaxReportSize is the largest feature report the kernel transfers,
// report ID included (HID_MAX_BUFFER_SIZE).
const MaxReportSize = 4096

// =============================================================================
// HIDRAW ioctls
// =============================================================================

// ioctl direction bits (asm-generic/ioctl.h).
const (
	iocWrite = 1
	iocRead  = 2

	iocNRShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30
)

// hidraw ioctl type and numbers (linux/hidraw.h).
const (
	hidrawIOCType = 'H'

	hidiocSFeatureNR = 0x06
	hidiocGFeatureNR = 0x07
)

// ioc encodes an ioctl request number.
func ioc(dir, typ, nr, size uintptr) uintptr {
	return dir<<iocDirShift | typ<<iocTypeShift | nr<<iocNRShift | size<<iocSizeShift
}

// hidiocGFeature returns HIDIOCGFEATURE(length).
func hidiocGFeature(length int) uintptr {
	return ioc(iocWrite|iocRead, hidrawIOCType, hidiocGFeatureNR, uintptr(length))
}

// hidiocSFeature returns HIDIOCSFEATURE(length).
func hidiocSFeature(length int) uintptr {
	return ioc(iocWrite|iocRead, hidrawIOCType, hidiocSFeatureNR, uintptr(length))
}

// =============================================================================
// HID Constants
// =============================================================================

// BusUSB is the HID_ID bus type of USB devices.
const BusUSB = 0x0003

// Report descriptor item prefixes (tag and type, size bits masked).
const (
	itemUsagePage  = 0x04
	itemUsage      = 0x08
	itemCollection = 0xA0
	itemEndColl    = 0xC0
	itemLong       = 0xFE
)

// collectionApplication is the Collection item data of an application
// collection.
const collectionApplication = 0x01
