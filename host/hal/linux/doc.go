// Package linux provides a host HAL for Linux using hidraw.
//
// Devices are discovered through sysfs (/sys/class/hidraw/), which links
// each node to its HID device and USB parent; feature reports are exchanged
// with the HIDIOCGFEATURE and HIDIOCSFEATURE ioctls on /dev/hidrawN. It is
// pure Go with no cgo dependencies.
//
// # Requirements
//
// The user running the tool needs read/write access to the hidraw node,
// which typically requires either:
//   - Running as root
//   - A udev rule granting access, e.g.
//     KERNEL=="hidraw*", ATTRS{idVendor}=="16c0", ATTRS{idProduct}=="27d9", MODE="0666"
//
// # Collections
//
// A node whose report descriptor holds several top-level application
// collections is listed once per collection, each entry carrying that
// collection's usage page and usage, so callers can filter on usage the
// same way they would with hidapi.
package linux
