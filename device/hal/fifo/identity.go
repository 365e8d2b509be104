package fifo

import (
	"bytes"
	"fmt"

	"github.com/ardnew/fsrpad/device/hal"
)

// FormatIdentity renders id as the identity file: one key=value per line,
// numeric fields as four hex digits.
func FormatIdentity(id hal.Identity) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "vendor_id=%04x\n", id.VendorID)
	fmt.Fprintf(&b, "product_id=%04x\n", id.ProductID)
	fmt.Fprintf(&b, "manufacturer=%s\n", id.Manufacturer)
	fmt.Fprintf(&b, "product=%s\n", id.Product)
	fmt.Fprintf(&b, "serial=%s\n", id.Serial)
	fmt.Fprintf(&b, "usage_page=%04x\n", id.UsagePage)
	fmt.Fprintf(&b, "usage=%04x\n", id.Usage)
	return b.Bytes()
}
