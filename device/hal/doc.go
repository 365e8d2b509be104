// Package hal defines the hardware interfaces the pad firmware runs on.
//
// The pad core never touches registers directly. Everything below the
// decision engine is reached through the small interfaces declared here:
//
//   - [Flash]: one NOR flash sector holding the calibration log
//   - [Interrupts]: masking around flash erase and program
//   - [ADC]: raw force sensor conversions
//   - [Clock]: monotonic time since boot
//   - [Transport]: control requests in, input reports out
//
// Implementations live in subpackages: [github.com/ardnew/fsrpad/device/hal/sim]
// for tests and simulation, [github.com/ardnew/fsrpad/device/hal/fifo] for a
// named-pipe transport a host process can talk to, and
// [github.com/ardnew/fsrpad/device/hal/periph] for ADCs reachable through
// periph.io on Linux boards.
//
// # Zero-Allocation Design
//
// Implementations used on a microcontroller should avoid allocating in
// Task, SendReport and the ADC read path. Buffers passed in by the caller
// may be reused after the call returns.
//
// # Critical Sections
//
// [WithInterruptsDisabled] pairs Disable with a deferred Restore:
//
//	err := hal.WithInterruptsDisabled(irq, func() error {
//	    if err := flash.EraseSector(); err != nil {
//	        return err
//	    }
//	    return flash.ProgramPage(0, page)
//	})
package hal
