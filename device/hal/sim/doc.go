// Package sim provides software implementations of the pad hardware
// interfaces for tests and desktop simulation.
//
// [MemoryFlash] and [FileFlash] model a NOR sector: erase sets every byte
// to 0xFF and programming ANDs the new data into the old, so a test that
// forgets to erase sees the same corruption real flash would produce.
package sim
