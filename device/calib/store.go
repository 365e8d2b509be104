// Package calib persists the pad's threshold vector in a wear-leveled log
// inside one NOR flash sector.
//
// The sector is an array of 4-byte slots. Saves append to the first erased
// slot; the active record is the slot just before it. When the sector is
// full the next save erases it and starts again at slot 0, so each byte of
// the sector is erased once per sectorSize/4 saves.
package calib

import (
	"bytes"
	"fmt"

	"github.com/ardnew/fsrpad/device/hal"
	"github.com/ardnew/fsrpad/pkg"
	"github.com/ardnew/fsrpad/pkg/report"
)

// SlotSize is the size of one record in the log.
const SlotSize = report.NumChannels

// Stats counts the flash operations a Store has issued.
type Stats struct {
	Saves    int
	Erases   int
	Programs int
}

// Store is the calibration log on one flash sector.
//
// A vector of four 0xFF bytes reads back as an erased slot, so saving it
// leaves the previous record active.
type Store struct {
	flash hal.Flash
	irq   hal.Interrupts

	sectorSize int
	pageSize   int

	page  []byte
	slot  [SlotSize]byte
	stats Stats
}

// New creates a store over flash. Flash erase and program run with
// interrupts masked through irq.
//
// The page size must be a power of two holding a whole number of slots,
// and the sector must hold a whole number of pages.
func New(flash hal.Flash, irq hal.Interrupts) (*Store, error) {
	sectorSize, pageSize := flash.SectorSize(), flash.PageSize()
	switch {
	case pageSize <= 0 || sectorSize <= 0:
		return nil, fmt.Errorf("%w: sector %d, page %d", pkg.ErrInvalidGeometry, sectorSize, pageSize)
	case pageSize&(pageSize-1) != 0:
		return nil, fmt.Errorf("%w: page size %d is not a power of two", pkg.ErrInvalidGeometry, pageSize)
	case pageSize%SlotSize != 0:
		return nil, fmt.Errorf("%w: page size %d is not a multiple of %d", pkg.ErrInvalidGeometry, pageSize, SlotSize)
	case sectorSize%pageSize != 0:
		return nil, fmt.Errorf("%w: sector size %d is not a multiple of page size %d",
			pkg.ErrInvalidGeometry, sectorSize, pageSize)
	}

	return &Store{
		flash:      flash,
		irq:        irq,
		sectorSize: sectorSize,
		pageSize:   pageSize,
		page:       make([]byte, pageSize),
	}, nil
}

// FindActiveSlot returns the offset of the first fully erased slot, or the
// sector size when every slot has been written.
func (s *Store) FindActiveSlot() (int, error) {
	erased := [SlotSize]byte{hal.ErasedByte, hal.ErasedByte, hal.ErasedByte, hal.ErasedByte}
	for offset := 0; offset < s.sectorSize; offset += SlotSize {
		if err := s.flash.ReadAt(s.slot[:], offset); err != nil {
			return 0, fmt.Errorf("read slot %d: %w", offset, err)
		}
		if bytes.Equal(s.slot[:], erased[:]) {
			return offset, nil
		}
	}
	return s.sectorSize, nil
}

// Load returns the most recently saved vector. An empty sector yields
// report.DefaultThreshold on every channel.
func (s *Store) Load() (report.ThresholdVector, error) {
	offset, err := s.FindActiveSlot()
	if err != nil {
		return report.ThresholdVector{}, err
	}
	if offset == 0 {
		pkg.LogDebug(pkg.ComponentStore, "no calibration stored, using defaults")
		return report.DefaultThresholds(), nil
	}

	var v report.ThresholdVector
	if err := s.flash.ReadAt(v[:], offset-SlotSize); err != nil {
		return report.ThresholdVector{}, fmt.Errorf("read slot %d: %w", offset-SlotSize, err)
	}
	pkg.LogDebug(pkg.ComponentStore, "calibration loaded", "slot", offset-SlotSize, "thresholds", v[:])
	return v, nil
}

// Save appends v to the log. When the sector is full the sector is erased
// first and v becomes slot 0.
//
// Callers save only vectors that differ from the stored one; the store does
// not compare.
func (s *Store) Save(v report.ThresholdVector) error {
	offset, err := s.FindActiveSlot()
	if err != nil {
		return err
	}
	offset %= s.sectorSize

	base := offset &^ (s.pageSize - 1)
	for i := range s.page {
		s.page[i] = hal.ErasedByte
	}
	copy(s.page[offset%s.pageSize:], v[:])

	err = hal.WithInterruptsDisabled(s.irq, func() error {
		if offset == 0 {
			if err := s.flash.EraseSector(); err != nil {
				return fmt.Errorf("erase sector: %w", err)
			}
			s.stats.Erases++
		}
		if err := s.flash.ProgramPage(base, s.page); err != nil {
			return fmt.Errorf("program page %d: %w", base, err)
		}
		s.stats.Programs++
		return nil
	})
	if err != nil {
		return err
	}

	s.stats.Saves++
	pkg.LogDebug(pkg.ComponentStore, "calibration saved",
		"slot", offset,
		"erased", offset == 0,
		"thresholds", v[:])
	return nil
}

// Slots returns the number of written slots in the sector.
func (s *Store) Slots() (int, error) {
	offset, err := s.FindActiveSlot()
	if err != nil {
		return 0, err
	}
	return offset / SlotSize, nil
}

// Capacity returns the number of slots in the sector.
func (s *Store) Capacity() int {
	return s.sectorSize / SlotSize
}

// Stats returns the operations issued by this store.
func (s *Store) Stats() Stats {
	return s.stats
}
