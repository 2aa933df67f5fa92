// Atmel AT91-family USB Device Port (UDP) driver
// https://github.com/nxtgo/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package udp implements a device-side driver for the Atmel AT91-family USB
// Device Port (UDP) peripheral, as found on the AT91SAM7S microcontroller
// used by the LEGO Mindstorms NXT.
//
// This package is only meant to be used with `GOOS=tamago GOARCH=arm` as
// supported by the TamaGo framework for bare metal Go on ARM SoCs, see
// https://github.com/usbarmory/tamago.
package udp

import "runtime"

// UDP register offsets, relative to the Bus implementation's base address
// (MMIOBus.Base in production).
//
// p478, 34.7 USB Device Port (UDP) User Interface, AT91SAM7S Series
// Datasheet.
const (
	UDP_FRM_NUM  = 0x00
	UDP_GLB_STAT = 0x04
	UDP_FADDR    = 0x08
	UDP_IER      = 0x10
	UDP_IDR      = 0x14
	UDP_IMR      = 0x18
	UDP_ISR      = 0x1c
	UDP_ICR      = 0x20
	UDP_RST_EP   = 0x28
	UDP_CSR0     = 0x30
	UDP_FDR0     = 0x50
	UDP_TXVC     = 0x74
)

// csrOffset returns the UDP_CSR register offset for endpoint e.
func csrOffset(e int) uint32 {
	return UDP_CSR0 + uint32(4*e)
}

// fdrOffset returns the UDP_FDR register offset for endpoint e.
func fdrOffset(e int) uint32 {
	return UDP_FDR0 + uint32(4*e)
}

// UDP_CSR bits (p483, 34.7.3, AT91SAM7S Series Datasheet).
const (
	TXCOMP          = 0
	RX_DATA_BK0     = 1
	RXSETUP         = 2
	STALLSENT       = 3
	ISOERROR        = 3 // aliases STALLSENT, context dependent
	TXPKTRDY        = 4
	FORCESTALL      = 5
	RX_DATA_BK1     = 6
	DIR             = 7
	EPTYPE_SHIFT    = 8
	EPTYPE_MASK     = 0x7
	DTGLE           = 11
	EPEDS           = 15
	RXBYTECNT_SHIFT = 16
	RXBYTECNT_MASK  = 0x7ff
)

// Endpoint transfer types, written into UDP_CSR[EPTYPE_SHIFT:EPTYPE_MASK].
const (
	EPTYPE_CTRL     = 0x0
	EPTYPE_ISO_OUT  = 0x1
	EPTYPE_BULK_OUT = 0x2
	EPTYPE_INT_OUT  = 0x3
	EPTYPE_ISO_IN   = 0x5
	EPTYPE_BULK_IN  = 0x6
	EPTYPE_INT_IN   = 0x7
)

// UDP_ISR / UDP_IER / UDP_IDR / UDP_ICR bits (p481, 34.7.2, AT91SAM7S
// Series Datasheet).
const (
	EPINT0    = 0
	EPINT1    = 1
	EPINT2    = 2
	EPINT3    = 3
	RXSUSP    = 8
	RXRSM     = 9
	EXTRSM    = 10
	SOFINT    = 11
	ENDBUSRES = 12
	WAKEUP    = 13
)

// UDP_FADDR bits.
const (
	FADD_MASK = 0xff
	FEN       = 1 << 8
)

// UDP_GLB_STAT bits.
const (
	FADDEN = 1 << 0
	CONFG  = 1 << 1
)

// Bus is the raw 32-bit register access abstraction the UDP driver is built
// on. Production code is backed by an unsafe-pointer implementation over
// real MMIO; tests substitute a RAM-backed fake so that the protocol logic
// above this seam (SETUP decode, descriptor lookup, endpoint bookkeeping,
// ISR dispatch) can run host-side.
type Bus interface {
	Read32(addr uint32) uint32
	Write32(addr uint32, val uint32)
}

// csrSet ORs mask into UDP_CSR[e] and spins until every bit of mask reads
// back as set.
//
// This spin-wait is a hardware contract (p484, 34.7.3, AT91SAM7S Series
// Datasheet: "the content of the register ... is subject to
// synchronization delays"), not an optimization, and must not be replaced
// with a bare write.
func (c *Controller) csrSet(e int, mask uint32) {
	addr := csrOffset(e)

	c.bus.Write32(addr, c.bus.Read32(addr)|mask)

	for c.bus.Read32(addr)&mask != mask {
		runtime.Gosched()
	}
}

// csrClear clears the bits of mask in UDP_CSR[e] and spins until every bit
// of mask reads back as clear.
//
// The read-modify-write writes every bit outside mask back with the value
// just read, so only the bits of mask are driven to 0.
func (c *Controller) csrClear(e int, mask uint32) {
	addr := csrOffset(e)

	c.bus.Write32(addr, c.bus.Read32(addr)&^mask)

	for c.bus.Read32(addr)&mask != 0 {
		runtime.Gosched()
	}
}

// csrRead returns the raw value of UDP_CSR[e].
func (c *Controller) csrRead(e int) uint32 {
	return c.bus.Read32(csrOffset(e))
}

// fdrReadByte reads one byte from the FIFO data register of endpoint e.
func (c *Controller) fdrReadByte(e int) byte {
	return byte(c.bus.Read32(fdrOffset(e)))
}

// fdrWriteByte writes one byte to the FIFO data register of endpoint e.
func (c *Controller) fdrWriteByte(e int, b byte) {
	c.bus.Write32(fdrOffset(e), uint32(b))
}
