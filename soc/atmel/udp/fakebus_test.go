// Atmel AT91-family USB Device Port (UDP) driver
// https://github.com/nxtgo/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package udp

// fakeBus is a RAM-backed Bus used to exercise the protocol logic above the
// register-access seam off-target. Ordinary registers are a flat map: a
// write is visible on the next read, which is enough to drive csrSet's and
// csrClear's spin-waits to completion. The FIFO data registers are modeled
// specially, as byte queues, since real FDR reads pop the next queued byte
// rather than returning a stable value.
type fakeBus struct {
	regs map[uint32]uint32
	rx   map[uint32][]byte // bytes waiting to be popped by fdrReadByte
	tx   map[uint32][]byte // bytes pushed by fdrWriteByte, in write order
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		regs: make(map[uint32]uint32),
		rx:   make(map[uint32][]byte),
		tx:   make(map[uint32][]byte),
	}
}

func isFDR(addr uint32) bool {
	return addr >= UDP_FDR0 && addr < UDP_FDR0+4*numEndpoints
}

func (b *fakeBus) Read32(addr uint32) uint32 {
	if isFDR(addr) {
		q := b.rx[addr]
		if len(q) == 0 {
			return 0
		}
		b.rx[addr] = q[1:]
		return uint32(q[0])
	}
	return b.regs[addr]
}

func (b *fakeBus) Write32(addr uint32, val uint32) {
	if isFDR(addr) {
		b.tx[addr] = append(b.tx[addr], byte(val))
		return
	}
	if addr == UDP_ICR {
		// UDP_ICR is write-only on real hardware: writing a 1 to a bit
		// clears the corresponding bit of UDP_ISR. Model that side
		// effect directly rather than tracking ICR as its own register,
		// since nothing ever reads ICR back.
		b.regs[UDP_ISR] &^= val
		return
	}
	b.regs[addr] = val
}

// queueRx appends bytes to endpoint e's receive FIFO, as hardware would on
// packet reception.
func (b *fakeBus) queueRx(e int, data []byte) {
	b.rx[fdrOffset(e)] = append(b.rx[fdrOffset(e)], data...)
}

// sent returns the bytes written to endpoint e's FIFO since the bus was
// created, i.e. everything sendChunk has transmitted on it.
func (b *fakeBus) sent(e int) []byte {
	return b.tx[fdrOffset(e)]
}

// pushSetup loads an 8-byte SETUP packet into endpoint 0's FIFO, in wire
// order, and raises RXSETUP and EPINT0 as the hardware would on receipt of
// a SETUP token.
func (b *fakeBus) pushSetup(bmRequestType, bRequest byte, wValue, wIndex, wLength uint16) {
	b.queueRx(EP_CONTROL, []byte{
		bmRequestType,
		bRequest,
		byte(wValue), byte(wValue >> 8),
		byte(wIndex), byte(wIndex >> 8),
		byte(wLength), byte(wLength >> 8),
	})

	b.regs[csrOffset(EP_CONTROL)] |= 1 << RXSETUP
	b.regs[UDP_ISR] |= 1 << EPINT0
}

// completeTx acknowledges each packet on endpoint e with TXCOMP, through
// Interrupt, until the endpoint's outbound transfer has been fully sent.
func completeTx(c *Controller, b *fakeBus, e int) {
	for c.ep[e].dsLen > 0 {
		b.regs[csrOffset(e)] |= 1 << TXCOMP
		b.regs[UDP_ISR] = 1 << uint(e)
		c.Interrupt()
	}
}

// newTestController returns a Controller wired to a fresh fakeBus, with its
// unexported bus field populated the way Init would, but without Init's
// Platform/IRQ side effects.
func newTestController() (*Controller, *fakeBus) {
	bus := newFakeBus()
	c := NewController()
	c.Bus = bus
	c.bus = bus
	return c, bus
}
