// Atmel AT91-family USB Device Port (UDP) driver
// https://github.com/nxtgo/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package udp

import (
	"log"
	"runtime"
)

// numEndpoints is the number of UDP hardware endpoints this driver is
// aware of. The peripheral has four; only 0-2 are used, endpoint 3 is left
// disabled (§4.5 step 2).
const numEndpoints = 4

// Controller is the USB Device Port driver instance. There is exactly one
// per board, matching the peripheral's singleton nature (§9, Design Notes).
type Controller struct {
	// Bus is the register access backend. Must be set before Init.
	Bus Bus

	// Platform collects the board bring-up collaborators this driver
	// depends on but does not implement itself (§2, External
	// collaborators).
	Platform Platform

	// IRQ is the interrupt controller collaborator used to install and
	// (un)mask this driver's interrupt handler.
	IRQ InterruptController

	// Vector is the interrupt vector this peripheral raises on.
	Vector int

	// Priority is the interrupt priority this driver's handler is
	// installed at.
	Priority int

	// Clock is an optional tick source, read by Interrupt only to
	// timestamp the diagnostics reported by Snapshot, never for protocol
	// timing.
	Clock Clock

	bus Bus

	catalogue *catalogue
	ep        [numEndpoints]epState

	currentConfig uint8
	currentRxBank uint32
	isSuspended   bool

	diag diagState
}

// NewController constructs a Controller. Bus, Platform, and IRQ must be
// assigned before Init is called.
func NewController() *Controller {
	return &Controller{
		catalogue: newCatalogue(),
	}
}

// Init brings the driver up: it validates its collaborators, asks the
// platform to enable clocks and the pull-up, masks all UDP interrupts,
// resets the endpoints, installs the ISR, and unmasks this peripheral's
// vector at the interrupt controller. It does not change any CPU-wide
// interrupt mask.
// Until ENDBUSRES fires no other interrupt is enabled — the hardware
// guarantees ENDBUSRES is always signalled, per §4.6.
func (c *Controller) Init() {
	if c.Bus == nil || c.IRQ == nil {
		panic("udp: Controller requires Bus and IRQ to be set before Init")
	}

	c.bus = c.Bus

	if c.Platform.EnableClock != nil {
		c.Platform.EnableClock()
	}

	// mask all UDP interrupts
	c.bus.Write32(UDP_IDR, 0xffffffff)

	// reset all endpoints
	c.bus.Write32(UDP_RST_EP, 0xf)
	c.bus.Write32(UDP_RST_EP, 0)

	if c.Platform.ConfigurePullup != nil {
		c.Platform.ConfigurePullup(true)
	}

	c.IRQ.InstallHandler(c.Vector, c.Priority, true, c.Interrupt)
	c.IRQ.EnableIRQ(c.Vector)
}

// Shutdown tears the driver down: it disables the pull-up (so the host
// observes a disconnect) and masks this peripheral's interrupt.
func (c *Controller) Shutdown() {
	if c.Platform.ConfigurePullup != nil {
		c.Platform.ConfigurePullup(false)
	}

	c.IRQ.DisableIRQ(c.Vector)
}

// CanSend reports whether the bulk IN endpoint is free to accept a new
// transfer, per §4.6.
func (c *Controller) CanSend() bool {
	return !c.isSuspended && c.ep[EP_BULK_IN].dsLen == 0
}

// Send transmits data on the bulk IN endpoint, busy-waiting while the
// endpoint is suspended or already mid-transfer, per §4.6. A zero-length
// slice sends a single zero-length packet.
//
// A host that never acknowledges the transfer hangs this call forever;
// callers must not invoke Send if the device may be unattached and the
// caller cannot afford to block (§7).
func (c *Controller) Send(data []byte) {
	for c.isSuspended || c.ep[EP_BULK_IN].dsLen > 0 {
		runtime.Gosched()
	}

	c.sendChunk(EP_BULK_IN, data)
}

// HasData returns the number of bytes available in the foreground receive
// buffer, per §4.6.
func (c *Controller) HasData() int {
	return c.ep[EP_BULK_OUT].drUsed[1]
}

// Buffer returns the foreground-owned receive buffer. Only the first
// HasData() bytes of it are valid.
func (c *Controller) Buffer() []byte {
	return c.ep[EP_BULK_OUT].drBuf[1][:]
}

// Overloaded reports whether a receive overrun has occurred since the last
// FlushBuffer, per §4.6.
func (c *Controller) Overloaded() bool {
	return c.ep[EP_BULK_OUT].drOverrun
}

// FlushBuffer copies the ISR-owned receive buffer into the foreground
// buffer, with UDP interrupts masked so the copy is atomic against the ISR
// (I3), and clears the overrun flag (I4).
func (c *Controller) FlushBuffer() {
	c.IRQ.DisableIRQ(c.Vector)
	defer c.IRQ.EnableIRQ(c.Vector)

	ep := &c.ep[EP_BULK_OUT]

	copy(ep.drBuf[1][:], ep.drBuf[0][:ep.drUsed[0]])
	ep.drUsed[1] = ep.drUsed[0]
	ep.drUsed[0] = 0
	ep.drOverrun = false
}

func (c *Controller) logf(format string, args ...any) {
	log.Printf("udp: "+format, args...)
}
