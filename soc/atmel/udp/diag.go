// Atmel AT91-family USB Device Port (UDP) driver
// https://github.com/nxtgo/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package udp

// diagState mirrors the debug fields the original firmware kept in its
// usb_state struct (nmb_int, last_isr, last_udp_isr, last_udp_csr0,
// last_udp_csr1), minus the busy-loop display render: rendering to a
// display is the external "diagnostic display" collaborator named in §2
// and is never implemented by this driver.
type diagState struct {
	interruptCount uint32
	lastTick       uint64
	lastISR        uint32
	lastCSR0       uint32
	lastCSR1       uint32
}

// Snapshot is a read-only copy of the driver's diagnostic state, taken from
// the same register reads the ISR already performs at entry for dispatch
// stability (§4.5) — capturing it costs no extra register traffic.
type Snapshot struct {
	InterruptCount uint32
	LastTickMs     uint64
	LastISR        uint32
	LastCSR0       uint32
	LastCSR1       uint32
}

// Snapshot returns the driver's current diagnostic counters.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		InterruptCount: c.diag.interruptCount,
		LastTickMs:     c.diag.lastTick,
		LastISR:        c.diag.lastISR,
		LastCSR0:       c.diag.lastCSR0,
		LastCSR1:       c.diag.lastCSR1,
	}
}
