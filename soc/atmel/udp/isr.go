// Atmel AT91-family USB Device Port (UDP) driver
// https://github.com/nxtgo/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package udp

import "github.com/nxtgo/tamago/bits"

// Interrupt is the single interrupt entry point for this peripheral. It
// reads a snapshot of UDP_ISR and CSR[0], CSR[1] once at entry, for
// diagnostic stability and to bound races, then dispatches end-of-bus-reset,
// suspend, resume, and per-endpoint events in the fixed priority order of
// §4.5. The stall-acknowledge, suspend and resume steps do not end the
// invocation; end-of-bus-reset, SETUP, TXCOMP and received-data handling
// each return once done, so at most one of those is handled per invocation.
func (c *Controller) Interrupt() {
	isr := c.bus.Read32(UDP_ISR)
	csr0 := c.csrRead(0)
	csr1 := c.csrRead(1)

	c.diag.interruptCount++
	c.diag.lastISR = isr
	c.diag.lastCSR0 = csr0
	c.diag.lastCSR1 = csr1
	if c.Clock != nil {
		c.diag.lastTick = c.Clock.Milliseconds()
	}

	// 1. Stall sent, host acknowledged.
	if csr0&(1<<ISOERROR) != 0 {
		c.csrClear(0, 1<<FORCESTALL|1<<ISOERROR)
	}

	// 2. End of bus reset: mandatory reinitialization.
	if isr&(1<<ENDBUSRES) != 0 {
		c.handleEndOfBusReset()
		return
	}

	// 3. Suspend.
	if isr&(1<<RXSUSP) != 0 {
		c.bus.Write32(UDP_ICR, 1<<RXSUSP)
		c.isSuspended = true
	}

	// 4. Resume.
	if isr&(1<<RXRSM) != 0 {
		c.bus.Write32(UDP_ICR, 1<<RXRSM)
		c.isSuspended = false
	}

	// Find the lowest-numbered endpoint with a pending event.
	endpoint := -1
	for e := 0; e < numEndpoints; e++ {
		if isr&(1<<uint(e)) != 0 {
			endpoint = e
			break
		}
	}

	// 5. SETUP on endpoint 0.
	if endpoint == 0 {
		c.bus.Write32(UDP_ICR, 1<<EPINT0)

		if csr0&(1<<RXSETUP) != 0 {
			c.handleSetup()
			return
		}
	}

	if endpoint >= 0 && endpoint < numEndpoints {
		csr := c.csrRead(endpoint)

		// 6. Transmission acknowledged by the host.
		if csr&(1<<TXCOMP) != 0 {
			c.csrClear(endpoint, 1<<TXCOMP)

			if c.ep[endpoint].dsLen > 0 {
				c.sendChunk(endpoint, c.ep[endpoint].dsPtr)
			}

			return
		}

		// 7. Data available to read.
		if csr&(RXBYTECNT_MASK<<RXBYTECNT_SHIFT) != 0 {
			c.drainFifo(endpoint)
			return
		}
	}

	// 8. Nothing endpoint-specific: acknowledge residual interrupts.
	c.bus.Write32(UDP_ICR, 1<<WAKEUP)
	c.bus.Write32(UDP_ICR, 1<<SOFINT)
}

// handleEndOfBusReset implements §4.5 step 2: acknowledge ENDBUSRES,
// RXSUSP, RXRSM; reset all endpoints; reactivate the function at address 0;
// discard all per-endpoint driver state; unmask endpoint and
// suspend/resume interrupts; reprogram the three endpoints in use.
func (c *Controller) handleEndOfBusReset() {
	c.bus.Write32(UDP_ICR, 1<<ENDBUSRES)
	c.bus.Write32(UDP_ICR, 1<<RXSUSP)
	c.bus.Write32(UDP_ICR, 1<<RXRSM)

	c.bus.Write32(UDP_RST_EP, 0xf)
	c.bus.Write32(UDP_RST_EP, 0)

	c.bus.Write32(UDP_FADDR, FEN|0)

	c.currentConfig = 0
	c.currentRxBank = 1 << RX_DATA_BK0
	c.isSuspended = false

	for e := range c.ep {
		c.ep[e] = epState{}
	}

	c.bus.Write32(UDP_IDR, 0xffffffff)
	c.bus.Write32(UDP_IER, 1<<EPINT0|1<<EPINT1|1<<EPINT2|1<<RXSUSP|1<<RXRSM)

	c.bus.Write32(csrOffset(EP_CONTROL), epTypeCSR(EPTYPE_CTRL))
	c.bus.Write32(csrOffset(EP_BULK_IN), epTypeCSR(EPTYPE_BULK_IN))
	c.bus.Write32(csrOffset(EP_BULK_OUT), epTypeCSR(EPTYPE_BULK_OUT))
	c.bus.Write32(csrOffset(3), 0)
}

// epTypeCSR builds the CSR value that enables an endpoint and assigns it a
// transfer type, per the EPEDS/EPTYPE field layout of §4.1.
func epTypeCSR(epType uint32) uint32 {
	var v uint32
	bits.Set(&v, EPEDS)
	bits.SetN(&v, EPTYPE_SHIFT, int(EPTYPE_MASK), epType)
	return v
}
