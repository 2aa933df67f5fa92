// Atmel AT91-family USB Device Port (UDP) driver
// https://github.com/nxtgo/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package udp

import "github.com/nxtgo/tamago/bits"

// Endpoint numbers used by this device.
const (
	EP_CONTROL  = 0
	EP_BULK_IN  = 1
	EP_BULK_OUT = 2
)

// rxBufferSize is the size of each of the two ping-pong receive buffers.
// The original firmware fixes this at 64 bytes, matching the bulk OUT
// endpoint's maximum packet size.
const rxBufferSize = 64

// epState is the per-endpoint mutable state shared between the ISR and the
// foreground API (§3, Driver state).
type epState struct {
	// ds: outbound "data to send" cursor. dsLen == 0 means idle.
	dsPtr []byte
	dsLen int

	// dr: inbound double buffer. Only meaningful for EP_BULK_OUT.
	drBuf     [2][rxBufferSize]byte
	drUsed    [2]int
	drOverrun bool
}

// maxPacketSize returns maxpkt(e) per §4.3: 8 for the control endpoint, 64
// for the two bulk endpoints.
func maxPacketSize(e int) int {
	if e == EP_CONTROL {
		return 8
	}
	return 64
}

// sendChunk programs the hardware for exactly one packet of at most
// maxPacketSize(e) bytes, per §4.3.
//
// I1: while ds_len[e] > 0 the FIFO holds or is between packets of the same
// transfer; callers must not start a new transfer on e while that holds.
func (c *Controller) sendChunk(e int, data []byte) {
	pkt := len(data)
	if max := maxPacketSize(e); pkt > max {
		pkt = max
	}

	for i := 0; i < pkt; i++ {
		c.fdrWriteByte(e, data[i])
	}

	c.ep[e].dsPtr = data[pkt:]
	c.ep[e].dsLen = len(data) - pkt

	c.csrSet(e, 1<<TXPKTRDY)
}

// drainFifo copies one received packet out of the hardware FIFO, per §4.3.
//
// For the bulk OUT endpoint, the destination buffer is chosen by
// occupancy: direct delivery to the foreground-owned buffer when it is
// free, otherwise the ISR-owned buffer, which is overwritten (sticky,
// last-write-wins) and flags an overrun if it was already occupied.
//
// For any other endpoint, the packet is discarded: both bank bits are
// cleared and nothing is copied.
func (c *Controller) drainFifo(e int) {
	if e != EP_BULK_OUT {
		c.csrClear(e, 1<<RX_DATA_BK0|1<<RX_DATA_BK1)
		return
	}

	csr := c.csrRead(e)
	total := int(bits.Get(&csr, RXBYTECNT_SHIFT, RXBYTECNT_MASK))

	var buf int
	if c.ep[e].drUsed[1] == 0 {
		buf = 1
	} else {
		if c.ep[e].drUsed[0] > 0 {
			c.ep[e].drOverrun = true
		}
		buf = 0
	}

	if total > rxBufferSize {
		total = rxBufferSize
	}

	for i := 0; i < total; i++ {
		c.ep[e].drBuf[buf][i] = c.fdrReadByte(e)
	}
	c.ep[e].drUsed[buf] = total

	c.csrClear(e, c.currentRxBank)

	if c.currentRxBank == 1<<RX_DATA_BK0 {
		c.currentRxBank = 1 << RX_DATA_BK1
	} else {
		c.currentRxBank = 1 << RX_DATA_BK0
	}
}
