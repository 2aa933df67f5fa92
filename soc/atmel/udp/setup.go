// Atmel AT91-family USB Device Port (UDP) driver
// https://github.com/nxtgo/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package udp

import (
	"fmt"
	"runtime"

	"github.com/nxtgo/tamago/bits"
)

// Standard request codes (p279, Table 9-4, USB2.0).
const (
	GET_STATUS        = 0x0
	CLEAR_FEATURE     = 0x1
	SET_FEATURE       = 0x3
	SET_ADDRESS       = 0x5
	GET_DESCRIPTOR    = 0x6
	SET_DESCRIPTOR    = 0x7
	GET_CONFIGURATION = 0x8
	SET_CONFIGURATION = 0x9
	GET_INTERFACE     = 0xa
	SET_INTERFACE     = 0xb
)

// bmRequestType bit fields (p248, Table 9-2, USB2.0).
const (
	reqDirDeviceToHost = 0x80
	reqRecipientMask   = 0x0f

	reqRecipientDevice    = 0x0
	reqRecipientInterface = 0x1
	reqRecipientEndpoint  = 0x2
)

// SetupData implements the 8-byte USB control-transfer header (p248,
// Table 9-2. Format of Setup Data, USB2.0).
type SetupData struct {
	RequestType uint8
	Request     uint8
	Value       uint16
	Index       uint16
	Length      uint16
}

// readSetup consumes exactly 8 bytes from FDR[0], in wire order, per I6.
func (c *Controller) readSetup() SetupData {
	b := [8]byte{}
	for i := range b {
		b[i] = c.fdrReadByte(EP_CONTROL)
	}

	return SetupData{
		RequestType: b[0],
		Request:     b[1],
		Value:       uint16(b[2]) | uint16(b[3])<<8,
		Index:       uint16(b[4]) | uint16(b[5])<<8,
		Length:      uint16(b[6]) | uint16(b[7])<<8,
	}
}

// handleSetup is invoked by the ISR when RXSETUP is observed on endpoint 0.
// It decodes the SETUP packet, reverses direction if needed, and dispatches
// the standard request, per §4.4.
func (c *Controller) handleSetup() {
	setup := c.readSetup()

	if setup.RequestType&reqDirDeviceToHost == reqDirDeviceToHost {
		c.csrSet(EP_CONTROL, 1<<DIR)
	}
	c.csrClear(EP_CONTROL, 1<<RXSETUP)

	if err := c.dispatch(setup); err != nil {
		c.stall()
		c.logf("setup error: %v", err)
	}
}

// dispatch implements the standard request table of §4.4.
func (c *Controller) dispatch(setup SetupData) error {
	switch setup.Request {
	case GET_STATUS:
		return c.doGetStatus(setup)
	case CLEAR_FEATURE, SET_FEATURE:
		c.sendZeroLengthPacket()
		return nil
	case SET_ADDRESS:
		return c.doSetAddress(setup)
	case GET_DESCRIPTOR:
		return c.doGetDescriptor(setup)
	case GET_CONFIGURATION:
		c.sendChunk(EP_CONTROL, []byte{c.currentConfig})
		return nil
	case SET_CONFIGURATION:
		return c.doSetConfiguration(setup)
	default:
		return fmt.Errorf("unsupported request code %#x", setup.Request)
	}
}

func (c *Controller) doGetStatus(setup SetupData) error {
	var status uint16

	reqType := uint32(setup.RequestType)
	switch bits.Get(&reqType, 0, reqRecipientMask) {
	case reqRecipientDevice:
		status = 0x0001 // self-powered, no remote wakeup
	case reqRecipientInterface:
		status = 0x0000
	case reqRecipientEndpoint:
		status = 0x0000 // halt status not tracked
	default:
		return fmt.Errorf("unsupported GET_STATUS recipient %#x", bits.Get(&reqType, 0, reqRecipientMask))
	}

	c.sendChunk(EP_CONTROL, []byte{byte(status), byte(status >> 8)})
	return nil
}

func (c *Controller) doSetAddress(setup SetupData) error {
	c.sendZeroLengthPacket()

	for c.csrRead(EP_CONTROL)&(1<<TXCOMP) == 0 {
		runtime.Gosched()
	}
	c.csrClear(EP_CONTROL, 1<<TXCOMP)

	c.bus.Write32(UDP_FADDR, FEN|uint32(setup.Value&FADD_MASK))

	if setup.Value == 0 {
		c.bus.Write32(UDP_GLB_STAT, 0)
	} else {
		c.bus.Write32(UDP_GLB_STAT, FADDEN)
	}

	return nil
}

func (c *Controller) doSetConfiguration(setup SetupData) error {
	c.sendZeroLengthPacket()

	c.currentConfig = uint8(setup.Value)

	if c.currentConfig != 0 {
		c.bus.Write32(UDP_GLB_STAT, CONFG|FADDEN)
	} else {
		c.bus.Write32(UDP_GLB_STAT, FADDEN)
	}

	return nil
}

// doGetDescriptor implements §4.4's GET_DESCRIPTOR handling, including the
// CONFIGURATION short-read zero-length-packet follow-up.
func (c *Controller) doGetDescriptor(setup SetupData) error {
	descType := uint8(setup.Value >> 8)
	index := uint8(setup.Value)

	desc, ok := c.catalogue.lookup(descType, index)
	if !ok {
		return fmt.Errorf("unsupported descriptor (type %#x, index %d)", descType, index)
	}

	n := len(desc.bytes)
	if int(setup.Length) < n {
		n = int(setup.Length)
	}

	c.sendChunk(EP_CONTROL, desc.bytes[:n])

	if int(setup.Length) > len(desc.bytes) && descType == CONFIGURATION {
		c.sendZeroLengthPacket()
	}

	return nil
}

// sendZeroLengthPacket sends a single zero-length IN packet on the control
// endpoint, used to ACK requests with no data phase.
func (c *Controller) sendZeroLengthPacket() {
	c.sendChunk(EP_CONTROL, nil)
}

// stall forces endpoint 0 to return a STALL handshake to the host.
func (c *Controller) stall() {
	c.csrSet(EP_CONTROL, 1<<FORCESTALL)
}
