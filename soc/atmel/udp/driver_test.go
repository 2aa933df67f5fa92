// Atmel AT91-family USB Device Port (UDP) driver
// https://github.com/nxtgo/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package udp

import "testing"

// fakeIRQ is a minimal InterruptController recording installs and mask
// state, for asserting Init/Shutdown/FlushBuffer's interactions with it.
type fakeIRQ struct {
	installed bool
	vector    int
	priority  int
	edge      bool
	handler   func()

	enabled bool
}

func (f *fakeIRQ) InstallHandler(vector, priority int, edgeTriggered bool, handler func()) {
	f.installed = true
	f.vector = vector
	f.priority = priority
	f.edge = edgeTriggered
	f.handler = handler
}

func (f *fakeIRQ) EnableIRQ(vector int)  { f.enabled = true }
func (f *fakeIRQ) DisableIRQ(vector int) { f.enabled = false }

func TestInitInstallsHandlerAndResetsEndpoints(t *testing.T) {
	c, bus := newTestController()
	irq := &fakeIRQ{}
	c.IRQ = irq
	c.Vector = 7
	c.Priority = 2

	var clocked, pulledUp bool
	c.Platform.EnableClock = func() { clocked = true }
	c.Platform.ConfigurePullup = func(enabled bool) { pulledUp = enabled }

	c.Init()

	if !clocked {
		t.Fatal("Init did not call Platform.EnableClock")
	}
	if !pulledUp {
		t.Fatal("Init did not enable the pull-up")
	}
	if !irq.installed || irq.vector != 7 || irq.priority != 2 || !irq.edge {
		t.Fatalf("Init installed handler with unexpected parameters: %+v", irq)
	}
	if !irq.enabled {
		t.Fatal("Init did not enable the interrupt vector")
	}
	if bus.regs[UDP_RST_EP] != 0 {
		t.Fatalf("UDP_RST_EP left non-zero after Init: %#x", bus.regs[UDP_RST_EP])
	}
}

func TestShutdownDisablesPullupAndIRQ(t *testing.T) {
	c, _ := newTestController()
	irq := &fakeIRQ{enabled: true}
	c.IRQ = irq
	c.Vector = 3

	var pulledUp = true
	c.Platform.ConfigurePullup = func(enabled bool) { pulledUp = enabled }

	c.Shutdown()

	if pulledUp {
		t.Fatal("Shutdown did not disable the pull-up")
	}
	if irq.enabled {
		t.Fatal("Shutdown did not disable the interrupt vector")
	}
}

func TestFlushBufferMovesDataAndClearsOverrun(t *testing.T) {
	c, _ := newTestController()
	irq := &fakeIRQ{enabled: true}
	c.IRQ = irq
	c.Vector = 1

	c.ep[EP_BULK_OUT].drBuf[0][0] = 0xaa
	c.ep[EP_BULK_OUT].drUsed[0] = 1
	c.ep[EP_BULK_OUT].drOverrun = true

	c.FlushBuffer()

	if c.HasData() != 1 {
		t.Fatalf("HasData() = %d, want 1", c.HasData())
	}
	if c.Buffer()[0] != 0xaa {
		t.Fatalf("Buffer()[0] = %#x, want 0xaa", c.Buffer()[0])
	}
	if c.Overloaded() {
		t.Fatal("Overloaded() still true after FlushBuffer")
	}
	if c.ep[EP_BULK_OUT].drUsed[0] != 0 {
		t.Fatal("FlushBuffer did not clear the ISR-owned buffer's occupancy")
	}
	if irq.enabled != true {
		t.Fatal("FlushBuffer left the interrupt vector disabled")
	}
}

func TestCanSendReflectsSuspendAndInFlightTransfer(t *testing.T) {
	c, _ := newTestController()

	if !c.CanSend() {
		t.Fatal("CanSend() false on a fresh controller")
	}

	c.isSuspended = true
	if c.CanSend() {
		t.Fatal("CanSend() true while suspended")
	}
	c.isSuspended = false

	c.ep[EP_BULK_IN].dsLen = 10
	if c.CanSend() {
		t.Fatal("CanSend() true mid-transfer")
	}
}
