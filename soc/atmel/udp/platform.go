// Atmel AT91-family USB Device Port (UDP) driver
// https://github.com/nxtgo/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package udp

// Platform collects the board-specific bring-up hooks this driver depends
// on but does not implement itself, per §2's "platform bring-up" and "pin
// configuration" external collaborators. This generalizes the teacher's
// delegate-function idiom (e.g. `USB.EnablePLL func(index int) error` in
// soc/nxp/usb/bus.go) to the two bring-up steps this peripheral needs.
type Platform struct {
	// EnableClock enables the peripheral clock and any PLL the UDP block
	// requires. Left nil if clocking is already configured by board
	// init.
	EnableClock func()

	// ConfigurePullup drives the D+ pull-up GPIO, signalling device
	// presence to the host when enabled is true.
	ConfigurePullup func(enabled bool)
}

// InterruptController is the IRQ installer collaborator, generalizing the
// original firmware's `aic_install_isr(vector, priority, trigger,
// handler)` call and the teacher's arm/gic.EnableInterrupt/DisableInterrupt
// naming to this peripheral's AIC-class interrupt controller.
type InterruptController interface {
	// InstallHandler binds handler to vector at the given priority.
	// edgeTriggered selects edge- over level-triggered sensing.
	InstallHandler(vector int, priority int, edgeTriggered bool, handler func())

	// EnableIRQ unmasks a single vector.
	EnableIRQ(vector int)

	// DisableIRQ masks a single vector. Used by FlushBuffer's critical
	// section (I3) to make the cross-context buffer copy atomic against
	// the ISR.
	DisableIRQ(vector int)
}

// Clock is the millisecond tick source collaborator, used only for
// diagnostics (§6) and never for protocol timing — this driver never
// yields or schedules against it.
type Clock interface {
	Milliseconds() uint64
}
