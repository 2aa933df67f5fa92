//go:build tamago && arm

// Atmel AT91-family USB Device Port (UDP) driver
// https://github.com/nxtgo/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package udp

import "unsafe"

// MMIOBus is the production Bus implementation: direct unsafe-pointer
// access to a peripheral register window, generalized from
// internal/reg.Get/Set/Read/Write.
type MMIOBus struct {
	// Base is the peripheral's base register address.
	Base uint32
}

func (b MMIOBus) Read32(addr uint32) uint32 {
	reg := (*uint32)(unsafe.Pointer(uintptr(b.Base + addr)))
	return *reg
}

func (b MMIOBus) Write32(addr uint32, val uint32) {
	reg := (*uint32)(unsafe.Pointer(uintptr(b.Base + addr)))
	*reg = val
}
