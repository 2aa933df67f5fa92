// Atmel AT91-family USB Device Port (UDP) driver
// https://github.com/nxtgo/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package udp

// Standard USB descriptor types (p279, Table 9-5, USB2.0).
const (
	DEVICE        = 1
	CONFIGURATION = 2
	STRING        = 3
	INTERFACE     = 4
	ENDPOINT      = 5
)

// Standard USB descriptor sizes, in bytes.
const (
	DEVICE_LENGTH        = 18
	CONFIGURATION_LENGTH = 9
	INTERFACE_LENGTH     = 9
	ENDPOINT_LENGTH      = 7
)

// Device identity, fixed per §6 of the wire surface.
const (
	idVendor  = 0x0694 // LEGO
	idProduct = 0xff00
	bcdUSB    = 0x0200
	langID    = 0x0809 // English (UK)
)

// descriptor holds a single (type, index) catalogue entry: a pointer to an
// immutable packed byte blob and its length, as called for by the Design
// Notes' "single packed byte array ... served by pointer/length" guidance.
type descriptor struct {
	bytes []byte
}

// catalogue is the Descriptor Catalogue: the full set of descriptors this
// device answers GET_DESCRIPTOR with. Built once, at NewController, and
// never mutated afterward.
type catalogue struct {
	device  descriptor
	config  descriptor
	langIDs descriptor
	strings []descriptor
}

// deviceDescriptorBytes packs the 18-byte Standard Device Descriptor
// (p290, Table 9-8, USB2.0).
func deviceDescriptorBytes() []byte {
	return []byte{
		DEVICE_LENGTH, DEVICE, // bLength, bDescriptorType
		byte(bcdUSB & 0xff), byte(bcdUSB >> 8), // bcdUSB
		2,    // bDeviceClass
		0,    // bDeviceSubClass
		0,    // bDeviceProtocol
		8,    // bMaxPacketSize0
		byte(idVendor & 0xff), byte(idVendor >> 8), // idVendor
		byte(idProduct & 0xff), byte(idProduct >> 8), // idProduct
		0, 0, // bcdDevice
		1, // iManufacturer
		2, // iProduct
		0, // iSerialNumber
		1, // bNumConfigurations
	}
}

// configurationBundleBytes packs the 32-byte configuration bundle: the
// 9-byte Configuration Descriptor, followed contiguously by the 9-byte
// Interface Descriptor and the two 7-byte Endpoint Descriptors, in that
// wire order (p293-297, Tables 9-10/9-12/9-13, USB2.0). The wire order is
// contractual and must not be reordered.
func configurationBundleBytes() []byte {
	const totalLength = CONFIGURATION_LENGTH + INTERFACE_LENGTH + 2*ENDPOINT_LENGTH

	buf := []byte{
		// configuration descriptor
		CONFIGURATION_LENGTH, CONFIGURATION,
		byte(totalLength), byte(totalLength >> 8), // wTotalLength
		1,          // bNumInterfaces
		1,          // bConfigurationValue
		0,          // iConfiguration
		0x80 | 0x40, // bmAttributes: reserved-one, self-powered
		0,          // bMaxPower

		// interface descriptor
		INTERFACE_LENGTH, INTERFACE,
		0,    // bInterfaceNumber
		0,    // bAlternateSetting
		2,    // bNumEndpoints
		0xff, // bInterfaceClass
		0xff, // bInterfaceSubClass
		0xff, // bInterfaceProtocol
		0,    // iInterface

		// endpoint 1: IN, bulk, 64 bytes
		ENDPOINT_LENGTH, ENDPOINT,
		0x80 | 1, // bEndpointAddress: IN, endpoint 1
		0x02,     // bmAttributes: bulk
		64, 0,    // wMaxPacketSize
		0, // bInterval

		// endpoint 2: OUT, bulk, 64 bytes
		ENDPOINT_LENGTH, ENDPOINT,
		0x02,  // bEndpointAddress: OUT, endpoint 2
		0x02,  // bmAttributes: bulk
		64, 0, // wMaxPacketSize
		0, // bInterval
	}

	return buf
}

// langIDDescriptorBytes packs the 4-byte String Descriptor Zero, listing
// the single supported language code (p273, Table 9-15, USB2.0).
func langIDDescriptorBytes() []byte {
	return []byte{4, STRING, byte(langID & 0xff), byte(langID >> 8)}
}

// asciiStringDescriptorBytes packs an ASCII string descriptor: a 2-byte
// header followed by the ASCII bytes of s (the original firmware encodes
// its fixed manufacturer/product strings as ASCII rather than UTF-16LE,
// and this catalogue preserves that). bLength is 2+len(s), so it is odd
// for an odd-length string such as "NXT".
func asciiStringDescriptorBytes(s string) []byte {
	buf := make([]byte, 2, 2+len(s))
	buf[0] = byte(2 + len(s))
	buf[1] = STRING
	return append(buf, s...)
}

// newCatalogue builds the Descriptor Catalogue once, at controller
// construction time.
func newCatalogue() *catalogue {
	return &catalogue{
		device:  descriptor{bytes: deviceDescriptorBytes()},
		config:  descriptor{bytes: configurationBundleBytes()},
		langIDs: descriptor{bytes: langIDDescriptorBytes()},
		strings: []descriptor{
			{bytes: asciiStringDescriptorBytes("LEGO")},
			{bytes: asciiStringDescriptorBytes("NXT")},
		},
	}
}

// lookup resolves a (descriptor type, index) pair to its catalogue entry,
// per §4.2. The second return value is false for any (type, index) not
// named there, which is a stall condition.
func (cat *catalogue) lookup(descType, index uint8) (descriptor, bool) {
	switch descType {
	case DEVICE:
		if index == 0 {
			return cat.device, true
		}
	case CONFIGURATION:
		if index == 0 {
			return cat.config, true
		}
	case STRING:
		if index == 0 {
			return cat.langIDs, true
		}
		if int(index) >= 1 && int(index) <= len(cat.strings) {
			return cat.strings[index-1], true
		}
	}

	return descriptor{}, false
}
