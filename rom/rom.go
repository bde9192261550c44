// Package rom lays out linked banks into a cartridge image and writes
// the header and checksums the boot ROM verifies.
package rom

import (
	"fmt"
	"strings"

	"github.com/Urethramancer/gbasm/cpu"
)

// FillByte pads every unused region of the image.
const FillByte = 0x00

// Header field offsets.
const (
	OffEntry      = 0x0100
	OffLogo       = 0x0104
	OffTitle      = 0x0134
	OffCartType   = 0x0147
	OffROMSize    = 0x0148
	OffRAMSize    = 0x0149
	OffDest       = 0x014A
	OffLicensee   = 0x014B
	OffVersion    = 0x014C
	OffHeaderSum  = 0x014D
	OffGlobalSum  = 0x014E
	titleMax      = 16
	checksumStart = 0x0134
	checksumEnd   = 0x014C
)

// logo is the bitmap the boot ROM compares byte for byte before handing
// over control.
var logo = [48]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B,
	0x03, 0x73, 0x00, 0x83, 0x00, 0x0C, 0x00, 0x0D,
	0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E,
	0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99,
	0xBB, 0xBB, 0x67, 0x63, 0x6E, 0x0E, 0xEC, 0xCC,
	0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

// Config carries the header fields under user control.
type Config struct {
	Title    string
	CartType byte
	RAMSize  byte
	Dest     byte
	Version  byte
}

// Chunk is one linked section's bytes at its final address.
type Chunk struct {
	Bank int
	Addr uint16
	Data []byte
}

// Build assembles the final image: banks of 16KiB each, chunk data
// copied in place, header fields and both checksums written. entry is
// the address execution should reach from the 0x0100 entry point.
func Build(chunks []Chunk, entry uint16, cfg Config) ([]byte, error) {
	banks := 2
	for _, c := range chunks {
		if c.Bank+1 > banks {
			banks = c.Bank + 1
		}
	}
	banks = nextPow2(banks)
	code, err := romSizeCode(banks)
	if err != nil {
		return nil, err
	}

	// A fresh slice is already FillByte-filled.
	img := make([]byte, banks*cpu.BankSize)

	for _, c := range chunks {
		off, err := imageOffset(c.Bank, c.Addr)
		if err != nil {
			return nil, err
		}
		if off+len(c.Data) > len(img) {
			return nil, fmt.Errorf("chunk at bank %d $%04X runs past the image", c.Bank, c.Addr)
		}
		copy(img[off:], c.Data)
	}

	// Entry: fall through from 0x0100 to the declared entry label.
	img[OffEntry] = cpu.OPNOP
	img[OffEntry+1] = cpu.OPJP
	img[OffEntry+2] = byte(entry)
	img[OffEntry+3] = byte(entry >> 8)

	copy(img[OffLogo:], logo[:])

	title := strings.ToUpper(cfg.Title)
	if len(title) > titleMax {
		title = title[:titleMax]
	}
	for i := 0; i < titleMax; i++ {
		img[OffTitle+i] = 0
	}
	copy(img[OffTitle:], title)

	img[OffCartType] = cfg.CartType
	img[OffROMSize] = code
	img[OffRAMSize] = cfg.RAMSize
	img[OffDest] = cfg.Dest
	img[OffLicensee] = 0x33
	img[OffVersion] = cfg.Version

	img[OffHeaderSum] = HeaderChecksum(img)
	g := GlobalChecksum(img)
	img[OffGlobalSum] = byte(g >> 8)
	img[OffGlobalSum+1] = byte(g)

	return img, nil
}

// HeaderChecksum computes the header checksum over 0x0134-0x014C:
// x = x - byte - 1 at each step, truncated to 8 bits.
func HeaderChecksum(img []byte) byte {
	var x byte
	for i := checksumStart; i <= checksumEnd; i++ {
		x = x - img[i] - 1
	}
	return x
}

// GlobalChecksum sums every byte of the image except the two global
// checksum bytes themselves.
func GlobalChecksum(img []byte) uint16 {
	var sum uint16
	for i, b := range img {
		if i == OffGlobalSum || i == OffGlobalSum+1 {
			continue
		}
		sum += uint16(b)
	}
	return sum
}

// imageOffset maps a bank number and CPU address to an image offset.
func imageOffset(bank int, addr uint16) (int, error) {
	start, end := cpu.BankWindow(bank)
	if addr < start || addr > end {
		return 0, fmt.Errorf("address $%04X outside bank %d window", addr, bank)
	}
	return bank*cpu.BankSize + int(addr-start), nil
}

// romSizeCode returns the header ROM-size code for a bank count.
func romSizeCode(banks int) (byte, error) {
	code := byte(0)
	for n := 2; n < banks; n <<= 1 {
		code++
	}
	if code > 0x08 {
		return 0, fmt.Errorf("%d banks exceed the largest ROM size", banks)
	}
	return code, nil
}

// nextPow2 rounds a bank count up to the next power of two, minimum 2.
func nextPow2(n int) int {
	p := 2
	for p < n {
		p <<= 1
	}
	return p
}
