package cpu

// Cartridge memory map constants.
const (
	// BankSize is the size of one ROM bank.
	BankSize = 0x4000

	// Bank0Start and Bank0End delimit the fixed home bank window.
	Bank0Start = 0x0000
	Bank0End   = 0x3FFF

	// BankNStart and BankNEnd delimit the switchable bank window.
	BankNStart = 0x4000
	BankNEnd   = 0x7FFF

	// VectorsStart and VectorsEnd delimit the RST/interrupt vector area.
	VectorsStart = 0x0000
	VectorsEnd   = 0x00FF

	// HeaderStart and HeaderEnd delimit the cartridge header.
	HeaderStart = 0x0100
	HeaderEnd   = 0x014F

	// CodeStart is the first address past the header, the default origin
	// for home bank code.
	CodeStart = 0x0150

	// EntryPoint is where the boot ROM hands over control.
	EntryPoint = 0x0100
)

// BankWindow returns the address window for a bank number.
func BankWindow(bank int) (start, end uint16) {
	if bank == 0 {
		return Bank0Start, Bank0End
	}
	return BankNStart, BankNEnd
}

// BankOrigin returns the default base address for code in a bank.
func BankOrigin(bank int) uint16 {
	if bank == 0 {
		return CodeStart
	}
	return BankNStart
}
