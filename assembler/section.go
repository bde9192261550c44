package assembler

import (
	"sort"

	"github.com/Urethramancer/gbasm/cpu"
)

// Section is a named region of output bytes bound to a bank. Sections
// are created by pass 1 at each SECTION directive and filled by pass 2.
type Section struct {
	File     string
	Bank     int
	Base     uint16
	Explicit bool // base address was given in the source
	Size     uint32
	Data     []byte
	Relocs   []Reloc
	Pos      Position
}

// End returns one past the last address the section occupies.
func (s *Section) End() uint32 {
	return uint32(s.Base) + s.Size
}

// validateSections enforces the bank windows and checks for address
// overlap between sections. A section whose bytes would run past its
// bank window fails outright; nothing is truncated or repacked. Sections
// with an explicit base are trusted to claim the reserved vector and
// header ranges, but two sections claiming the same range is always an
// error.
func validateSections(units []*Unit, diags *ErrorList) {
	var all []*Section
	for _, u := range units {
		for _, s := range u.Sections {
			if s.Size == 0 {
				continue
			}
			all = append(all, s)
		}
	}

	for _, s := range all {
		start, end := cpu.BankWindow(s.Bank)
		if uint32(s.Base) < uint32(start) || s.End() > uint32(end)+1 {
			diags.Add(BankOverflowError, s.Pos,
				"section at $%04X-$%04X exceeds bank %d window $%04X-$%04X",
				s.Base, s.End()-1, s.Bank, start, end)
		}
	}

	// Overlap is only possible between sections in the same bank.
	byBank := make(map[int][]*Section)
	for _, s := range all {
		byBank[s.Bank] = append(byBank[s.Bank], s)
	}
	for _, secs := range byBank {
		sort.Slice(secs, func(i, j int) bool {
			if secs[i].Base != secs[j].Base {
				return secs[i].Base < secs[j].Base
			}
			return secs[i].File < secs[j].File
		})
		for i := 1; i < len(secs); i++ {
			prev, s := secs[i-1], secs[i]
			if uint32(s.Base) < prev.End() {
				diags.Add(OverlapError, s.Pos,
					"section at $%04X overlaps section at $%04X-$%04X from %s",
					s.Base, prev.Base, prev.End()-1, prev.File)
			}
		}
	}
}
