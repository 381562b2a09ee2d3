package banked

import "github.com/sarchlab/memhier/mem"

// BankSelector decides which bank serves a line.
type BankSelector func(addr mem.LineAddress, numBanks int) int

// InterleaveSelector spreads consecutive lines across consecutive banks.
func InterleaveSelector(addr mem.LineAddress, numBanks int) int {
	if numBanks <= 0 {
		return 0
	}

	return int(uint64(addr) % uint64(numBanks))
}

// MakeBlockSelector returns a selector that keeps blockLines consecutive
// lines in the same bank before moving to the next one.
func MakeBlockSelector(blockLines uint64) BankSelector {
	if blockLines == 0 {
		blockLines = 1
	}

	return func(addr mem.LineAddress, numBanks int) int {
		if numBanks <= 0 {
			return 0
		}

		return int((uint64(addr) / blockLines) % uint64(numBanks))
	}
}
