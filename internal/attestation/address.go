package attestation

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseAddress validates a 20-byte hex account identifier. The 0x prefix is optional and
// case is ignored; use Address.Hex for the checksummed form.
func ParseAddress(addr string) (common.Address, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return common.Address{}, newError(KindInvalidAddress, "address is required", nil)
	}

	if !common.IsHexAddress(addr) {
		return common.Address{}, newError(KindInvalidAddress,
			fmt.Sprintf("%q is not a 20-byte hex address", addr), nil)
	}

	return common.HexToAddress(addr), nil
}
