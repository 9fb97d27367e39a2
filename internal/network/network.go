// Package network describes the multi-chain Network value the façade
// holds as its active-network process state (spec §3): a key, a display
// symbol, a purchase-eligibility flag, and a tagged protocol variant
// selecting which chain signer (C7/C8/C9) a wallet manager should
// materialise. Grounded on internal/chain/chain.go's ID/CoinType/
// DerivationPath shape, generalized from a flat chain-ID enum into a
// protocol variant carrying per-protocol configuration.
package network

import "fmt"

// Protocol identifies which chain-signer family a Network selects.
type Protocol string

const (
	// ProtocolEvm selects the native-coin EVM signer (C7).
	ProtocolEvm Protocol = "evm"
	// ProtocolEvmERC20 selects the ERC-20 token signer (C8).
	ProtocolEvmERC20 Protocol = "evm_erc20"
	// ProtocolStardust selects the UTXO-style Stardust signer (C9).
	ProtocolStardust Protocol = "stardust"
)

// Network is the tagged-variant chain configuration from spec §3.
// Exactly the fields relevant to Protocol are populated; others are
// left at their zero value.
type Network struct {
	Key             string
	DisplaySymbol   string
	CanDoPurchases  bool
	Protocol        Protocol
	ChainID         uint64 // Evm, EvmERC20
	ContractAddress string // EvmERC20 only
	Hrp             string // Stardust only: bech32 human-readable part, e.g. "smr"
	CoinType        uint32 // BIP-44 coin type, all protocols
	Decimals        int
}

// DerivationPath returns the BIP-44 account-level path for this network,
// m/44'/{coin_type}'/0'/0/0, per spec §4.7.
func (n Network) DerivationPath() string {
	return fmt.Sprintf("m/44'/%d'/0'/0/0", n.CoinType)
}

// Validate rejects a Network whose protocol-specific fields are missing.
func (n Network) Validate() error {
	switch n.Protocol {
	case ProtocolEvm:
		if n.ChainID == 0 {
			return fmt.Errorf("network %q: evm protocol requires chain_id", n.Key)
		}
	case ProtocolEvmERC20:
		if n.ChainID == 0 {
			return fmt.Errorf("network %q: evm_erc20 protocol requires chain_id", n.Key)
		}
		if n.ContractAddress == "" {
			return fmt.Errorf("network %q: evm_erc20 protocol requires contract_address", n.Key)
		}
	case ProtocolStardust:
		if n.Hrp == "" {
			return fmt.Errorf("network %q: stardust protocol requires hrp", n.Key)
		}
	default:
		return fmt.Errorf("network %q: unknown protocol %q", n.Key, n.Protocol)
	}
	if n.Key == "" {
		return fmt.Errorf("network: key is required")
	}
	return nil
}
