package network_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etopay/sigilwallet/internal/network"
)

func TestDerivationPath(t *testing.T) {
	t.Parallel()
	n := network.Network{Key: "eth-mainnet", Protocol: network.ProtocolEvm, ChainID: 1, CoinType: 60}
	assert.Equal(t, "m/44'/60'/0'/0/0", n.DerivationPath())
}

func TestValidateEvmRequiresChainID(t *testing.T) {
	t.Parallel()
	n := network.Network{Key: "eth-mainnet", Protocol: network.ProtocolEvm}
	require.Error(t, n.Validate())
}

func TestValidateEvmERC20RequiresContractAddress(t *testing.T) {
	t.Parallel()
	n := network.Network{Key: "usdc", Protocol: network.ProtocolEvmERC20, ChainID: 1}
	require.Error(t, n.Validate())

	n.ContractAddress = "0xabc"
	require.NoError(t, n.Validate())
}

func TestValidateStardustRequiresHrp(t *testing.T) {
	t.Parallel()
	n := network.Network{Key: "iota", Protocol: network.ProtocolStardust, CoinType: 4218}
	require.Error(t, n.Validate())

	n.Hrp = "smr"
	require.NoError(t, n.Validate())
}

func TestValidateRejectsUnknownProtocol(t *testing.T) {
	t.Parallel()
	n := network.Network{Key: "x", Protocol: "bogus"}
	require.Error(t, n.Validate())
}
