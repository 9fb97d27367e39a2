package evm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etopay/sigilwallet/internal/amount"
	"github.com/etopay/sigilwallet/internal/chain/evm"
	"github.com/etopay/sigilwallet/internal/network"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testNetwork() network.Network {
	return network.Network{
		Key:      "eth-sepolia",
		Protocol: network.ProtocolEvm,
		ChainID:  11155111,
		CoinType: 60,
		Decimals: 18,
	}
}

func TestNewClientRejectsNonEVMNetwork(t *testing.T) {
	t.Parallel()
	n := testNetwork()
	n.Protocol = network.ProtocolStardust

	_, err := evm.NewClient("http://localhost:8545", n)
	require.ErrorIs(t, err, evm.ErrNotEVMNetwork)
}

func TestAddressIsDeterministicAndHexPrefixed(t *testing.T) {
	t.Parallel()
	c, err := evm.NewClient("http://localhost:8545", testNetwork())
	require.NoError(t, err)

	addr1, err := c.Address(testMnemonic)
	require.NoError(t, err)
	addr2, err := c.Address(testMnemonic)
	require.NoError(t, err)

	assert.Equal(t, addr1, addr2)
	assert.Len(t, addr1, 42)
	assert.Equal(t, "0x", addr1[:2])
}

func TestBalanceConvertsWeiToCryptoAmount(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var resp map[string]any
		switch req["method"].(string) {
		case "eth_chainId":
			resp = map[string]any{"jsonrpc": "2.0", "id": req["id"], "result": "0xaa36a7"}
		case "eth_getBalance":
			resp = map[string]any{"jsonrpc": "2.0", "id": req["id"], "result": "0xde0b6b3a7640000"} // 1 ETH
		default:
			t.Fatalf("unexpected method: %s", req["method"])
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	c, err := evm.NewClient(server.URL, testNetwork())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bal, err := c.Balance(ctx, testMnemonic)
	require.NoError(t, err)
	assert.Equal(t, "1", bal.String())
}

func TestListRecentHashesNotImplemented(t *testing.T) {
	t.Parallel()
	c, err := evm.NewClient("http://localhost:8545", testNetwork())
	require.NoError(t, err)

	_, err = c.ListRecentHashes(context.Background())
	require.Error(t, err)
}

func TestEstimateGasRejectsInvalidToAddress(t *testing.T) {
	t.Parallel()
	c, err := evm.NewClient("http://localhost:8545", testNetwork())
	require.NoError(t, err)

	_, err = c.EstimateGas(context.Background(), testMnemonic, evm.TransactionIntent{
		To:     "not-an-address",
		Amount: amount.Zero(),
	})
	require.Error(t, err)
}
