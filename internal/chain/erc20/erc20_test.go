package erc20_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etopay/sigilwallet/internal/amount"
	"github.com/etopay/sigilwallet/internal/chain/erc20"
	"github.com/etopay/sigilwallet/internal/network"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

type noopLogger struct{ warnings int }

func (l *noopLogger) Warn(format string, args ...any) { l.warnings++ }

func testNetwork() network.Network {
	return network.Network{
		Key:             "usdc-sepolia",
		Protocol:        network.ProtocolEvmERC20,
		ChainID:         11155111,
		CoinType:        60,
		Decimals:        6,
		ContractAddress: "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238",
	}
}

func TestNewClientRejectsNonERC20Network(t *testing.T) {
	t.Parallel()
	n := testNetwork()
	n.Protocol = network.ProtocolEvm

	_, err := erc20.NewClient("http://localhost:8545", n, &noopLogger{})
	require.ErrorIs(t, err, erc20.ErrNotERC20Network)
}

func TestNewClientRejectsInvalidContractAddress(t *testing.T) {
	t.Parallel()
	n := testNetwork()
	n.ContractAddress = "not-an-address"

	_, err := erc20.NewClient("http://localhost:8545", n, &noopLogger{})
	require.Error(t, err)
}

func TestAddressIsDeterministic(t *testing.T) {
	t.Parallel()
	c, err := erc20.NewClient("http://localhost:8545", testNetwork(), &noopLogger{})
	require.NoError(t, err)

	addr1, err := c.Address(testMnemonic)
	require.NoError(t, err)
	addr2, err := c.Address(testMnemonic)
	require.NoError(t, err)

	assert.Equal(t, addr1, addr2)
	assert.Equal(t, "0x", addr1[:2])
}

func TestBalanceDecodesBalanceOfCall(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var resp map[string]any
		switch req["method"].(string) {
		case "eth_chainId":
			resp = map[string]any{"jsonrpc": "2.0", "id": req["id"], "result": "0xaa36a7"}
		case "eth_call":
			params, _ := req["params"].([]any)
			require.NotEmpty(t, params)
			callMsg, _ := params[0].(map[string]any)
			data, _ := callMsg["data"].(string)
			require.True(t, strings.HasPrefix(data, "0x70a08231"))
			// 2.5 tokens at 6 decimals = 2_500_000
			resp = map[string]any{
				"jsonrpc": "2.0", "id": req["id"],
				"result": "0x00000000000000000000000000000000000000000000000000000000002625a0",
			}
		default:
			t.Fatalf("unexpected method: %s", req["method"])
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	c, err := erc20.NewClient(server.URL, testNetwork(), &noopLogger{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bal, err := c.Balance(ctx, testMnemonic)
	require.NoError(t, err)
	assert.Equal(t, "2.5", bal.String())
}

func TestListRecentHashesNotImplemented(t *testing.T) {
	t.Parallel()
	c, err := erc20.NewClient("http://localhost:8545", testNetwork(), &noopLogger{})
	require.NoError(t, err)

	_, err = c.ListRecentHashes(context.Background())
	require.Error(t, err)
}

func TestEstimateGasRejectsInvalidToAddress(t *testing.T) {
	t.Parallel()
	c, err := erc20.NewClient("http://localhost:8545", testNetwork(), &noopLogger{})
	require.NoError(t, err)

	_, err = c.EstimateGas(context.Background(), testMnemonic, "not-an-address", amount.Zero())
	require.Error(t, err)
}

func TestSendDropsDataAndWarns(t *testing.T) {
	t.Parallel()
	log := &noopLogger{}
	c, err := erc20.NewClient("http://localhost:8545", testNetwork(), log)
	require.NoError(t, err)

	// Invalid "to" so Send fails fast on calldata construction, before
	// any RPC dial — we're only asserting the warn-on-dropped-data path.
	_, _ = c.Send(context.Background(), testMnemonic, "not-an-address", amount.Zero(), []byte{0x01})
	assert.Equal(t, 1, log.warnings)
}
