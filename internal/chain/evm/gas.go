package evm

import (
	"context"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

// baseFeeMultiplier is the standard "survive two blocks of base-fee
// doubling" headroom used by most EIP-1559 wallets (geth's own
// suggester uses the same factor), grounded on
// internal/chain/eth/gas.go's fast/slow multiplier pattern —
// generalized from a flat gas-price percentage bump to the EIP-1559
// base-fee/tip split.
const baseFeeMultiplier = 2

// EstimateGas computes the EIP-1559 gas limit and fee cap for sending
// intent from mnemonic's address: gas_limit via eth_estimateGas,
// max_priority_fee_per_gas via eth_maxPriorityFeePerGas, and
// max_fee_per_gas as baseFeeMultiplier*baseFee + tip, per spec §4.7.
func (c *Client) EstimateGas(ctx context.Context, mnemonic string, intent TransactionIntent) (GasCostEstimation, error) {
	value, err := amountToWei(intent, c.network.Decimals)
	if err != nil {
		return GasCostEstimation{}, err
	}

	from, err := c.Address(mnemonic)
	if err != nil {
		return GasCostEstimation{}, err
	}

	eth, err := c.connect(ctx)
	if err != nil {
		return GasCostEstimation{}, err
	}

	header, err := eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return GasCostEstimation{}, sigilerr.Wrap(err, "fetching latest header")
	}
	if header.BaseFee == nil {
		return GasCostEstimation{}, sigilerr.Wrap(ErrNotEVMNetwork, "chain does not report a base fee")
	}

	tip, err := eth.SuggestGasTipCap(ctx)
	if err != nil {
		return GasCostEstimation{}, sigilerr.Wrap(err, "suggesting priority fee")
	}

	toAddr := common.HexToAddress(intent.To)
	gasLimit, err := eth.EstimateGas(ctx, ethereum.CallMsg{
		From:  common.HexToAddress(from),
		To:    &toAddr,
		Value: value,
		Data:  intent.Data,
	})
	if err != nil {
		return GasCostEstimation{}, sigilerr.Wrap(err, "estimating gas limit")
	}

	maxFee := new(big.Int).Add(new(big.Int).Mul(header.BaseFee, big.NewInt(baseFeeMultiplier)), tip)

	return GasCostEstimation{
		GasLimit:             gasLimit,
		MaxFeePerGas:         maxFee,
		MaxPriorityFeePerGas: tip,
	}, nil
}
