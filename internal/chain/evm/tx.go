package evm

import (
	"context"
	"math/big"
	"regexp"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/etopay/sigilwallet/internal/amount"
	"github.com/etopay/sigilwallet/internal/chain/evm/ethcrypto"
	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

// addressRegex validates a 0x-prefixed 20-byte hex address, grounded on
// internal/chain/eth/client.go's addressRegex.
var addressRegex = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")

// ValidateAddress reports whether address is a well-formed EVM address.
func ValidateAddress(address string) error {
	if !addressRegex.MatchString(address) {
		return addressErr("address", address)
	}
	return nil
}

func amountToWei(intent TransactionIntent, decimals int) (*big.Int, error) {
	if err := ValidateAddress(intent.To); err != nil {
		return nil, err
	}
	return amount.ToU256(intent.Amount, decimals)
}

// Send builds, signs, and broadcasts an EIP-1559 transaction carrying
// intent, waits for it to be mined, and returns the receipt's
// transaction hash. Generalizes internal/chain/eth/tx.go's
// BuildTransaction/SignTransaction/BroadcastTransaction pipeline from a
// LegacyTx+EIP155Signer to a DynamicFeeTx signed with the decred-based
// ethcrypto.Sign instead of go-ethereum's crypto.ToECDSA+SignTx — the
// raw secp256k1 signature is fed straight into the EIP-1559 signer's
// SignatureValues/WithSignature, so no conversion to a
// standard-library ecdsa.PrivateKey is needed.
func (c *Client) Send(ctx context.Context, mnemonic string, intent TransactionIntent) (string, error) {
	key, err := derivePrivateKey(mnemonic, c.network.CoinType)
	if err != nil {
		return "", err
	}
	defer zero(key)

	fromBytes, err := ethcrypto.DeriveAddress(key)
	if err != nil {
		return "", sigilerr.Wrap(err, "deriving address")
	}
	from := common.BytesToAddress(fromBytes)

	eth, err := c.connect(ctx)
	if err != nil {
		return "", err
	}

	value, err := amountToWei(intent, c.network.Decimals)
	if err != nil {
		return "", err
	}

	nonce, err := eth.PendingNonceAt(ctx, from)
	if err != nil {
		return "", sigilerr.Wrap(err, "fetching nonce")
	}

	estimate, err := c.EstimateGas(ctx, mnemonic, intent)
	if err != nil {
		return "", err
	}

	toAddr := common.HexToAddress(intent.To)
	unsigned := types.NewTx(&types.DynamicFeeTx{
		ChainID:   new(big.Int).SetUint64(c.network.ChainID),
		Nonce:     nonce,
		GasTipCap: estimate.MaxPriorityFeePerGas,
		GasFeeCap: estimate.MaxFeePerGas,
		Gas:       estimate.GasLimit,
		To:        &toAddr,
		Value:     value,
		Data:      intent.Data,
	})

	signed, err := signDynamicFeeTx(unsigned, key, new(big.Int).SetUint64(c.network.ChainID))
	if err != nil {
		return "", err
	}

	if err := eth.SendTransaction(ctx, signed); err != nil {
		return "", sigilerr.Wrap(err, "broadcasting transaction")
	}

	receipt, err := bind.WaitMined(ctx, eth, signed)
	if err != nil {
		return "", sigilerr.Wrap(err, "awaiting inclusion")
	}

	return receipt.TxHash.Hex(), nil
}

// signDynamicFeeTx signs an EIP-1559 transaction with a raw secp256k1
// key via ethcrypto.Sign, assembling the signature into tx the same
// way types.SignTx would with a standard-library key.
func signDynamicFeeTx(tx *types.Transaction, privateKey []byte, chainID *big.Int) (*types.Transaction, error) {
	signer := types.NewLondonSigner(chainID)

	hash := signer.Hash(tx)
	sig, err := ethcrypto.Sign(hash[:], privateKey)
	if err != nil {
		return nil, sigilerr.Wrap(err, "signing transaction")
	}

	signed, err := tx.WithSignature(signer, sig)
	if err != nil {
		return nil, sigilerr.Wrap(err, "assembling signature")
	}

	return signed, nil
}
