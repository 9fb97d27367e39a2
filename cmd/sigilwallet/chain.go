package main

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/etopay/sigilwallet/internal/amount"
	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

// parseDecimal turns a plain decimal string ("1.5", "42") into a
// CryptoAmount, splitting on the decimal point to derive mantissa+scale.
func parseDecimal(s string) (amount.CryptoAmount, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	if neg {
		return amount.CryptoAmount{}, sigilerr.WithDetails(sigilerr.ErrConversionError, map[string]string{"reason": "negative amount"})
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	scale := 0
	digits := whole
	if hasFrac {
		scale = len(frac)
		digits = whole + frac
	}
	if digits == "" {
		digits = "0"
	}

	mantissa, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return amount.CryptoAmount{}, sigilerr.WithSuggestion(sigilerr.ErrConversionError, strconv.Quote(s)+" is not a valid decimal amount")
	}
	return amount.New(mantissa, scale)
}

func requirePin() ([]byte, error) {
	return promptSecret("Enter PIN: ")
}

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Manage the active network's receiving address",
}

var addressNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Derive (and, for purchase-eligible networks, register) a new address",
	RunE: func(cmd *cobra.Command, _ []string) error {
		pin, err := requirePin()
		if err != nil {
			return err
		}
		defer zeroBytes(pin)

		addr, err := core.GenerateNewAddress(cmd.Context(), pin)
		if err != nil {
			return err
		}
		cmd.Println(addr)
		return nil
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the active network's wallet balance",
	RunE: func(cmd *cobra.Command, _ []string) error {
		pin, err := requirePin()
		if err != nil {
			return err
		}
		defer zeroBytes(pin)

		bal, err := core.GetBalance(cmd.Context(), pin)
		if err != nil {
			return err
		}
		cmd.Println(bal.String())
		return nil
	},
}

var (
	sendTo     string
	sendAmount string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send an amount to an address on the active network",
	RunE: func(cmd *cobra.Command, _ []string) error {
		amt, err := parseDecimal(sendAmount)
		if err != nil {
			return err
		}

		pin, err := requirePin()
		if err != nil {
			return err
		}
		defer zeroBytes(pin)

		hash, err := core.SendAmount(cmd.Context(), pin, sendTo, amt, nil)
		if err != nil {
			return err
		}
		cmd.Println(hash)
		return nil
	},
}

var estimateGasCmd = &cobra.Command{
	Use:   "estimate-gas",
	Short: "Estimate the fee for sending an amount to an address",
	RunE: func(cmd *cobra.Command, _ []string) error {
		amt, err := parseDecimal(sendAmount)
		if err != nil {
			return err
		}

		pin, err := requirePin()
		if err != nil {
			return err
		}
		defer zeroBytes(pin)

		est, err := core.EstimateGas(cmd.Context(), pin, sendTo, amt, nil)
		if err != nil {
			return err
		}

		if est.GasLimit > 0 {
			cmd.Printf("gas_limit=%d max_fee_per_gas=%s max_priority_fee_per_gas=%s\n",
				est.GasLimit, bigString(est.MaxFeePerGas), bigString(est.MaxPriorityFeePerGas))
			return nil
		}
		cmd.Printf("fee_rate=%d estimated_size=%d total_fee=%s\n", est.FeeRate, est.EstimatedSize, est.TotalFee.String())
		return nil
	},
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Inspect the active network's transaction history",
}

var (
	txListStart int
	txListLimit int
)

var txListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent transactions, reconciled against the chain",
	RunE: func(cmd *cobra.Command, _ []string) error {
		pin, err := requirePin()
		if err != nil {
			return err
		}
		defer zeroBytes(pin)

		txs, err := core.GetWalletTxList(cmd.Context(), pin, txListStart, txListLimit)
		if err != nil {
			return err
		}
		for _, tx := range txs {
			cmd.Printf("%s  %-10s %s -> %s  %s\n", tx.TransactionHash, tx.Status, tx.Sender, tx.Receiver, tx.Amount)
		}
		return nil
	},
}

var txShowCmd = &cobra.Command{
	Use:   "show [hash]",
	Short: "Show a single transaction by hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pin, err := requirePin()
		if err != nil {
			return err
		}
		defer zeroBytes(pin)

		tx, err := core.GetWalletTx(cmd.Context(), pin, args[0])
		if err != nil {
			return err
		}
		cmd.Printf("hash:     %s\n", tx.TransactionHash)
		cmd.Printf("status:   %s\n", tx.Status)
		cmd.Printf("sender:   %s\n", tx.Sender)
		cmd.Printf("receiver: %s\n", tx.Receiver)
		cmd.Printf("amount:   %s\n", tx.Amount)
		return nil
	},
}

//nolint:gochecknoinits // cobra CLI pattern requires init for flag/command registration
func init() {
	addressCmd.AddCommand(addressNewCmd)

	sendCmd.Flags().StringVar(&sendTo, "to", "", "recipient address")
	sendCmd.Flags().StringVar(&sendAmount, "amount", "", "decimal amount to send")
	_ = sendCmd.MarkFlagRequired("to")
	_ = sendCmd.MarkFlagRequired("amount")

	estimateGasCmd.Flags().StringVar(&sendTo, "to", "", "recipient address")
	estimateGasCmd.Flags().StringVar(&sendAmount, "amount", "", "decimal amount to send")
	_ = estimateGasCmd.MarkFlagRequired("to")
	_ = estimateGasCmd.MarkFlagRequired("amount")

	txListCmd.Flags().IntVar(&txListStart, "start", 0, "pagination offset")
	txListCmd.Flags().IntVar(&txListLimit, "limit", 20, "page size")
	txCmd.AddCommand(txListCmd, txShowCmd)

	rootCmd.AddCommand(addressCmd, balanceCmd, sendCmd, estimateGasCmd, txCmd)
}
