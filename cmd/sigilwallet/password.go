package main

import "github.com/spf13/cobra"

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Manage the wallet password and PIN",
}

var passwordSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set or rotate the wallet password",
	RunE: func(cmd *cobra.Command, _ []string) error {
		pin, err := promptSecret("Enter PIN: ")
		if err != nil {
			return err
		}
		defer zeroBytes(pin)

		newPassword, err := promptNewSecret("wallet password")
		if err != nil {
			return err
		}
		defer zeroBytes(newPassword)

		if err := core.SetWalletPassword(cmd.Context(), pin, newPassword); err != nil {
			return err
		}
		cmd.Println("Wallet password set.")
		return nil
	},
}

var passwordChangePinCmd = &cobra.Command{
	Use:   "change-pin",
	Short: "Re-wrap the wallet password under a new PIN",
	RunE: func(cmd *cobra.Command, _ []string) error {
		oldPin, err := promptSecret("Enter current PIN: ")
		if err != nil {
			return err
		}
		defer zeroBytes(oldPin)

		newPin, err := promptNewSecret("new PIN")
		if err != nil {
			return err
		}
		defer zeroBytes(newPin)

		if err := core.ChangePin(cmd.Context(), oldPin, newPin); err != nil {
			return err
		}
		cmd.Println("PIN changed.")
		return nil
	},
}

var passwordVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check whether a PIN unlocks the wallet password",
	RunE: func(cmd *cobra.Command, _ []string) error {
		pin, err := promptSecret("Enter PIN: ")
		if err != nil {
			return err
		}
		defer zeroBytes(pin)

		if err := core.VerifyPin(cmd.Context(), pin); err != nil {
			return err
		}
		cmd.Println("PIN is correct.")
		return nil
	},
}

//nolint:gochecknoinits // cobra CLI pattern requires init for flag/command registration
func init() {
	passwordCmd.AddCommand(passwordSetCmd, passwordChangePinCmd, passwordVerifyCmd)
	rootCmd.AddCommand(passwordCmd)
}
