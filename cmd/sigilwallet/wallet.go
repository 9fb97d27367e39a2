package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Create, restore, back up, and delete the active user's wallet",
}

var walletCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate a new mnemonic and split/upload it as shares",
	RunE: func(cmd *cobra.Command, _ []string) error {
		pin, err := promptNewSecret("PIN")
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

		mnemonic, err := core.CreateWalletFromNewMnemonic(cmd.Context(), pin)
		if err != nil {
			return err
		}

		cmd.Println()
		cmd.Println("===================================================================")
		cmd.Println("                    RECOVERY PHRASE")
		cmd.Println("===================================================================")
		cmd.Println()
		cmd.Println("Write down these words in order and store them securely.")
		cmd.Println("This is the ONLY way to recover your wallet if all shares are lost.")
		cmd.Println()
		for i, word := range strings.Fields(mnemonic) {
			cmd.Printf("%2d. %s\n", i+1, word)
		}
		cmd.Println("===================================================================")
		return nil
	},
}

var walletRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore a wallet from an existing mnemonic",
	RunE: func(cmd *cobra.Command, _ []string) error {
		mnemonic, err := promptMnemonic()
		if err != nil {
			return err
		}

		pin, err := promptNewSecret("PIN")
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
		if err := core.CreateWalletFromExistingMnemonic(cmd.Context(), pin, mnemonic); err != nil {
			return err
		}
		cmd.Println("Wallet restored from mnemonic.")
		return nil
	},
}

var restoreBackupPath string

var walletRestoreBackupCmd = &cobra.Command{
	Use:   "restore-backup",
	Short: "Restore a wallet from a KDBX-style backup file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		blob, err := os.ReadFile(restoreBackupPath) //nolint:gosec // path is an operator-supplied CLI flag
		if err != nil {
			return err
		}

		backupPassword, err := promptSecret("Enter backup password: ")
		if err != nil {
			return err
		}
		defer zeroBytes(backupPassword)

		pin, err := promptNewSecret("PIN")
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
		if err := core.CreateWalletFromBackup(cmd.Context(), pin, blob, backupPassword); err != nil {
			return err
		}
		cmd.Println("Wallet restored from backup.")
		return nil
	},
}

var backupOutPath string

var walletBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a password-locked backup of the wallet mnemonic",
	RunE: func(cmd *cobra.Command, _ []string) error {
		pin, err := promptSecret("Enter PIN: ")
		if err != nil {
			return err
		}
		defer zeroBytes(pin)

		backupPassword, err := promptNewSecret("backup password")
		if err != nil {
			return err
		}
		defer zeroBytes(backupPassword)

		blob, err := core.CreateWalletBackup(cmd.Context(), pin, backupPassword)
		if err != nil {
			return err
		}
		if err := os.WriteFile(backupOutPath, blob, 0o600); err != nil {
			return err
		}
		cmd.Printf("Backup written to %s\n", backupOutPath)
		return nil
	},
}

var walletVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a candidate mnemonic against the reconstructed wallet secret",
	RunE: func(cmd *cobra.Command, _ []string) error {
		candidate, err := promptMnemonic()
		if err != nil {
			return err
		}
		pin, err := promptSecret("Enter PIN: ")
		if err != nil {
			return err
		}
		defer zeroBytes(pin)

		matches, err := core.VerifyMnemonic(cmd.Context(), pin, candidate)
		if err != nil {
			return err
		}
		if matches {
			cmd.Println("Mnemonic matches.")
			return nil
		}
		cmd.Println("Mnemonic does NOT match.")
		return sigilerr.ErrWrongPinOrPassword
	},
}

var walletDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the wallet and wipe all remote shares",
	RunE: func(cmd *cobra.Command, _ []string) error {
		pin, err := promptSecret("Enter PIN to confirm deletion: ")
		if err != nil {
			return err
		}
		defer zeroBytes(pin)

		if err := core.DeleteWallet(cmd.Context(), pin); err != nil {
			return err
		}
		cmd.Println("Wallet deleted.")
		return nil
	},
}

//nolint:gochecknoinits // cobra CLI pattern requires init for flag/command registration
func init() {
	walletBackupCmd.Flags().StringVar(&backupOutPath, "out", "wallet-backup.kdbx", "output path for the backup file")
	walletRestoreBackupCmd.Flags().StringVar(&restoreBackupPath, "file", "", "path to the backup file")
	_ = walletRestoreBackupCmd.MarkFlagRequired("file")

	walletCmd.AddCommand(walletCreateCmd, walletRestoreCmd, walletRestoreBackupCmd, walletBackupCmd, walletVerifyCmd, walletDeleteCmd)
	rootCmd.AddCommand(walletCmd)
}
