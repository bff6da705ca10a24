package app

import (
	"github.com/spf13/cobra"

	"github.com/lenda-labs/uid-signer/cmd/version"
)

// RootCmd creates the uid-signer command tree.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uid-signer",
		Short: "Issue signed UniqueIdentity attestations",
		Long: `uid-signer signs (subject, identity type, expiry, nonce) attestations that the
UniqueIdentity registry verifies on-chain with ecrecover.

Configuration is read from the environment; see "uid-signer serve --help".`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		ServeCmd(),
		SignCmd(),
		VerifyCmd(),
		version.NewVersionCmd(),
	)

	return cmd
}
