package main

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	jwttoken "provenance/internal/jwt_token"
	"provenance/internal/platform/config"
)

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a secp256k1 key for PROVENANCE_RELAYER_KEY or a signer",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := crypto.GenerateKey()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "private_key=%s\n", hexutil.Encode(crypto.FromECDSA(key)))
			fmt.Fprintf(out, "address=%s\n", crypto.PubkeyToAddress(key.PublicKey).Hex())
			return nil
		},
	}
}

func newAdminTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Mint an admin bearer token signed with PROVENANCE_ADMIN_JWT_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.LoadDotEnv()
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			admin := cfg.Owner
			if subject != "" {
				if !common.IsHexAddress(subject) {
					return fmt.Errorf("--address: invalid address %q", subject)
				}
				admin = common.HexToAddress(subject)
			}
			token, err := jwttoken.NewJWTService(cfg.AdminJWTKey, adminTokenIssuer, adminTokenAudience).
				GenerateAdminToken(admin, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "address", "", "Admin address (defaults to PROVENANCE_OWNER)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}
