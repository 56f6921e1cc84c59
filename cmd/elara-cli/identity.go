package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	core "elara/core"
	"elara/pkg/utils"
)

var identityPathFlag string

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Generate or inspect the local node identity",
}

var identityGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new identity, failing if one already exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := identityPath()
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("identity already exists at %s", path)
		}
		id, err := core.GenerateIdentity(core.EntityAI, core.ProfileA)
		if err != nil {
			return err
		}
		if err := id.Save(path); err != nil {
			return err
		}
		fmt.Printf("generated identity %s at %s\n", id.IdentityHash, path)
		return nil
	},
}

var identityShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the local identity's public material",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := identityPath()
		id, err := core.LoadIdentity(path, core.EntityAI, core.ProfileA)
		if err != nil {
			return err
		}
		fmt.Printf("identity_hash: %s\n", id.IdentityHash)
		fmt.Printf("entity_type:   %s\n", id.EntityType)
		fmt.Printf("profile:       %s\n", id.Profile)
		fmt.Printf("primary_pub:   %s\n", hex.EncodeToString(id.PrimaryPublicKey))
		if id.Profile == core.ProfileA {
			fmt.Printf("secondary_pub: %s\n", hex.EncodeToString(id.SecondaryPublicKey))
		}
		return nil
	},
}

func identityPath() string {
	if identityPathFlag != "" {
		return identityPathFlag
	}
	return utils.EnvOrDefault("ELARA_IDENTITY_PATH", "elara_identity.json")
}

func init() {
	identityCmd.PersistentFlags().StringVar(&identityPathFlag, "path", "", "path to the identity file")
	identityCmd.AddCommand(identityGenerateCmd)
	identityCmd.AddCommand(identityShowCmd)
}
