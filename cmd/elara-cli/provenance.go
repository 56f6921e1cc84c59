package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	core "elara/core"
	"elara/pkg/config"
)

var provenanceConfigFlag string

var provenanceCmd = &cobra.Command{
	Use:   "provenance <artifact-id>",
	Short: "Scan the local DAG for records authored here about an artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(provenanceConfigFlag)
		if err != nil {
			return err
		}

		identity, err := core.LoadIdentity(cfg.Identity.Path, core.EntityType(cfg.Identity.EntityType), core.Profile(cfg.Identity.Profile))
		if err != nil {
			return err
		}

		dag, err := core.OpenDAG(core.DAGConfig{
			WALPath:   cfg.Storage.DataDir + "/dag.wal",
			CacheSize: cfg.Storage.CacheSize,
		})
		if err != nil {
			return err
		}
		defer dag.Close()

		records := core.ProvenanceScan(dag, identity.PrimaryPublicKey, args[0])
		blob, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(blob))
		return nil
	},
}

func init() {
	provenanceCmd.Flags().StringVar(&provenanceConfigFlag, "config", "", "path to node config JSON")
}
