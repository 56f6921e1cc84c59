package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	core "elara/core"
)

var statusHostFlag string
var statusPortFlag int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query a node's /status endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := core.NewNetworkClient(10*time.Second, 1*time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		out := client.GetStatus(ctx, statusHostFlag, statusPortFlag)
		blob, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(blob))
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusHostFlag, "host", "127.0.0.1", "node host")
	statusCmd.Flags().IntVar(&statusPortFlag, "port", 7340, "node port")
}
