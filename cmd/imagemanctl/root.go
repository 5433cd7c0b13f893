package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	imageman "github.com/volcanic/imageman-go"
)

func newRootCmd(cfg imageman.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "imagemanctl",
		Short:         "Manage images in the imageman service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfg.DomainURL, "domain-url", cfg.DomainURL, "imageman API base URL")
	root.PersistentFlags().StringVar(&cfg.AssetImageURL, "asset-url", cfg.AssetImageURL, "asset base URL")
	root.PersistentFlags().StringVar(&cfg.Service, "service", cfg.Service, "service tag for content references")
	root.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "bearer token")

	root.AddCommand(
		newCreateCmd(&cfg),
		newFetchCmd(&cfg),
		newDeleteCmd(&cfg),
		newReferenceCmd(&cfg),
	)
	return root
}

func withClient(cfg *imageman.Config, fn func(*imageman.Client) error) error {
	client, err := imageman.New(*cfg)
	if err != nil {
		return err
	}
	return fn(client)
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
