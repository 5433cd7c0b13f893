package main

import (
	"fmt"

	"github.com/spf13/cobra"

	imageman "github.com/volcanic/imageman-go"
)

func newReferenceCmd(cfg *imageman.Config) *cobra.Command {
	var (
		opts    map[string]string
		withURL bool
	)

	cmd := &cobra.Command{
		Use:   "reference <name> <source>",
		Short: "Compute the content reference for a name/source pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := imageman.NewReference(*cfg, args[0], args[1], opts)
			if withURL {
				fmt.Println(ref.URL())
				return nil
			}
			fmt.Println(ref.Hash())
			return nil
		},
	}

	cmd.Flags().StringToStringVar(&opts, "opt", nil, "extra reference attributes (key=value)")
	cmd.Flags().BoolVar(&withURL, "url", false, "print the asset URL instead of the hash")

	return cmd
}
