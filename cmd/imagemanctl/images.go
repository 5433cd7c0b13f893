package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	imageman "github.com/volcanic/imageman-go"
)

func newCreateCmd(cfg *imageman.Config) *cobra.Command {
	var (
		name          string
		source        string
		reference     string
		cacheDuration int
		useSignedURL  bool
		contentType   string
	)

	cmd := &cobra.Command{
		Use:   "create <file>",
		Short: "Upload a new image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *imageman.Client) error {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()

				att, err := imageman.NewAttachable(f, "", contentType)
				if err != nil {
					return err
				}

				opts := imageman.CreateOptions{
					Name:          name,
					ReferenceHash: reference,
					UseSignedURL:  useSignedURL,
					ContentType:   contentType,
				}
				if reference == "" && source != "" {
					opts.Reference = client.NewReference(name, source, nil)
				}
				if cacheDuration > 0 {
					opts.CacheDuration = &cacheDuration
				}

				img, err := client.Create(cmd.Context(), att, opts)
				if err != nil {
					return err
				}
				return writeJSON(img)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "image name")
	cmd.Flags().StringVar(&source, "source", "", "reference source (builds a content reference)")
	cmd.Flags().StringVar(&reference, "reference", "", "explicit reference hash")
	cmd.Flags().IntVar(&cacheDuration, "cache-duration", 0, "cache duration in seconds")
	cmd.Flags().BoolVar(&useSignedURL, "signed-url", false, "force the presigned upload path")
	cmd.Flags().StringVar(&contentType, "content-type", "", "declared content type")

	return cmd
}

func newFetchCmd(cfg *imageman.Config) *cobra.Command {
	var (
		reference string
		uuid      string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch an image by reference or uuid",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *imageman.Client) error {
				img, err := client.FetchBy(cmd.Context(), imageman.FetchOptions{
					ReferenceHash: reference,
					UUID:          uuid,
				})
				if err != nil {
					return err
				}
				return writeJSON(img)
			})
		},
	}

	cmd.Flags().StringVar(&reference, "reference", "", "reference hash")
	cmd.Flags().StringVar(&uuid, "uuid", "", "image uuid")

	return cmd
}

func newDeleteCmd(cfg *imageman.Config) *cobra.Command {
	var (
		reference string
		uuid      string
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an image by reference or uuid",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *imageman.Client) error {
				img, err := client.FetchBy(cmd.Context(), imageman.FetchOptions{
					ReferenceHash: reference,
					UUID:          uuid,
				})
				if err != nil {
					return err
				}
				if _, err := img.Delete(cmd.Context()); err != nil {
					return err
				}
				fmt.Println("deleted", img.UUID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reference, "reference", "", "reference hash")
	cmd.Flags().StringVar(&uuid, "uuid", "", "image uuid")

	return cmd
}
