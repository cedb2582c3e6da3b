package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/market-ar/market/internal/models"
	"github.com/market-ar/market/internal/upload"
	"github.com/market-ar/market/pkg/ui"
)

func newUploadCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload an asset for an existing listing",
		Long: `Uploads an image or a 3D model for a listing and stores the URL the
backend returns on the local listing.`,
	}

	cmd.AddCommand(newUploadAssetCmd(a, "image"))
	cmd.AddCommand(newUploadAssetCmd(a, "model"))

	return cmd
}

func newUploadAssetCmd(a *app, kind string) *cobra.Command {
	return &cobra.Command{
		Use:   kind + " ID FILE",
		Short: "Upload the listing " + kind,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseListingID(args[0])
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			listing, err := store.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}

			uploader := upload.NewClient(a.api())
			var url string
			if kind == "image" {
				url, err = uploader.UploadImage(cmd.Context(), id, args[1])
			} else {
				url, err = uploader.UploadModel(cmd.Context(), id, args[1])
			}
			if err != nil {
				return err
			}

			if kind == "image" {
				listing.ImageURL = models.StringPtr(url)
			} else {
				listing.ModelURL = models.StringPtr(url)
			}
			if err := store.Update(cmd.Context(), *listing); err != nil {
				return fmt.Errorf("uploaded but failed to save %s url: %w", kind, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatSuccess(fmt.Sprintf("Uploaded %s for listing %d", kind, id)))
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}
