package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/market-ar/market/internal/conversion"
	"github.com/market-ar/market/pkg/ui"
)

func newConvertCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert 3D models through the backend",
	}

	cmd.AddCommand(newConvertStep(a, "gltf-to-stl URL", "Download a hosted GLB and convert it to STL",
		func(c *conversion.Client, cmd *cobra.Command, arg string) (string, error) {
			return c.ConvertRemoteToSTL(cmd.Context(), arg)
		}))
	cmd.AddCommand(newConvertStep(a, "fbx-to-glb FILE", "Convert a local FBX file to GLB",
		func(c *conversion.Client, cmd *cobra.Command, arg string) (string, error) {
			return c.ConvertLocalFBXToGLB(cmd.Context(), arg)
		}))

	return cmd
}

type convertFunc func(c *conversion.Client, cmd *cobra.Command, arg string) (string, error)

func newConvertStep(a *app, use, short string, run convertFunc) *cobra.Command {
	var save string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := conversion.NewClient(a.api(), a.cfg.WorkDir)
			path, err := run(client, cmd, args[0])
			if err != nil {
				return err
			}

			if save != "" {
				if err := conversion.SaveAs(path, save); err != nil {
					return err
				}
				path = save
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatSuccess("Converted model saved to "+path))
			return nil
		},
	}

	cmd.Flags().StringVar(&save, "save", "", "Copy the converted file to this path")
	return cmd
}
