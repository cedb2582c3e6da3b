package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/market-ar/market/internal/recap"
	"github.com/market-ar/market/pkg/ui"
)

func newRecapCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recap",
		Short: "Reconstruct 3D models from photo sets",
		Long: `Drives the photogrammetry workflow of the backend: create a photoscene,
upload photos in batches, start processing and poll until the
reconstruction is done.

Polling checks every 5 seconds by default (recap.poll_interval) and gives up
after recap.max_poll_attempts checks. Ctrl+C stops it.`,
	}

	cmd.AddCommand(newRecapRunCmd(a))
	cmd.AddCommand(newRecapCreateCmd(a))
	cmd.AddCommand(newRecapUploadCmd(a))
	cmd.AddCommand(newRecapProgressCmd(a))
	cmd.AddCommand(newRecapResultCmd(a))

	return cmd
}

// newWorkflow builds a workflow from config with flag overrides applied
func (a *app) newWorkflow(out io.Writer, batchSize int, format string) *recap.Workflow {
	opts := a.cfg.RecapOptions()
	if batchSize > 0 {
		opts.BatchSize = batchSize
	}
	if format != "" {
		opts.ResultFormat = format
	}

	wf := recap.NewWorkflow(recap.NewClient(a.api()), opts)
	wf.Subscribe(recap.ObserverFuncs{
		Progress: func(s recap.Snapshot) {
			line := fmt.Sprintf("Progress: %s", orDash(s.Progress))
			if s.Message != "" {
				line += " " + ui.FormatMuted("("+s.Message+")")
			}
			fmt.Fprintln(out, ui.FormatInfo(line))
		},
	})
	return wf
}

func newRecapRunCmd(a *app) *cobra.Command {
	var name, photosDir, format, downloadDir string
	var batchSize int
	var copyLink bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Create a scene, upload photos and wait for the reconstruction",
		Example: `  # Reconstruct a chair from the photos in ./chair and save the FBX
  market recap run --name chair --photos ./chair --download ./out

  # Smaller batches, OBJ result, link copied to the clipboard
  market recap run --name chair --photos ./chair --batch-size 5 --format obj --copy`,
		RunE: func(cmd *cobra.Command, args []string) error {
			photos, err := recap.CollectPhotos(photosDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			wf := a.newWorkflow(out, batchSize, format)
			fmt.Fprintln(out, ui.FormatTitle(fmt.Sprintf("Reconstructing %q from %d photos", name, len(photos))))

			session, err := wf.Run(cmd.Context(), name, photos)
			if err != nil {
				var batchErr *recap.BatchError
				if errors.As(err, &batchErr) {
					fmt.Fprintln(out, ui.FormatWarning(fmt.Sprintf("%d of %d photos were uploaded before the failure", batchErr.Uploaded, len(photos))))
				}
				if session != nil && session.ID != "" {
					fmt.Fprintln(out, ui.FormatMuted("Scene ID: "+session.ID))
				}
				return err
			}

			return reportResult(cmd, wf, session.DownloadURL(), downloadDir, copyLink)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Scene name")
	cmd.Flags().StringVar(&photosDir, "photos", "", "Directory of JPEG photos")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Photos per upload request (defaults to config)")
	cmd.Flags().StringVar(&format, "format", "", "Result format, e.g. fbx or obj (defaults to config)")
	cmd.Flags().StringVar(&downloadDir, "download", "", "Download the result into this directory")
	cmd.Flags().BoolVar(&copyLink, "copy", false, "Copy the result link to the clipboard")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("photos")

	return cmd
}

func newRecapCreateCmd(a *app) *cobra.Command {
	var name, sceneFormat string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a photoscene and print its id",
		RunE: func(cmd *cobra.Command, args []string) error {
			wf := a.newWorkflow(cmd.OutOrStdout(), 0, "")
			session, err := wf.CreatePhotoscene(cmd.Context(), name, sceneFormat)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), session.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Scene name")
	cmd.Flags().StringVar(&sceneFormat, "scene-format", "", "Scene format (defaults to config)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newRecapUploadCmd(a *app) *cobra.Command {
	var photosDir string
	var batchSize int

	cmd := &cobra.Command{
		Use:   "upload SCENE_ID",
		Short: "Upload photos to an existing photoscene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			photos, err := recap.CollectPhotos(photosDir)
			if err != nil {
				return err
			}
			wf := a.newWorkflow(cmd.OutOrStdout(), batchSize, "")
			wf.Attach(args[0])
			if err := wf.UploadPhotosInBatches(cmd.Context(), photos, batchSize); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatSuccess(fmt.Sprintf("Uploaded %d photos", len(photos))))
			return nil
		},
	}

	cmd.Flags().StringVar(&photosDir, "photos", "", "Directory of JPEG photos")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Photos per upload request (defaults to config)")
	_ = cmd.MarkFlagRequired("photos")

	return cmd
}

func newRecapProgressCmd(a *app) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "progress SCENE_ID",
		Short: "Check the progress of a photoscene",
		Long: `Checks the progress of a photoscene once. With --wait the scene is sent
for processing and polled until the reconstruction is done.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			wf := a.newWorkflow(out, 0, "")
			wf.Attach(args[0])

			if wait {
				link, err := wf.GetProgress(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, ui.FormatSuccess("Reconstruction finished"))
				fmt.Fprintln(out, link)
				return nil
			}

			snap := wf.PollProgress(cmd.Context())
			if snap == nil {
				return fmt.Errorf("failed to get progress for scene %s", args[0])
			}
			fmt.Fprintln(out, ui.RenderKeyValue("Scene", snap.SceneID, 10))
			fmt.Fprintln(out, ui.RenderKeyValue("Progress", orDash(snap.Progress), 10))
			if snap.Message != "" {
				fmt.Fprintln(out, ui.RenderKeyValue("Message", snap.Message, 10))
			}
			if snap.SceneLink != "" {
				fmt.Fprintln(out, ui.RenderKeyValue("Link", snap.SceneLink, 10))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Process the scene and poll until done")
	return cmd
}

func newRecapResultCmd(a *app) *cobra.Command {
	var format, downloadDir string
	var copyLink bool

	cmd := &cobra.Command{
		Use:   "result SCENE_ID",
		Short: "Fetch the result link of a finished photoscene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf := a.newWorkflow(cmd.OutOrStdout(), 0, format)
			wf.Attach(args[0])
			link, err := wf.FetchResult(cmd.Context())
			if err != nil {
				return err
			}
			return reportResult(cmd, wf, link, downloadDir, copyLink)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Result format, e.g. fbx or obj (defaults to config)")
	cmd.Flags().StringVar(&downloadDir, "download", "", "Download the result into this directory")
	cmd.Flags().BoolVar(&copyLink, "copy", false, "Copy the result link to the clipboard")
	return cmd
}

func reportResult(cmd *cobra.Command, wf *recap.Workflow, link, downloadDir string, copyLink bool) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.FormatSuccess("Reconstruction ready"))
	fmt.Fprintln(out, link)

	if copyLink {
		// Try to write to clipboard (non-blocking if fails)
		if err := clipboard.WriteAll(link); err != nil {
			fmt.Fprintln(out, ui.FormatMuted("(Clipboard access failed, please copy manually)"))
		} else {
			fmt.Fprintln(out, ui.FormatMuted("(Copied to clipboard)"))
		}
	}

	if downloadDir != "" {
		path, err := wf.DownloadResult(cmd.Context(), downloadDir)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.FormatSuccess("Saved result to "+path))
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
