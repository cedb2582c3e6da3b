package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/market-ar/market/internal/appraisal"
	"github.com/market-ar/market/internal/listings"
	"github.com/market-ar/market/internal/models"
	"github.com/market-ar/market/internal/snapshot"
	"github.com/market-ar/market/internal/upload"
	"github.com/market-ar/market/pkg/ui"
)

func newListingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "listings",
		Aliases: []string{"ls"},
		Short:   "Browse and manage furniture listings",
	}

	cmd.AddCommand(newListingsListCmd(a))
	cmd.AddCommand(newListingsShowCmd(a))
	cmd.AddCommand(newListingsCreateCmd(a))
	cmd.AddCommand(newListingsDeleteCmd(a))
	cmd.AddCommand(newListingsSeedCmd(a))
	cmd.AddCommand(newListingsExportCmd(a))
	cmd.AddCommand(newListingsImportCmd(a))
	cmd.AddCommand(newListingsSuggestCmd(a))

	return cmd
}

func newListingsListCmd(a *app) *cobra.Command {
	var category, condition, sort, output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List listings, optionally filtered and sorted by price",
		Example: `  # Every used desk, cheapest first
  market listings list --category desks --condition used --sort asc

  # Machine readable
  market listings list --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var q listings.Query
			if category != "" {
				c, err := models.ParseCategory(category)
				if err != nil {
					return err
				}
				q.Category = &c
			}
			if condition != "" {
				c, err := models.ParseCondition(condition)
				if err != nil {
					return err
				}
				q.Condition = &c
			}
			order, err := listings.ParseSortOrder(sort)
			if err != nil {
				return err
			}
			q.Sort = order

			store, err := a.openStore()
			if err != nil {
				return err
			}
			list, err := listings.NewQueryService(store).Browse(cmd.Context(), q)
			if err != nil {
				return err
			}
			return writeListings(cmd.OutOrStdout(), output, list)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Filter by category ("+models.JoinNames(models.Categories)+")")
	cmd.Flags().StringVar(&condition, "condition", "", "Filter by condition ("+models.JoinNames(models.Conditions)+")")
	cmd.Flags().StringVar(&sort, "sort", "", "Sort by price (asc or desc)")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")

	return cmd
}

func newListingsShowCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a single listing",
		Args:  cobra.ExactArgs(1),
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

			out := cmd.OutOrStdout()
			if output != "table" {
				return encode(out, output, listing)
			}
			fmt.Fprintln(out, ui.FormatTitle(listing.ProductName))
			for _, kv := range [][2]string{
				{"ID", strconv.FormatInt(listing.ID, 10)},
				{"Category", listing.Category.Label()},
				{"Condition", listing.Condition.String()},
				{"Price", formatPrice(listing.Price)},
				{"Image", orMuted(listing.ImageURL)},
				{"Model", orMuted(listing.ModelURL)},
			} {
				fmt.Fprintln(out, ui.RenderKeyValue(kv[0], kv[1], 10))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")
	return cmd
}

func newListingsCreateCmd(a *app) *cobra.Command {
	var req listings.CreateRequest
	var category, condition string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a listing and upload its image and 3D model",
		Long: `Creates a listing in the local catalog, then uploads the image and the
3D model to the backend and stores the returned URLs on the listing.

If either upload fails the listing is removed again.`,
		Example: `  market listings create --name "Oak table" --category tables \
    --condition used --price 149.50 --image table.jpg --model table.glb`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.Category, err = models.ParseCategory(category); err != nil {
				return err
			}
			if req.Condition, err = models.ParseCondition(condition); err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			creator := listings.NewCreator(store, upload.NewClient(a.api()))
			listing, err := creator.Create(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatSuccess(fmt.Sprintf("Created listing %d: %s", listing.ID, listing.ProductName)))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.ProductName, "name", "", "Product name")
	cmd.Flags().StringVar(&category, "category", "", "Category ("+models.JoinNames(models.Categories)+")")
	cmd.Flags().StringVar(&condition, "condition", "", "Condition ("+models.JoinNames(models.Conditions)+")")
	cmd.Flags().Float64Var(&req.Price, "price", 0, "Price")
	cmd.Flags().StringVar(&req.ImagePath, "image", "", "Path to the listing image")
	cmd.Flags().StringVar(&req.ModelPath, "model", "", "Path to the listing 3D model")
	for _, name := range []string{"name", "category", "condition", "price", "image", "model"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newListingsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a listing",
		Args:  cobra.ExactArgs(1),
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
			if err := store.Delete(cmd.Context(), *listing); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatSuccess("Deleted "+listing.ProductName))
			return nil
		},
	}
}

func newListingsSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo furniture catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			seeded, err := listings.SeedCatalog(cmd.Context(), store)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatSuccess(fmt.Sprintf("Seeded %d listings", len(seeded))))
			return nil
		},
	}
}

func newListingsExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE",
		Short: "Write every listing to a parquet or JSONL snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			n, err := snapshot.Export(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatSuccess(fmt.Sprintf("Exported %d listings to %s", n, args[0])))
			return nil
		},
	}
}

func newListingsImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Insert the listings of a snapshot as new listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			imported, err := snapshot.Import(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatSuccess(fmt.Sprintf("Imported %d listings", len(imported))))
			return nil
		},
	}
}

func newListingsSuggestCmd(a *app) *cobra.Command {
	var description, imagePath, provider, model, output string

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Draft listing fields from a description using an LLM",
		Example: `  market listings suggest --description "solid pine bunk bed, a few scratches"
  market listings suggest --description "armchair" --image chair.jpg --provider gemini`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if provider == "" {
				provider = a.cfg.Provider
			}
			p, defaultModel, err := appraisal.NewProvider(provider)
			if err != nil {
				return err
			}
			if model == "" {
				model = a.cfg.Model
			}
			if model == "" {
				model = defaultModel
			}

			suggestion, err := appraisal.NewService(p, model).Suggest(cmd.Context(), description, imagePath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output != "table" {
				return encode(out, output, suggestion)
			}
			fmt.Fprintln(out, ui.FormatTitle("Suggested listing"))
			fmt.Fprintln(out, ui.RenderKeyValue("Name", suggestion.ProductName, 10))
			fmt.Fprintln(out, ui.RenderKeyValue("Category", suggestion.Category.String(), 10))
			fmt.Fprintln(out, ui.RenderKeyValue("Condition", suggestion.Condition.String(), 10))
			fmt.Fprintln(out, ui.RenderKeyValue("Price", formatPrice(suggestion.Price), 10))
			if suggestion.Notes != "" {
				fmt.Fprintln(out, ui.FormatMuted(suggestion.Notes))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Free-text description of the item")
	cmd.Flags().StringVar(&imagePath, "image", "", "Optional photo of the item")
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider (ollama, openai, or gemini)")
	cmd.Flags().StringVar(&model, "model", "", "Model name (defaults to provider's default)")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")
	_ = cmd.MarkFlagRequired("description")

	return cmd
}

func parseListingID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid listing id %q", s)
	}
	return id, nil
}

func writeListings(w io.Writer, format string, list []models.Listing) error {
	if format != "table" {
		if list == nil {
			list = []models.Listing{}
		}
		return encode(w, format, list)
	}
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, ui.FormatMuted("No listings found"))
		return err
	}

	t := ui.NewTable([]ui.TableColumn{
		{Header: "ID", Width: 4, Align: ui.AlignRight},
		{Header: "PRODUCT", Width: 24},
		{Header: "CATEGORY", Width: 10},
		{Header: "CONDITION", Width: 9},
		{Header: "PRICE", Width: 10, Align: ui.AlignRight},
		{Header: "ASSETS", Width: 6},
	})
	for _, l := range list {
		assets := "-"
		if l.HasAssets() {
			assets = "yes"
		}
		t.AddRow(strconv.FormatInt(l.ID, 10), l.ProductName, l.Category.Label(), l.Condition.String(), formatPrice(l.Price), assets)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// encode writes v as json or yaml
func encode(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func formatPrice(p float64) string {
	return fmt.Sprintf("$%.2f", p)
}

func orMuted(s *string) string {
	if s == nil {
		return ui.FormatMuted("none")
	}
	return *s
}
