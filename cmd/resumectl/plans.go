package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"socioscan-backend/internal/subscriptions"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List the subscription plan catalog",
	RunE:  runPlans,
}

var (
	plansFile string
	plansJSON bool
)

func init() {
	plansCmd.Flags().StringVar(&plansFile, "file", "", "Plan catalog YAML (defaults to PLANS_FILE, then the built-in catalog)")
	plansCmd.Flags().BoolVar(&plansJSON, "json", false, "Print JSON instead of a table")

	rootCmd.AddCommand(plansCmd)
}

func loadCatalog(path string) (subscriptions.Catalog, error) {
	if path == "" {
		return subscriptions.DefaultCatalog(), nil
	}
	return subscriptions.LoadCatalog(path)
}

func runPlans(cmd *cobra.Command, _ []string) error {
	path := plansFile
	if path == "" {
		path = envOr("PLANS_FILE", "")
	}
	catalog, err := loadCatalog(path)
	if err != nil {
		return err
	}
	if plansJSON {
		return writeJSON(cmd.OutOrStdout(), catalog.Plans)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tFEATURES")
	for _, p := range catalog.Plans {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.ID, p.Name, p.PriceLabel, len(p.Features))
	}
	return tw.Flush()
}
