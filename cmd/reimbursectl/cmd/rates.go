package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/garyjia/fleet-reimbursement/internal/container"
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Manage company rate configurations",
}

var ratesImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Load trip and fuel bands from a workbook",
	Long: `Read the "Trip Rates" and "Fuel Rates" sheets of an xlsx workbook and
store them as the company's configuration. An existing configuration has
all of its bands replaced in one transaction.`,
	RunE: runRatesImport,
}

var ratesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the rate configuration of a company",
	RunE:  runRatesShow,
}

var ratesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the rate configuration of a company to a workbook",
	RunE:  runRatesExport,
}

var (
	ratesCompany int64
	ratesFile    string
	ratesName    string
	ratesOut     string
)

func init() {
	ratesCmd.AddCommand(ratesImportCmd)
	ratesCmd.AddCommand(ratesShowCmd)
	ratesCmd.AddCommand(ratesExportCmd)

	for _, c := range []*cobra.Command{ratesImportCmd, ratesShowCmd, ratesExportCmd} {
		c.Flags().Int64Var(&ratesCompany, "company", 0, "company ID [REQUIRED]")
		_ = c.MarkFlagRequired("company")
	}

	ratesImportCmd.Flags().StringVarP(&ratesFile, "file", "f", "", "workbook to import [REQUIRED]")
	ratesImportCmd.Flags().StringVar(&ratesName, "name", "", "configuration name for a new configuration")
	_ = ratesImportCmd.MarkFlagRequired("file")

	ratesExportCmd.Flags().StringVarP(&ratesOut, "out", "o", "", "destination workbook [REQUIRED]")
	_ = ratesExportCmd.MarkFlagRequired("out")
}

func runRatesImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(ratesFile)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	name := ratesName
	if name == "" {
		name = fmt.Sprintf("Company %d rates", ratesCompany)
	}

	return withContainer(cmd.Context(), func(app *container.Container) error {
		cfg, err := app.Services().Rates.ImportWorkbook(cmd.Context(), ratesCompany, name, f)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), cfg)
	})
}

func runRatesShow(cmd *cobra.Command, args []string) error {
	return withContainer(cmd.Context(), func(app *container.Container) error {
		cfg, err := app.Services().Rates.GetConfiguration(cmd.Context(), ratesCompany)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), cfg)
	})
}

func runRatesExport(cmd *cobra.Command, args []string) error {
	return withContainer(cmd.Context(), func(app *container.Container) error {
		f, err := os.Create(ratesOut)
		if err != nil {
			return fmt.Errorf("create workbook: %w", err)
		}
		if err := app.Services().Rates.ExportWorkbook(cmd.Context(), ratesCompany, f); err != nil {
			f.Close()
			_ = os.Remove(ratesOut)
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close workbook: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", ratesOut)
		return nil
	})
}
