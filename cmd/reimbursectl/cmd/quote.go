package cmd

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/garyjia/fleet-reimbursement/internal/container"
	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a trip or fuel refill without recording it",
}

var quoteTripCmd = &cobra.Command{
	Use:   "trip",
	Short: "Price a trip distance",
	RunE:  runQuoteTrip,
}

var quoteFuelCmd = &cobra.Command{
	Use:   "fuel",
	Short: "Price a fuel refill from two odometer readings",
	RunE:  runQuoteFuel,
}

var (
	quoteCompany     int64
	quoteVehicleType string
	quoteDistance    string
	quoteExtra       string
	quoteOpening     int64
	quoteClosing     int64
)

func init() {
	quoteCmd.AddCommand(quoteTripCmd)
	quoteCmd.AddCommand(quoteFuelCmd)

	for _, c := range []*cobra.Command{quoteTripCmd, quoteFuelCmd} {
		c.Flags().Int64Var(&quoteCompany, "company", 0, "company ID [REQUIRED]")
		c.Flags().StringVar(&quoteVehicleType, "vehicle-type", "", "vehicle type (car, van, dyna, trailer) [REQUIRED]")
		_ = c.MarkFlagRequired("company")
		_ = c.MarkFlagRequired("vehicle-type")
	}

	quoteTripCmd.Flags().StringVar(&quoteDistance, "distance", "", "base distance in km [REQUIRED]")
	quoteTripCmd.Flags().StringVar(&quoteExtra, "extra", "0", "extra distance in km")
	_ = quoteTripCmd.MarkFlagRequired("distance")

	quoteFuelCmd.Flags().Int64Var(&quoteOpening, "opening", 0, "opening odometer reading")
	quoteFuelCmd.Flags().Int64Var(&quoteClosing, "closing", 0, "closing odometer reading [REQUIRED]")
	_ = quoteFuelCmd.MarkFlagRequired("closing")
}

func runQuoteTrip(cmd *cobra.Command, args []string) error {
	base, err := decimal.NewFromString(quoteDistance)
	if err != nil {
		return entity.NewValidationError("distance", "must be a number")
	}
	extra, err := decimal.NewFromString(quoteExtra)
	if err != nil {
		return entity.NewValidationError("extra", "must be a number")
	}

	return withContainer(cmd.Context(), func(app *container.Container) error {
		quote, err := app.Services().Rates.QuoteTrip(cmd.Context(), quoteCompany, entity.VehicleType(quoteVehicleType), base, extra)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), quote)
	})
}

func runQuoteFuel(cmd *cobra.Command, args []string) error {
	return withContainer(cmd.Context(), func(app *container.Container) error {
		quote, err := app.Services().Rates.QuoteFuel(cmd.Context(), quoteCompany, entity.VehicleType(quoteVehicleType), quoteOpening, quoteClosing)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), quote)
	})
}
