package cmd

import (
	"time"

	"warcalendar/backend/internal/database"
	"warcalendar/backend/internal/seed"
	"warcalendar/backend/internal/store"

	"github.com/spf13/cobra"
)

var (
	seedFake     int
	seedFakeYear int
	seedFakeSeed int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the sample calendar into the database",
	Long: `Loads the sample calendar of holidays and anniversaries. Rewards and
countries are attached as tags. Events already present (by title) are skipped.
Use --fake to append randomly generated events as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if err := database.Connect(cfg, logger); err != nil {
			return err
		}
		defer database.Close()

		fixtures := append([]seed.Fixture{}, seed.Calendar...)
		if seedFake > 0 {
			fixtures = append(fixtures, seed.Fake(seedFake, seedFakeYear, seedFakeSeed)...)
		}

		loader := &seed.Loader{
			Tags:   store.NewTagStore(database.DB),
			Events: store.NewEventStore(database.DB),
		}
		n, err := loader.Load(cmd.Context(), fixtures)
		if err != nil {
			return err
		}
		logger.Info().Int("created", n).Int("skipped", len(fixtures)-n).Msg("loaded test data")
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedFake, "fake", 0, "number of random events to generate in addition to the sample calendar")
	seedCmd.Flags().IntVar(&seedFakeYear, "fake-year", time.Now().Year(), "year the random events fall in")
	seedCmd.Flags().Int64Var(&seedFakeSeed, "fake-seed", 1, "random seed for generated events")
}
