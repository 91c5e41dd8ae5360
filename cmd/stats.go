package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/swwwjjw/barometer-pulkovo/internal/dashboard"
	"github.com/swwwjjw/barometer-pulkovo/internal/store"
)

const PromptGlobal = "Все вакансии"

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print statistics of a role or of all vacancies as JSON",
	Run: func(cmd *cobra.Command, _ []string) {
		printStats(cmd)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	addStatsFlags(statsCmd)
}

func addStatsFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("role", "r", -1, "role index, see the roles command")
	cmd.Flags().String("ids", "", "comma separated professional role ids of a configured role")
	cmd.Flags().BoolP("global", "g", false, "statistics over all vacancies")
	cmd.Flags().Bool("no-filter", false, "do not filter salary outliers")
	cmd.Flags().Float64("multiplier", 0, "upper outlier multiplier (default from config)")
	cmd.Flags().Float64("low-divisor", 0, "lower outlier divisor for global statistics, 0 disables the lower bound (default from config)")
}

// statsRequest is what the flags (or the prompt) asked for.
type statsRequest struct {
	global  bool
	query   dashboard.RoleQuery
	filter  bool
	high    float64
	divisor *float64
}

func printStats(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	req, err := statsRequestFromFlags(cmd, config)
	if err != nil {
		logger.Fatal("parsing flags", zap.Error(err))
	}

	st, err := store.Open(config.Data)
	if err != nil {
		logger.Fatal("opening storage", zap.Error(err))
	}
	defer st.Close()

	svc, err := newDashboard(ctx, config, st, logger)
	if err != nil {
		logger.Fatal("loading vacancies", zap.Error(err))
	}

	if !req.global && req.query.Index == nil && len(req.query.IDs) == 0 {
		if err := promptSelection(svc, req); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	var payload *dashboard.StatsPayload
	if req.global {
		payload, err = svc.QueryGlobal(ctx, dashboard.GlobalOptions{FilterOutliers: req.filter, HighMultiplier: req.high, LowDivisor: req.divisor})
	} else {
		payload, err = svc.QueryRole(ctx, req.query, dashboard.RoleOptions{FilterOutliers: req.filter, Multiplier: req.high})
	}
	if err != nil {
		logger.Fatal("computing statistics", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		logger.Fatal("printing statistics", zap.Error(err))
	}
}

func statsRequestFromFlags(cmd *cobra.Command, config *Config) (*statsRequest, error) {
	flags := cmd.Flags()

	req := &statsRequest{filter: config.Outliers.Enabled}

	req.global, _ = flags.GetBool("global")
	if noFilter, _ := flags.GetBool("no-filter"); noFilter {
		req.filter = false
	}
	req.high, _ = flags.GetFloat64("multiplier")
	if flags.Changed("low-divisor") {
		divisor, _ := flags.GetFloat64("low-divisor")
		req.divisor = &divisor
	}

	index, _ := flags.GetInt("role")
	ids, _ := flags.GetString("ids")

	selectors := 0
	if req.global {
		selectors++
	}
	if flags.Changed("role") {
		selectors++
		req.query.Index = &index
	}
	if ids != "" {
		selectors++
		req.query.IDs = dashboard.ParseIDs(ids)
	}
	if selectors > 1 {
		return nil, fmt.Errorf("%w: use only one of --role, --ids and --global", dashboard.ErrInvalidParameter)
	}

	return req, nil
}

// promptSelection asks for the global view or one role interactively.
func promptSelection(svc *dashboard.Service, req *statsRequest) error {
	items := append([]string{PromptGlobal}, svc.Catalog().Names()...)

	prompt := promptui.Select{
		Label: "Choose a role and press ENTER",
		Items: items,
		Size:  len(items),
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return err
	}

	if idx == 0 {
		req.global = true
		return nil
	}

	role := idx - 1
	req.query.Index = &role
	return nil
}
