package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"plantmanager/internal/app"
	"plantmanager/internal/catalog"
	"plantmanager/internal/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a PMApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "AddReminder").
func newApp(ctx context.Context, operation string, args []string) (*app.PMApp, error) {
	cfg, _, err := readConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewPMApp(ctx, cfg, operation, strings.Join(args, " "))
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func readConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults["config_path"], nil
}

var rootCmd = &cobra.Command{
	Use:          "plantmanager",
	Short:        "Houseplant watering reminders",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		deviceID := uuid.New().String()
		cfg := config.NewConfig(deviceID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Device ID: %s\n", deviceID)
		fmt.Printf("Base Dir:  %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := readConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Device ID:  %s\n", cfg.DeviceID)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Storage:    %s\n", cfg.Storage.Type)
		fmt.Printf("Database:   %s\n", cfg.Database.Type)
		fmt.Printf("Catalog:    %s\n", cfg.Catalog.BaseURL)
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that the configured storage is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "CheckStorage", args)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.CheckStorage(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Storage OK")
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys",
}

var configKeysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the age key pair used to encrypt reminders",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := readConfig()
		if err != nil {
			return err
		}

		passphrase, err := app.ReadNewPassphrase(os.Stdin, os.Stderr)
		if err != nil {
			return err
		}
		if err := app.SetupKeys(cfg.Encryption, passphrase); err != nil {
			return err
		}

		fmt.Printf("Public key:  %s\n", cfg.Encryption.PublicKeyPath)
		fmt.Printf("Private key: %s\n", cfg.Encryption.PrivateKeyPath)
		if cfg.Encryption.Type != "age" {
			fmt.Println(`Set type = "age" in the [encryption] section to encrypt stored reminders.`)
		}
		return nil
	},
}

// catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse the plant catalog",
}

var catalogEnvironmentsCmd = &cobra.Command{
	Use:   "environments",
	Short: "List environments plants can be filtered by",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "ListEnvironments", args)
		if err != nil {
			return err
		}
		defer a.Close()

		envs, err := a.ListEnvironments(cmd.Context())
		if err != nil {
			return err
		}
		for _, e := range envs {
			fmt.Printf("%-15s  %s\n", e.Key, e.Title)
		}
		return nil
	},
}

var catalogPlantsCmd = &cobra.Command{
	Use:   "plants",
	Short: "List plants in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		environment, _ := cmd.Flags().GetString("environment")
		all, _ := cmd.Flags().GetBool("all")

		a, err := newApp(cmd.Context(), "ListPlants", args)
		if err != nil {
			return err
		}
		defer a.Close()

		var plants []catalog.Plant
		if all {
			ps, err := a.ListAllPlants(cmd.Context(), environment)
			if err != nil {
				return err
			}
			plants = ps
		} else {
			ps, err := a.ListPlants(cmd.Context(), page, environment)
			if err != nil {
				return err
			}
			plants = ps
		}

		if len(plants) == 0 {
			fmt.Println("No plants found.")
			return nil
		}
		for _, p := range plants {
			fmt.Printf("%-6s  %-20s  %d/%s  %s\n",
				p.ID,
				p.Name,
				p.Frequency.Times,
				p.Frequency.RepeatEvery,
				strings.Join(p.Environments, ","),
			)
		}
		return nil
	},
}

// reminder command
var reminderCmd = &cobra.Command{
	Use:   "reminder",
	Short: "Manage watering reminders",
}

var reminderAddCmd = &cobra.Command{
	Use:   "add PLANT_ID",
	Short: "Save a watering reminder for a catalog plant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, _ := cmd.Flags().GetString("at")

		a, err := newApp(cmd.Context(), "AddReminder", []string{args[0], at})
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.AddReminder(cmd.Context(), args[0], at)
		if err != nil {
			return err
		}
		fmt.Printf("Reminder saved for %s: next on %s at %s\n",
			rec.Name, rec.NextNotificationAt.Format("2006-01-02"), rec.Hour)
		return nil
	},
}

var reminderListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved reminders, soonest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		environment, _ := cmd.Flags().GetString("environment")

		a, err := newApp(cmd.Context(), "ListReminders", args)
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.ListReminders(cmd.Context())
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No reminders saved.")
			return nil
		}
		for _, r := range records {
			if environment != "" && environment != catalog.AllEnvironments && !r.HasEnvironment(environment) {
				continue
			}
			fmt.Printf("%-6s  %-20s  %s  %s\n", r.ID, r.Name, r.NextNotificationAt.Format("2006-01-02"), r.Hour)
		}
		return nil
	},
}

var reminderShowCmd = &cobra.Command{
	Use:   "show PLANT_ID",
	Short: "Show a saved reminder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "GetReminder", args)
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.GetReminder(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Plant:        %s (%s)\n", r.Name, r.ID)
		fmt.Printf("Next:         %s at %s\n", r.NextNotificationAt.Format("2006-01-02"), r.Hour)
		fmt.Printf("Frequency:    %d per %s\n", r.Frequency.Times, r.Frequency.RepeatEvery)
		fmt.Printf("Environments: %s\n", strings.Join(r.Environments, ", "))
		if r.WaterTips != "" {
			fmt.Printf("Water tips:   %s\n", r.WaterTips)
		}
		if r.About != "" {
			fmt.Printf("About:        %s\n", r.About)
		}
		return nil
	},
}

var reminderRemoveCmd = &cobra.Command{
	Use:   "remove PLANT_ID",
	Short: "Remove a reminder and cancel its notification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "RemoveReminder", args)
		if err != nil {
			return err
		}
		defer a.Close()

		removed, err := a.RemoveReminder(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !removed {
			fmt.Printf("No reminder for %s.\n", args[0])
			return nil
		}
		fmt.Printf("Removed reminder for %s.\n", args[0])
		return nil
	},
}

// notify command
var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Deliver scheduled notifications",
}

var notifyRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Deliver every notification that is due (run from cron)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "DispatchNotifications", args)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.DispatchNotifications(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Delivered %d notification(s)\n", n)
		return nil
	},
}

var notifyPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List notifications waiting for delivery",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "PendingNotifications", args)
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.PendingNotifications(cmd.Context())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No pending notifications.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %-6s  %s\n", e.DeliverAt.Local().Format("2006-01-02 15:04"), e.PlantID, e.Message)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configCheckCmd)
	configCmd.AddCommand(configKeysCmd)
	configKeysCmd.AddCommand(configKeysInitCmd)

	// catalog subcommands
	catalogCmd.AddCommand(catalogEnvironmentsCmd)
	catalogCmd.AddCommand(catalogPlantsCmd)
	catalogPlantsCmd.Flags().IntP("page", "p", 1, "Catalog page to show")
	catalogPlantsCmd.Flags().StringP("environment", "e", "all", "Only show plants for this environment")
	catalogPlantsCmd.Flags().Bool("all", false, "Fetch every page")

	// reminder subcommands
	reminderCmd.AddCommand(reminderAddCmd)
	reminderAddCmd.Flags().String("at", "", "Reminder time of day (HH:MM)")
	reminderAddCmd.MarkFlagRequired("at")
	reminderCmd.AddCommand(reminderListCmd)
	reminderListCmd.Flags().StringP("environment", "e", "", "Only show reminders for this environment")
	reminderCmd.AddCommand(reminderShowCmd)
	reminderCmd.AddCommand(reminderRemoveCmd)

	// notify subcommands
	notifyCmd.AddCommand(notifyRunCmd)
	notifyCmd.AddCommand(notifyPendingCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(reminderCmd)
	rootCmd.AddCommand(notifyCmd)
}
