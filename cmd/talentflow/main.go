package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"talentflow/internal/app"
	"talentflow/internal/blob"
	"talentflow/internal/config"
	"talentflow/internal/model"
)

func main() {
	if err := app.LoadEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a TalentFlowApp. The caller must
// defer app.Close().
func newApp(cmd *cobra.Command, operation string) (*app.TalentFlowApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	a, err := app.NewTalentFlowApp(cmd.Context(), cfg, operation, level)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:          "talentflow",
	Short:        "TalentFlow hiring data store and mock API",
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

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:     %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:      %s\n", cfg.LogDir)
		fmt.Printf("Database:     %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Blob Store:   %s\n", cfg.Blob.Type)
		fmt.Printf("Encryption:   %t\n", cfg.Encryption.Enabled)
		fmt.Printf("Gateway:      %s (%s mode, fault rate %.2f)\n", cfg.Gateway.Addr, cfg.Gateway.Mode, cfg.Gateway.FaultRate)
		fmt.Printf("Seed:         %d jobs, %d candidates, %d assessments\n", cfg.Seed.Jobs, cfg.Seed.Candidates, cfg.Seed.Assessments)
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage blob encryption keys",
}

var configKeysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the age key pair named in the config",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		if err := blob.GenerateKeys(cfg.Encryption.PublicKeyPath, cfg.Encryption.PrivateKeyPath); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}
		fmt.Printf("Public key:  %s\n", cfg.Encryption.PublicKeyPath)
		fmt.Printf("Private key: %s\n", cfg.Encryption.PrivateKeyPath)
		if !cfg.Encryption.Enabled {
			fmt.Println("Set encryption.enabled = true to encrypt blobs with these keys.")
		}
		return nil
	},
}

// seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill an empty store with demo data",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Seed")
		if err != nil {
			return err
		}
		defer a.Close()

		seeded, err := a.Seed(cmd.Context())
		if err != nil {
			return a.Operation().Fail(fmt.Errorf("seeding: %w", err))
		}
		if !seeded {
			fmt.Println("Store already has users; nothing seeded.")
			return nil
		}
		fmt.Println("Store seeded.")
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the API gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		gin.SetMode(gin.ReleaseMode)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(cmd, "Serve")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Operation().Fail(a.Serve(ctx))
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every collection to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		a, err := newApp(cmd, "Export")
		if err != nil {
			return err
		}
		defer a.Close()

		snap, err := a.Export(cmd.Context())
		if err != nil {
			return a.Operation().Fail(err)
		}
		return writeSnapshot(os.Stdout, snap, format)
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Load a snapshot written by export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening snapshot: %w", err)
		}
		defer f.Close()
		snap, err := readSnapshot(f, format)
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "Import")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Import(cmd.Context(), snap); err != nil {
			return a.Operation().Fail(fmt.Errorf("importing: %w", err))
		}
		fmt.Printf("Imported %d users, %d jobs, %d candidates, %d assessments\n",
			len(snap.Users), len(snap.Jobs), len(snap.Candidates), len(snap.Assessments))
		return nil
	},
}

func writeSnapshot(w io.Writer, snap *model.Snapshot, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}

func readSnapshot(r io.Reader, format string) (*model.Snapshot, error) {
	var snap model.Snapshot
	switch format {
	case "json":
		if err := json.NewDecoder(r).Decode(&snap); err != nil {
			return nil, fmt.Errorf("decoding json snapshot: %w", err)
		}
	case "yaml":
		if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
			return nil, fmt.Errorf("decoding yaml snapshot: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
	return &snap, nil
}

// users command
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage accounts",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ListUsers")
		if err != nil {
			return err
		}
		defer a.Close()

		users, err := a.Users(cmd.Context())
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("No users.")
			return nil
		}
		for _, u := range users {
			fmt.Printf("#%d  %-10s  %-30s  %s\n", u.ID, u.Role, u.Email, u.Name)
		}
		return nil
	},
}

var usersSignupCmd = &cobra.Command{
	Use:   "signup EMAIL NAME",
	Short: "Create an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")

		fmt.Print("Password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		password := strings.TrimSpace(string(raw))

		a, err := newApp(cmd, "Signup")
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.Signup(cmd.Context(), args[0], password, args[1], model.Role(role))
		if err != nil {
			return a.Operation().Fail(err)
		}
		fmt.Printf("Created %s #%d (%s)\n", user.Role, user.ID, user.Email)
		return nil
	},
}

// submissions command
var submissionsCmd = &cobra.Command{
	Use:   "submissions [KEY]",
	Short: "List raw assessment submissions, or print one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Submissions")
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 1 {
			return a.ReadSubmission(cmd.Context(), args[0], os.Stdout)
		}
		keys, err := a.Submissions(cmd.Context())
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			fmt.Println("No submissions.")
		}
		for _, k := range keys {
			fmt.Println(k)
		}
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup PATH",
	Short: "Copy the store database to PATH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Backup")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Backup(args[0]); err != nil {
			return a.Operation().Fail(fmt.Errorf("backup failed: %w", err))
		}
		fmt.Printf("Backed up to %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug records")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configKeysCmd)
	configKeysCmd.AddCommand(configKeysInitCmd)

	// users subcommands
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersSignupCmd)
	usersSignupCmd.Flags().String("role", string(model.RoleRecruiter), "recruiter or applicant")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("format", "f", "json", "json or yaml")
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringP("format", "f", "json", "json or yaml")
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(submissionsCmd)
	rootCmd.AddCommand(backupCmd)
}
