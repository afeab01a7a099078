package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"gallery-go/internal/app"
	"gallery-go/internal/config"
	"gallery-go/internal/dataurl"
	"gallery-go/internal/gallery"
	"gallery-go/internal/pricing"
)

// EnvPassphrase supplies the key passphrase when stdin is not a terminal.
const EnvPassphrase = "GALLERY_PASSPHRASE"

var verbose bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a GalleryApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "AddVideo", "BackupDB").
func newApp(operation string) (*app.GalleryApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewGalleryApp(cfg, operation, verbose)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	if !a.Persistent() && cfg.Database.Type != "memory" {
		fmt.Fprintln(os.Stderr, "warning: database unavailable, changes in this run will not be saved")
	}
	return a, nil
}

// operationName builds an operation name such as "AddVideo" from a verb and kind.
func operationName(verb string, kind gallery.Kind) string {
	k := []rune(string(kind))
	k[0] = unicode.ToUpper(k[0])
	return verb + string(k)
}

// readPassphrase prompts on the terminal without echo, or reads
// GALLERY_PASSPHRASE (then one line of stdin) when stdin is not a terminal.
func readPassphrase(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		if p := os.Getenv(EnvPassphrase); p != "" {
			return p, nil
		}
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

var rootCmd = &cobra.Command{
	Use:          "gallery",
	Short:        "Local store for generated media",
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
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Database:   %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		for _, kind := range gallery.Kinds {
			cc := cfg.Storage.For(string(kind)).WithDefaults()
			fmt.Printf("Storage:    %-5s max=%d warn=%d page=%d\n", kind, cc.MaxSize, cc.WarningThreshold, cc.PageSize)
		}
		fmt.Printf("Archive:    %s\n", describeArchive(cfg.Archive))
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		return nil
	},
}

func describeArchive(a config.ArchiveConfig) string {
	switch a.Type {
	case "filesystem":
		return "filesystem " + a.FSRoot
	case "s3":
		s := fmt.Sprintf("s3 bucket=%s prefix=%s region=%s", a.S3Bucket, a.S3Prefix, a.S3Region)
		if a.S3Endpoint != "" {
			s += " endpoint=" + a.S3Endpoint
		}
		return s
	case "":
		return "none"
	default:
		return a.Type
	}
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage archive encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the archive encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SetupKeys")
		if err != nil {
			return err
		}
		defer a.Close()

		if a.KeysConfigured() {
			return fmt.Errorf("encryption keys already exist")
		}

		passphrase, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}
		if term.IsTerminal(int(os.Stdin.Fd())) {
			confirm, err := readPassphrase("Confirm passphrase: ")
			if err != nil {
				return err
			}
			if confirm != passphrase {
				return fmt.Errorf("passphrases do not match")
			}
		}

		if err := a.SetupKeys(passphrase); err != nil {
			return err
		}
		fmt.Println("Encryption keys created.")
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Maintain the gallery database",
}

var dbCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the database schema is current",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("CheckDB")
		if err != nil {
			return err
		}
		defer a.Close()

		version, err := a.CheckDB()
		if err != nil {
			return err
		}
		fmt.Printf("Schema version %d, up to date.\n", version)
		return nil
	},
}

var dbBackupCmd = &cobra.Command{
	Use:   "backup DEST",
	Short: "Write a copy of the database to DEST",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("BackupDB")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.BackupDB(args[0]); err != nil {
			return err
		}
		fmt.Printf("Database backed up to %s\n", args[0])
		return nil
	},
}

// archive command
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Access evicted artifacts",
}

var archiveGetCmd = &cobra.Command{
	Use:   "get KIND ID",
	Short: "Retrieve an evicted artifact",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := gallery.ParseKind(args[0])
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("output")

		a, err := newApp("ArchiveGet")
		if err != nil {
			return err
		}
		defer a.Close()

		var passphrase string
		if a.ArchiveEncrypted() {
			passphrase, err = readPassphrase("Passphrase: ")
			if err != nil {
				return err
			}
		}

		doc, err := a.ArchiveGet(cmd.Context(), kind, args[1], passphrase)
		if err != nil {
			return err
		}

		art := doc.Artifact()
		fmt.Printf("%s  %s  archived %s\n", art.ID, art.CreatedAt().Format("2006-01-02 15:04:05"), doc.ArchivedTime().Format("2006-01-02 15:04:05"))
		fmt.Printf("Prompt: %s\n", art.Prompt)
		if p := formatParams(art.Params); p != "" {
			fmt.Printf("Params: %s\n", p)
		}

		if out == "" {
			return nil
		}
		mimeType, data, err := dataurl.Decode(art.Payload)
		if err != nil {
			return fmt.Errorf("decoding archived payload: %w", err)
		}
		if err := os.WriteFile(out, data, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Printf("Wrote %s (%s, %d bytes)\n", out, mimeType, len(data))
		return nil
	},
}

var archiveCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the archive backend is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ArchiveCheck")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ArchiveCheck(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Archive OK.")
		return nil
	},
}

// newKindCmd builds the command group for one collection.
func newKindCmd(kind gallery.Kind) *cobra.Command {
	kindCmd := &cobra.Command{
		Use:   string(kind),
		Short: fmt.Sprintf("Manage generated %ss", kind),
	}

	addCmd := &cobra.Command{
		Use:   "add FILE",
		Short: fmt.Sprintf("Store a %s file", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, _ := cmd.Flags().GetString("prompt")
			params := paramsFromFlags(cmd, kind)

			a, err := newApp(operationName("Add", kind))
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Add(cmd.Context(), kind, args[0], prompt, params)
			if err != nil {
				return err
			}

			fmt.Printf("Stored %s %s (%s, %s)\n", kind, res.ID, res.MIMEType, formatBytes(res.Size))
			if res.Evicted > 0 {
				fmt.Printf("Evicted %d older %s(s) to stay under the storage limit.\n", res.Evicted, kind)
			}
			if res.Status != nil {
				printStatus(res.Status)
			}
			return nil
		},
	}
	addCmd.Flags().StringP("prompt", "p", "", "Prompt the media was generated from")
	addCmd.Flags().String("model", "", "Generation model")
	addCmd.Flags().String("resolution", "", "Resolution or image size, e.g. 1280x720")
	if kind == gallery.KindVideo {
		addCmd.Flags().Int("duration", 0, "Clip length in seconds")
	} else {
		addCmd.Flags().String("quality", "", "Image quality (low, medium, high)")
	}
	addCmd.MarkFlagRequired("prompt")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List stored %ss, newest first", kind),
		RunE: func(cmd *cobra.Command, args []string) error {
			pages, _ := cmd.Flags().GetInt("pages")

			a, err := newApp(operationName("List", kind))
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.List(cmd.Context(), kind, pages)
			if err != nil {
				return err
			}

			if len(view.Artifacts) == 0 {
				fmt.Printf("No %ss stored.\n", kind)
				return nil
			}

			pricer := pricing.ForKind(kind)
			for _, art := range view.Artifacts {
				fmt.Printf("%s  %s  $%.3f  %-9s  %s\n",
					art.ID,
					art.CreatedAt().Format("2006-01-02 15:04:05"),
					pricer.Price(art.Params),
					formatBytes(dataurl.EstimateSize(art.Payload)),
					truncate(art.Prompt, 60),
				)
			}
			fmt.Printf("\nShowing %d of %d, total cost $%.2f\n", len(view.Artifacts), view.Total, view.TotalCost)
			if view.Status != nil {
				printStatus(view.Status)
			}
			return nil
		},
	}
	listCmd.Flags().IntP("pages", "n", 1, "Number of pages to load")

	rmCmd := &cobra.Command{
		Use:   "rm ID",
		Short: fmt.Sprintf("Delete a %s", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(operationName("Delete", kind))
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Delete(cmd.Context(), kind, args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s %s\n", kind, args[0])
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: fmt.Sprintf("Delete every stored %s", kind),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(operationName("Clear", kind))
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Clear(cmd.Context(), kind); err != nil {
				return err
			}
			fmt.Printf("Cleared all %ss.\n", kind)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: fmt.Sprintf("Show %s storage usage", kind),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(operationName("Status", kind))
			if err != nil {
				return err
			}
			defer a.Close()

			status, limits, err := a.Status(cmd.Context(), kind)
			if err != nil {
				return err
			}
			printStatus(status)
			fmt.Printf("Limit %s, warning at %s\n", formatBytes(limits.MaxSize), formatBytes(limits.WarningThreshold))
			return nil
		},
	}

	kindCmd.AddCommand(addCmd, listCmd, rmCmd, clearCmd, statusCmd)
	return kindCmd
}

// paramsFromFlags collects the generation params set on the command line.
// Unset flags stay absent.
func paramsFromFlags(cmd *cobra.Command, kind gallery.Kind) gallery.Params {
	var p gallery.Params
	flags := cmd.Flags()
	if flags.Changed("model") {
		v, _ := flags.GetString("model")
		p.Model = gallery.Some(v)
	}
	if flags.Changed("resolution") {
		v, _ := flags.GetString("resolution")
		p.Resolution = gallery.Some(v)
	}
	if kind == gallery.KindVideo && flags.Changed("duration") {
		v, _ := flags.GetInt("duration")
		p.Duration = gallery.Some(v)
	}
	if kind == gallery.KindImage && flags.Changed("quality") {
		v, _ := flags.GetString("quality")
		p.Quality = gallery.Some(v)
	}
	return p
}

func printStatus(s *gallery.StorageStatus) {
	flag := ""
	switch {
	case s.OverLimit:
		flag = "  [over limit]"
	case s.NearLimit:
		flag = "  [near limit]"
	}
	fmt.Printf("Storage: %.2f MB (%.2f%%)%s\n", s.SizeMB, s.Percentage, flag)
}

func formatParams(p gallery.Params) string {
	var parts []string
	if v, ok := p.Model.Get(); ok {
		parts = append(parts, "model="+v)
	}
	if v, ok := p.Resolution.Get(); ok {
		parts = append(parts, "resolution="+v)
	}
	if v, ok := p.Duration.Get(); ok {
		parts = append(parts, fmt.Sprintf("duration=%ds", v))
	}
	if v, ok := p.Quality.Get(); ok {
		parts = append(parts, "quality="+v)
	}
	return strings.Join(parts, " ")
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs on stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	keysCmd.AddCommand(keysInitCmd)

	dbCmd.AddCommand(dbCheckCmd)
	dbCmd.AddCommand(dbBackupCmd)

	archiveCmd.AddCommand(archiveGetCmd)
	archiveCmd.AddCommand(archiveCheckCmd)
	archiveGetCmd.Flags().StringP("output", "o", "", "Write the decoded media to FILE")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(archiveCmd)
	for _, kind := range gallery.Kinds {
		rootCmd.AddCommand(newKindCmd(kind))
	}
}
