package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/app"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/config"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

// Settings shared with the server. Flags, mvctl.yaml and the server's env
// variables all resolve to the same keys.
var sharedKeys = []string{
	"app-env",
	"app-url",
	"jwt-secret",
	"db-driver",
	"db-connection",
	"storage-driver",
	"upload-dir",
	"redis-url",
	"meili-url",
	"meili-api-key",
	"chrome-path",
}

func Root() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "mvctl",
		Short:        "MindVault admin tools",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.InitCLI(verbose)
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
	flags.String("db-driver", "", "database driver: sqlite or pgx (env DB_DRIVER)")
	flags.String("db-connection", "", "database connection string (env DB_CONNECTION)")
	flags.String("meili-url", "", "Meilisearch URL (env MEILI_URL)")

	root.AddCommand(MigrateCmd())
	root.AddCommand(QuotesCmd())
	root.AddCommand(SearchCmd())
	root.AddCommand(ExportCmd())
	root.AddCommand(MCPCmd())
	return root
}

// loadConfig resolves flags, env and an optional mvctl.yaml through viper and
// hands the result to the server's config loader.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	v.SetConfigName("mvctl")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home + "/.config/mindvault")
	}

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// The CLI never issues sessions, so the server's required settings get
	// harmless defaults here.
	v.SetDefault("app-env", "development")
	v.SetDefault("app-url", "http://localhost:5000")
	v.SetDefault("jwt-secret", "mvctl-offline")

	err = v.BindPFlags(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	for _, key := range sharedKeys {
		value := v.GetString(key)
		if value == "" {
			continue
		}
		env := strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		err := os.Setenv(env, value)
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", env, err)
		}
	}

	return config.Load(), nil
}

// withApp runs fn against a fully wired application.
func withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := a.Close()
		if closeErr != nil {
			fmt.Fprintln(os.Stderr, "close:", closeErr)
		}
	}()

	return fn(a)
}
