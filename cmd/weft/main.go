package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	prof "github.com/weft-dev/weft/cmd/weft/config/profiles"
	"github.com/weft-dev/weft/cmd/weft/rest"
)

var version = "0.1.0"

// Create the root command
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weft",
		Short: "Weft: declarative workflow builder for Argo-based orchestrators",
		Long:  "Weft compiles task/DAG descriptions into workflow manifests and submits them to a workflow server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("log", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	cmd.PersistentFlags().String("config", "", "profile store file (default: ~/.weft/profiles)")
	cmd.PersistentFlags().String("profile", "default", "profile to submit with")

	cmd.PersistentPreRun = func(c *cobra.Command, args []string) {
		levelStr, _ := c.Flags().GetString("log")
		switch levelStr {
		case "trace":
			zerolog.SetGlobalLevel(zerolog.TraceLevel)
		case "debug":
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		case "info":
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		case "warn":
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		case "error":
			zerolog.SetGlobalLevel(zerolog.ErrorLevel)
		case "fatal":
			zerolog.SetGlobalLevel(zerolog.FatalLevel)
		default:
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newSubmitCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newLintCmd())
	cmd.AddCommand(newRenderCmd())

	return cmd
}

// resolveProfile loads the profile named by the flags.
func resolveProfile(cmd *cobra.Command) (*prof.Profile, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configPath = filepath.Join(home, ".weft", "profiles")
	}

	store, err := prof.LoadProfileStore(configPath)
	if err != nil {
		return nil, err
	}

	profileName, _ := cmd.Flags().GetString("profile")
	return store.Get(profileName)
}

func resolveClient(cmd *cobra.Command) (rest.WorkflowClient, *prof.Profile, error) {
	profile, err := resolveProfile(cmd)
	if err != nil {
		return nil, nil, err
	}
	client, err := rest.NewClient(profile)
	if err != nil {
		return nil, nil, err
	}
	return client, profile, nil
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed")
	}
}
