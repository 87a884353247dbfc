package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/envault/envault/internal/api"
	"github.com/envault/envault/internal/configs"
	"github.com/envault/envault/internal/keystore"
	logger "github.com/envault/envault/internal/logging"
	"github.com/envault/envault/internal/session"
	"github.com/envault/envault/internal/workflows"

	figure "github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	engine *workflows.Engine

	RootCmd = &cobra.Command{
		Use:   "envault",
		Short: "Envault - zero-knowledge secret management for your projects",
		Long: `Envault keeps project secrets encrypted end to end. Everything is
encrypted on your machine before it is sent anywhere; the service only
ever stores ciphertext and sealed keys.

Run 'envault help <command>' for details on a specific command.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			return initEngine()
		},
		Run: func(cmd *cobra.Command, args []string) {
			banner := figure.NewColorFigure("Envault", "alligator2", "green", true)
			banner.Print()
			fmt.Println("Run 'envault --help' to see available commands.")
		},
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	RootCmd.AddCommand(registerCmd)
	RootCmd.AddCommand(loginCmd)
	RootCmd.AddCommand(logoutCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(setCmd)
	RootCmd.AddCommand(getCmd)
	RootCmd.AddCommand(pushCmd)
	RootCmd.AddCommand(pullCmd)
	RootCmd.AddCommand(workspaceCmd)
}

// initEngine builds the workflow engine behind every command: config,
// OS keyring, session store, guard, and HTTP client.
func initEngine() error {
	userConfig, err := configs.LoadUserConfig()
	if err != nil {
		return err
	}

	ks, err := keystore.OpenSystem("envault", filepath.Join(configs.UserEnvaultSettings.UserConfigsPath, "keyring"))
	if err != nil {
		return fmt.Errorf("opening system keyring: %w", err)
	}

	sessions := session.NewStore(ks)
	client := api.NewHTTPClient(userConfig.BaseURL(), sessions.AccessToken)

	engine = &workflows.Engine{
		API:      client,
		Sessions: sessions,
		Guard:    session.NewGuard(sessions, client),
		Keys:     ks,
		Logger:   Logger,
	}
	return nil
}

// ResetGlobalState resets command globals between test runs.
func ResetGlobalState() {
	verbose = false
	debug = false
	engine = nil
	resetFlagState(RootCmd)
}

func resetFlagState(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
	})
	for _, sub := range cmd.Commands() {
		resetFlagState(sub)
	}
}
