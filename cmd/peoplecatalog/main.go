package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"peoplecatalog/internal/api/client"
	"peoplecatalog/internal/api/persons"
	"peoplecatalog/internal/config"
	"peoplecatalog/internal/logging"
	"peoplecatalog/internal/version"
)

var logger *logging.Logger

func initLogger(cfg *config.Config) {
	logConfig := &logging.LogConfig{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
	}

	if err := logging.InitLogger(logConfig); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger = logging.GetGlobalLogger()
}

var rootCmd = &cobra.Command{
	Use:   "peoplecatalog",
	Short: "People Catalog CLI - browse and manage person records",
	Long: `People Catalog CLI lists, searches, paginates, creates, edits and
soft-deletes person records through the People Catalog REST API.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
	},
}

// loadConfig loads configuration and wires logging; every command
// starts here.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	initLogger(cfg)
	return cfg
}

// newPersonsClient builds the resource client over the HTTP adapter.
func newPersonsClient(cfg *config.Config) *persons.Client {
	httpClient := client.New(cfg.APIBaseURL, cfg.APITimeout())
	return persons.NewClient(httpClient)
}

// fail prints a classified error message and exits. The command layer
// is the presentation boundary, so classification happens here and
// nowhere below.
func fail(action string, err error) {
	classified := client.Classify(err)
	fmt.Printf("%s failed: %s\n", action, classified.Message)
	logger.Error("%s failed: %v", action, err)
	os.Exit(1)
}

func main() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(serveMockCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
