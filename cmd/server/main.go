// Command registros serves the records API over a single spreadsheet file.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JonMunkholm/registros/internal/config"
	"github.com/JonMunkholm/registros/internal/core"
	"github.com/JonMunkholm/registros/internal/logging"
	"github.com/JonMunkholm/registros/internal/workbook"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	rootCmd := &cobra.Command{
		Use:   "registros",
		Short: "CRUD API over a single Excel workbook",
		Long: `registros keeps a list of records in the first sheet of an .xlsx file
and exposes them over HTTP. Uploading a spreadsheet replaces the whole list.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	rootCmd.AddCommand(serveCmd(), importCmd(), exportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if core.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		}
		os.Exit(1)
	}
}

// setup loads configuration, installs the logger and opens the service.
func setup() (*config.Config, *core.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	store := workbook.NewStore(cfg.Storage.DataFile, cfg.Storage.Sheet)
	if cfg.Storage.CreateIfMissing {
		created, err := store.EnsureExists()
		if err != nil {
			return nil, nil, err
		}
		if created {
			slog.Info("created empty data file", "path", cfg.Storage.DataFile)
		}
	}

	service := core.NewService(store, core.Options{
		UploadDir:            cfg.Upload.Dir,
		MaxConcurrentUploads: cfg.Upload.MaxConcurrent,
		MaxUploadWait:        cfg.Upload.MaxWaitTime,
	})
	return cfg, service, nil
}
