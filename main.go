package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/pwells-dev/auris/internal/config"
	"github.com/pwells-dev/auris/internal/controller"
	"github.com/pwells-dev/auris/internal/library"
	"github.com/pwells-dev/auris/internal/logger"
	"github.com/pwells-dev/auris/internal/player"
	"github.com/pwells-dev/auris/internal/queue"
	"github.com/pwells-dev/auris/internal/stats"
	"github.com/pwells-dev/auris/internal/ui"
	"github.com/pwells-dev/auris/internal/visualizer"
)

func main() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Path:       cfg.LogPath,
		Level:      cfg.LogLevel,
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 14,
	})
	defer logger.Sync()
	log := logger.L()

	blobs, err := openBlobStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	lib, err := library.Open(cfg.CatalogPath, blobs, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening library: %v\n", err)
		os.Exit(1)
	}

	// Optional argument: import a file or scan a directory before starting.
	if len(os.Args) > 1 {
		if err := handleArg(lib, os.Args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if added, err := lib.ScanDir(cfg.LibraryDir); err != nil {
		log.Warn("library scan failed", zap.String("dir", cfg.LibraryDir), zap.Error(err))
	} else if added > 0 {
		log.Info("library scan", zap.String("dir", cfg.LibraryDir), zap.Int("added", added))
	}

	engine := player.NewEngine(log)
	defer engine.Close()

	analyzer := visualizer.NewAnalyzer()
	engine.SetTap(analyzer)

	recorder := stats.NewFileRecorder(cfg.StatsPath)
	ctrl := controller.New(engine, queue.NewManager(), lib, recorder, log)

	model := ui.New(ctrl, analyzer, lib, engine.Events(), cfg.VisualizerFPS)
	program := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openBlobStore(cfg config.Config) (library.BlobStore, error) {
	if cfg.MinioEndpoint != "" {
		return library.NewMinioBlobStore(context.Background(), library.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	}
	return library.NewDirBlobStore(filepath.Join(cfg.DataDir, "audio"))
}

func handleArg(lib *library.Store, arg string) error {
	info, err := os.Stat(arg)
	if err != nil {
		return err
	}
	if info.IsDir() {
		added, err := lib.ScanDir(arg)
		if err != nil {
			return err
		}
		logger.L().Info("scanned directory", zap.String("dir", arg), zap.Int("added", added))
		return nil
	}
	_, err = lib.ImportFile(context.Background(), arg)
	return err
}
