// analyticsctl 离线分析命令行：直接读取数据目录或 SQLite 快照并输出报表
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/retailmind/backend/internal/application/dashboard"
	"github.com/retailmind/backend/internal/application/upload"
	"github.com/retailmind/backend/internal/infrastructure/config"
	"github.com/retailmind/backend/internal/infrastructure/dataset"
	applog "github.com/retailmind/backend/internal/infrastructure/log"
	"github.com/retailmind/backend/internal/infrastructure/tokenizer"
	"github.com/spf13/cobra"
)

var version = "dev"

// options 全局参数
type options struct {
	dataDir    string
	snapshotDB string
	jsonOutput bool
	verbose    bool
}

// services 一次命令执行所需的服务，数据集已加载
type services struct {
	store     *dataset.MemoryStore
	dashboard *dashboard.Service
	upload    *upload.Service
}

func main() {
	initLogging(false)
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "analyticsctl",
		Short:         "Offline reports over RetailMind conversation data",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				initLogging(true)
			}
		},
	}

	cfg := config.NewConfig()
	rootCmd.PersistentFlags().StringVarP(&opts.dataDir, "data-dir", "d", cfg.Dataset.Dir, "Directory containing dashboard_turns.jsonl and friends")
	rootCmd.PersistentFlags().StringVar(&opts.snapshotDB, "snapshot-db", cfg.Dataset.SnapshotDB, "Read from a SQLite snapshot instead of the data directory")
	rootCmd.PersistentFlags().BoolVarP(&opts.jsonOutput, "json", "j", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log loader progress to stderr")

	rootCmd.AddCommand(
		newOverviewCmd(opts),
		newRankTopicsCmd(opts),
		newSeverityCmd(opts),
		newTopConversationsCmd(opts),
		newSuccessTopicsCmd(opts),
		newPatternsCmd(opts),
		newThemeCmd(opts),
		newUploadCmd(opts),
		newSnapshotCmd(opts),
	)
	return rootCmd
}

// initLogging 日志写到 stderr，避免污染报表输出
func initLogging(verbose bool) {
	applog.Init(applog.NewCLIConfig(verbose))
}

// load 按全局参数加载数据集
func (o *options) load(ctx context.Context) (*services, error) {
	datasetCfg := &config.DatasetConfig{
		Dir:        o.dataDir,
		SnapshotDB: o.snapshotDB,
	}

	store := dataset.NewMemoryStore()
	dashboardService := dashboard.NewService(store, dataset.NewLoader(datasetCfg), nil, datasetCfg)
	if _, err := dashboardService.Reload(ctx); err != nil {
		return nil, err
	}

	return &services{
		store:     store,
		dashboard: dashboardService,
		upload:    upload.NewService(store, tokenizer.NewCounter(), nil, &config.UploadConfig{}),
	}, nil
}
