// Package main provides the voc-reval binary.
// It re-scores saved VOC detection results at IoU thresholds 0.50 to 0.95.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nvr-ai/voc-reval/config"
	"github.com/nvr-ai/voc-reval/evaluator"
	"github.com/nvr-ai/voc-reval/logger"
	"github.com/nvr-ai/voc-reval/report"
	"github.com/nvr-ai/voc-reval/reval"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var errUsage = errors.New("no arguments given")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voc-reval output_dir",
		Short: "Re-evaluate VOC detections over IoU thresholds 0.50:0.95",
		Long: `voc-reval reads comp4_det_<image_set>_<class>.txt files from output_dir,
scores every class at IoU thresholds 0.50, 0.55, ..., 0.95 and prints the
per-threshold mean AP followed by the overall mAP.

Examples:
  voc-reval results/yolo
  voc-reval results/yolo --voc_dir /data/VOCdevkit --year 2012 --image_set val
  voc-reval results/yolo --giou_metric --workers 8`,
		Args: func(cmd *cobra.Command, args []string) error {
			return printUsageError(cmd, cobra.MaximumNArgs(1)(cmd, args))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && cmd.Flags().NFlag() == 0 {
				_ = cmd.Usage()
				return errUsage
			}
			return run(cmd, args, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(printUsageError)

	flags := cmd.Flags()
	flags.String("voc_dir", config.DefaultVOCDir, "VOCdevkit root")
	flags.Int("year", config.DefaultYear, "dataset year; years before 2010 use the 11-point metric")
	flags.String("image_set", config.DefaultImageSet, "image set name")
	flags.String("classes", config.DefaultClasses, "class list file, one name per line")
	flags.Bool("giou_metric", false, "match detections with GIoU instead of IoU")
	flags.StringP("config", "c", "", "YAML config file")
	flags.String("env_file", ".env", "dotenv file")
	flags.Int("workers", config.DefaultWorkers, "classes evaluated concurrently")
	flags.String("log_level", config.DefaultLogLevel, "log level")
	flags.String("log_file", "", "also write logs to this rotating file")
	flags.Bool("summary", true, "write reval_summary JSON and CSV files")

	return cmd
}

func run(cmd *cobra.Command, args []string, stdout, stderr io.Writer) error {
	configPath, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env_file")

	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		logrus.WithError(err).Error("failed to load config")
		return err
	}
	if len(args) == 1 {
		cfg.OutputDir = args[0]
	}
	applyFlags(cmd, cfg)

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile, Output: stderr})
	if err != nil {
		logrus.WithError(err).Error("failed to create logger")
		return err
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("invalid configuration")
		return err
	}

	printer := report.NewPrinter(stdout, cfg.GIoU, evaluator.Use11Point(cfg.Year))
	sweeper := reval.NewSweeper(reval.NewSweeperArgs{
		Options:   cfg.Options(),
		Evaluator: evaluator.NewVOC(log),
		Sink:      report.NewArtifactWriter(),
		Reporter:  printer,
		Logger:    log,
	})

	summary, err := sweeper.Run(cmd.Context())
	if err != nil {
		log.WithError(err).Error("re-evaluation failed")
		return err
	}
	if err := printer.Err(); err != nil {
		log.WithError(err).Error("failed to print results")
		return err
	}

	if cfg.Summary {
		outputDir, err := filepath.Abs(cfg.OutputDir)
		if err != nil {
			log.WithError(err).Error("failed to resolve output directory")
			return errors.Wrap(err, "resolve output directory")
		}
		jsonPath, csvPath, err := report.NewSummaryWriter(outputDir).Save(*summary)
		if err != nil {
			log.WithError(err).Error("failed to save summary")
			return err
		}
		log.WithFields(logger.Fields{
			"json": jsonPath,
			"csv":  csvPath,
		}).Info("summary saved")
	}
	return nil
}

// printUsageError reports argument and flag errors, which are raised before run
// and its logger exist.
func printUsageError(cmd *cobra.Command, err error) error {
	if err != nil {
		cmd.PrintErrf("Error: %v\nRun '%s --help' for usage.\n", err, cmd.CommandPath())
	}
	return err
}

// applyFlags overrides cfg with every flag set on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("voc_dir") {
		cfg.VOCDir, _ = flags.GetString("voc_dir")
	}
	if flags.Changed("year") {
		cfg.Year, _ = flags.GetInt("year")
	}
	if flags.Changed("image_set") {
		cfg.ImageSet, _ = flags.GetString("image_set")
	}
	if flags.Changed("classes") {
		cfg.Classes, _ = flags.GetString("classes")
	}
	if flags.Changed("giou_metric") {
		cfg.GIoU, _ = flags.GetBool("giou_metric")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("log_level") {
		cfg.LogLevel, _ = flags.GetString("log_level")
	}
	if flags.Changed("log_file") {
		cfg.LogFile, _ = flags.GetString("log_file")
	}
	if flags.Changed("summary") {
		cfg.Summary, _ = flags.GetBool("summary")
	}
}
