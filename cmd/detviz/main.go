package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ironsheep/detection-log-viz/internal/config"
	"github.com/ironsheep/detection-log-viz/internal/logging"
	"github.com/ironsheep/detection-log-viz/internal/logparse"
	"github.com/ironsheep/detection-log-viz/internal/pipeline"
	"github.com/ironsheep/detection-log-viz/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func newFlagSet(stderr io.Writer) *pflag.FlagSet {
	flags := pflag.NewFlagSet("detviz", pflag.ContinueOnError)
	flags.SetOutput(stderr)

	flags.String("config", "", "Config file (yaml, toml or json)")
	flags.String("images", "", "Directory holding the images named in the log")
	flags.String("out", "", "Directory for annotated pictures")
	flags.String("format", "", "Output format: png, jpeg or bmp")
	flags.Float64("model-width", 0, "Model input width the boxes refer to")
	flags.Float64("model-height", 0, "Model input height the boxes refer to")
	flags.StringSlice("palette", nil, "Box colors, cycled in detection order")
	flags.Int("max-edge", 0, "Shrink output so neither side exceeds this many pixels")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.BoolP("version", "v", false, "Print version information")
	flags.BoolP("help", "h", false, "Print this help message")

	return flags
}

func printUsage(w io.Writer, flags *pflag.FlagSet) {
	fmt.Fprintln(w, "detviz - draw object detection logs onto their images")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  detviz [options] [LOGFILE|-]   Render every image in the log")
	fmt.Fprintln(w, "  detviz [options] serve         Run the MCP server on stdin/stdout")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The log is read from stdin when LOGFILE is - or omitted.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprint(w, flags.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintln(w, "  DETVIZ_IMAGE_DIRECTORY, DETVIZ_MODEL_WIDTH, DETVIZ_LOG_LEVEL, ...")
	fmt.Fprintln(w, "  A .env file in the working directory is loaded first.")
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := newFlagSet(stderr)
	if err := flags.Parse(args); err != nil {
		return 2
	}

	if v, _ := flags.GetBool("version"); v {
		fmt.Fprintf(stdout, "detviz %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		return 0
	}
	if h, _ := flags.GetBool("help"); h {
		printUsage(stdout, flags)
		return 0
	}

	rest := flags.Args()
	if len(rest) > 1 {
		fmt.Fprintln(stderr, "detviz: expected at most one argument")
		printUsage(stderr, flags)
		return 2
	}

	configPath, _ := flags.GetString("config")
	cfg, err := config.Load(configPath, flags)
	if err != nil {
		fmt.Fprintf(stderr, "detviz: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(stderr, "detviz: %v\n", err)
		return 1
	}
	defer logging.Sync(logger)

	if len(rest) == 1 && rest[0] == "serve" {
		server.Version = Version
		logger.Debug("starting MCP server",
			zap.String("version", Version),
			zap.String("build_time", BuildTime),
			zap.String("commit", GitCommit))
		if err := server.New(cfg, logger).Run(stdin, stdout); err != nil {
			logger.Error("server error", zap.Error(err))
			return 1
		}
		return 0
	}

	logPath := "-"
	if len(rest) == 1 {
		logPath = rest[0]
	}
	return render(cfg, logger, logPath, stdin, stdout)
}

func render(cfg *config.Config, logger *zap.Logger, logPath string, stdin io.Reader, stdout io.Writer) int {
	result, err := readLog(logPath, stdin)
	if err != nil {
		logger.Error("failed to read log", zap.String("path", logPath), zap.Error(err))
		return 1
	}

	format, err := cfg.Format()
	if err != nil {
		logger.Error("invalid output format", zap.Error(err))
		return 1
	}

	driver, err := pipeline.FromConfig(cfg, pipeline.FileOutput(cfg.OutputDirectory, format, cfg.OutputMaxEdge), logger)
	if err != nil {
		logger.Error("invalid render settings", zap.Error(err))
		return 1
	}

	summary := driver.Run(result)
	for _, r := range summary.Rendered {
		fmt.Fprintln(stdout, pipeline.OutputPath(cfg.OutputDirectory, r.Image, format))
	}
	return 0
}

func readLog(path string, stdin io.Reader) (*logparse.Result, error) {
	if path == "-" {
		return logparse.ParseReader(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return logparse.ParseReader(f)
}
