// Command cilmeta inspects and rewrites ECMA-335 metadata.
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/cilmeta"
	"github.com/wippyai/cilmeta/assembly"
	"github.com/wippyai/cilmeta/config"
)

type app struct {
	cfg    *config.Config
	log    *zap.Logger
	config string
	level  string
}

func main() {
	a := &app{}
	if err := a.rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cilmeta",
		Short: "Inspect and rewrite .NET metadata",
		Long: `cilmeta reads the metadata root of a .NET image, resolves its tables
and writes it back with edits applied.

Files may be a bare metadata root or any image embedding one; the first
BSJB signature found is used.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.config, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.level, "log-level", "", "override logging.level")

	root.AddCommand(
		a.inspectCmd(),
		a.dumpCmd(),
		a.roundtripCmd(),
		a.renameCmd(),
		a.browseCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg := config.DefaultConfig()
	if a.config != "" {
		var err error
		if cfg, err = config.Load(a.config); err != nil {
			return err
		}
	}
	if a.level != "" {
		cfg.Logging.Level = a.level
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log

	cilmeta.SetLogger(log)
	return nil
}

func newLogger(l config.Logging) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if l.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

var signature = []byte("BSJB")

// metadataRoot returns the metadata root embedded in data.
func metadataRoot(data []byte) ([]byte, error) {
	i := bytes.Index(data, signature)
	if i < 0 {
		return nil, fmt.Errorf("no metadata root signature found")
	}
	return data[i:], nil
}

func loadFile(path string) (*assembly.Assembly, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	md, err := metadataRoot(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return assembly.Load(md)
}
