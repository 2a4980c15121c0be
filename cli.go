package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/anthonyesau/blender-custom-tools/config"
	"github.com/anthonyesau/blender-custom-tools/ops"
	"github.com/anthonyesau/blender-custom-tools/scene"
	"github.com/anthonyesau/blender-custom-tools/web"
)

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

func newRootCommand() *cobra.Command {
	var verbose bool
	var configPath string

	root := &cobra.Command{
		Use:          "parenttools",
		Short:        "Parent inverse and driver tools for animated scenes",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			config.Set(cfg)

			level := cfg.LogLevel()
			if verbose {
				level = log.DebugLevel
			}
			logger := newLogger(cmd.ErrOrStderr(), level)
			log.SetDefault(logger)
			cmd.SetContext(ops.WithLogger(cmd.Context(), logger))
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultFileName, "config file")

	for _, op := range ops.Operators() {
		root.AddCommand(newOperatorCommand(op))
	}
	root.AddCommand(newInfoCommand())
	root.AddCommand(newDumpCommand())
	root.AddCommand(newConvertCommand())
	root.AddCommand(newServeCommand())

	root.SetContext(context.Background())
	return root
}

func loadScene(path string) (*scene.Scene, error) {
	format, err := scene.FormatFromName(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := scene.Load(f, format)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to load %q", path)
	}
	if s.FPS == scene.DefaultFPS {
		s.FPS = config.Get().Scene.FPS
	}
	return s, nil
}

// saveScene writes the whole file only after the scene was encoded
func saveScene(s *scene.Scene, path string) error {
	format, err := scene.FormatFromName(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := s.Save(&buf, format); err != nil {
		return errors.Wrapf(err, "Failed to save %q", path)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func newOperatorCommand(op ops.Operator) *cobra.Command {
	var selected []string
	var active, output string
	var conversionLog bool

	cmd := &cobra.Command{
		// object.neutralize_parent_inverse -> neutralize-parent-inverse
		Use:   commandName(op.IDName()) + " <scene>",
		Short: op.Description(),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadScene(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("select") {
				if err := s.Select(selected...); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("active") {
				if err := s.SetActive(active); err != nil {
					return err
				}
			}

			ctx := ops.WithConversionLog(cmd.Context(), conversionLog || config.Get().Log.Conversion)
			report := op.Execute(ctx, s)
			printReport(cmd.OutOrStdout(), op, report)
			if report.Status == ops.StatusCancelled {
				return errors.Errorf("%s cancelled: %s", op.Label(), report.Error)
			}

			if output == "" {
				output = args[0]
			}
			if err := saveScene(s, output); err != nil {
				return err
			}
			if n := report.Failed(); n != 0 {
				return errors.Errorf("%d of %d objects failed", n, len(report.Objects))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&selected, "select", nil, "objects to select instead of the selection stored in the scene")
	cmd.Flags().StringVar(&active, "active", "", "active object instead of the one stored in the scene")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output scene file, the input file is overwritten by default")
	cmd.Flags().BoolVar(&conversionLog, "log-conversion", false, "log per frame values of converted keyframes at debug level")
	return cmd
}

func commandName(idname string) string {
	if _, name, found := strings.Cut(idname, "."); found {
		idname = name
	}
	return strings.ReplaceAll(idname, "_", "-")
}

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <scene>",
		Short: "List the objects of a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadScene(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printInfo(w, "%s: %d objects, frame %v at %v fps", args[0], len(s.Objects()), s.FrameCurrent, s.FPS)
			if _, err := io.WriteString(w, sceneTable(s)+"\n"); err != nil {
				return err
			}
			return nil
		},
	}
}

func newDumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <scene>",
		Short: "Dump the scene model for debugging",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadScene(args[0])
			if err != nil {
				return err
			}
			return s.Save(cmd.OutOrStdout(), scene.FormatDump)
		},
	}
}

func newConvertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a scene between yaml, gltf and glb",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadScene(args[0])
			if err != nil {
				return err
			}
			if err := saveScene(s, args[1]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "%s -> %s", args[0], args[1])
			return nil
		},
	}
}

func newServeCommand() *cobra.Command {
	var addr, webPath string

	cmd := &cobra.Command{
		Use:   "serve [scene]",
		Short: "Serve a scene and the operators over http",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Server.Addr
			}
			if !cmd.Flags().Changed("web") {
				webPath = cfg.Server.WebPath
			}

			path := cfg.Server.Scene
			if len(args) != 0 {
				path = args[0]
			}
			var s *scene.Scene
			if path != "" {
				var err error
				if s, err = loadScene(path); err != nil {
					return err
				}
			}

			srv := web.NewServer(s, web.Options{
				WebPath:       webPath,
				ConversionLog: cfg.Log.Conversion,
				Logger:        ops.LoggerFromContext(cmd.Context()),
			})
			return web.StartServer(addr, srv)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "i", ":8000", "address of server")
	cmd.Flags().StringVar(&webPath, "web", "", "directory with static files")
	return cmd
}
