package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/doppel/internal/version"
	"github.com/arthur-debert/doppel/pkg/config"
	"github.com/arthur-debert/doppel/pkg/data"
	"github.com/arthur-debert/doppel/pkg/doppel"
	"github.com/arthur-debert/doppel/pkg/engines"
	"github.com/arthur-debert/doppel/pkg/filesystem"
	"github.com/arthur-debert/doppel/pkg/logging"
	"github.com/arthur-debert/doppel/pkg/ui"
)

type rootOptions struct {
	verbosity int
	engine    string
	extension string
	dataFile  string
	set       []string
	jobs      int
	sync      bool
	config    string
	format    string
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:     "doppel [flags] SOURCE DEST",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Example: MsgRootExample,
		Version: version.Version,
		Args:    cobra.MaximumNArgs(2),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Only the copy itself reads the config; subcommands must keep
			// working with a broken config file.
			console := cmd.ErrOrStderr()
			if cmd != cmd.Root() {
				logging.Setup(logging.Options{Verbosity: opts.verbosity, Console: console})
				log.Debug().Str("command", cmd.Name()).Msg("Command started")
				return nil
			}

			loaded, err := loadConfig(cmd, opts)
			if err != nil {
				logging.Setup(logging.Options{Verbosity: opts.verbosity, Console: console})
				return err
			}
			cfg = loaded

			logging.Setup(logging.Options{
				Verbosity: opts.verbosity,
				File:      cfg.Log.File,
				Console:   console,
			})
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Missing arguments are reported by path validation with their
			// own error codes.
			var src, dest string
			if len(args) > 0 {
				src = args[0]
			}
			if len(args) > 1 {
				dest = args[1]
			}
			return runCopy(cmd, cfg, opts, src, dest)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&opts.config, "config", "", MsgFlagConfig)
	rootCmd.PersistentFlags().StringVar(&opts.format, "format", "auto", MsgFlagFormat)

	// Copy flags
	rootCmd.Flags().StringVarP(&opts.engine, "engine", "e", "", MsgFlagEngine)
	rootCmd.Flags().StringVarP(&opts.extension, "extension", "x", "", MsgFlagExtension)
	rootCmd.Flags().StringVarP(&opts.dataFile, "data", "d", "", MsgFlagData)
	rootCmd.Flags().StringArrayVar(&opts.set, "set", nil, MsgFlagSet)
	rootCmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, MsgFlagJobs)
	rootCmd.Flags().BoolVar(&opts.sync, "sync", false, MsgFlagSync)

	_ = rootCmd.RegisterFlagCompletionFunc("engine", engineNamesCompletion)
	_ = rootCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return ui.FormatNames(), cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newEnginesCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newManCmd())

	if err := installTopics(rootCmd); err != nil {
		log.Warn().Err(err).Msg("help topics unavailable")
	}

	return rootCmd
}

// loadConfig layers the flags the user set over the file and env config.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	overrides := map[string]any{}
	if flags.Changed("engine") {
		overrides["engine"] = opts.engine
	}
	if flags.Changed("extension") {
		overrides["extension"] = opts.extension
	}
	if flags.Changed("data") {
		overrides["data"] = opts.dataFile
	}
	if flags.Changed("jobs") {
		overrides["jobs"] = opts.jobs
	}
	if flags.Changed("sync") {
		overrides["sync"] = opts.sync
	}

	return config.Load(config.LoadOptions{
		Path:      opts.config,
		Dir:       cwd,
		Overrides: overrides,
	})
}

func runCopy(cmd *cobra.Command, cfg *config.Config, opts *rootOptions, src, dest string) error {
	logger := logging.GetLogger("cli")

	values, err := interpolationData(cfg, opts.set)
	if err != nil {
		return err
	}

	d := doppel.New(doppel.WithJobs(cfg.Jobs))
	if cfg.Engine != "" {
		if err := d.Use(cfg.Engine, cfg.EngineOptions()); err != nil {
			return err
		}
	}

	logger.Info().
		Str("src", src).
		Str("dest", dest).
		Str("engine", cfg.Engine).
		Bool("sync", cfg.Sync).
		Msg("Starting copy")

	var result *doppel.Result
	if cfg.Sync {
		result, err = d.RunSync(src, dest, values)
	} else {
		result, err = d.Run(cmd.Context(), src, dest, values)
	}
	if err != nil {
		return err
	}

	renderer, err := newRenderer(opts.format, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	return renderer.RenderResult(result)
}

// interpolationData merges, in increasing precedence, the data file, the
// config values and --set assignments.
func interpolationData(cfg *config.Config, assignments []string) (map[string]any, error) {
	values := map[string]any{}
	if cfg.Data != "" {
		loaded, err := data.Load(filesystem.NewOS(), cfg.Data)
		if err != nil {
			return nil, err
		}
		values = loaded
	}

	values = data.Merge(values, cfg.Values)

	set, err := data.ParseAssignments(assignments)
	if err != nil {
		return nil, err
	}
	return data.Merge(values, set), nil
}

func newRenderer(format string, w io.Writer) (ui.Renderer, error) {
	f, err := ui.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return ui.NewRenderer(f, w)
}

func engineNamesCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return engines.Default().Names(), cobra.ShellCompDirectiveNoFileComp
}

func newEnginesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: MsgEnginesShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := engines.Default()

			var infos []ui.EngineInfo
			for _, name := range registry.Names() {
				engine, err := registry.Select(name, engines.Options{})
				if err != nil {
					return err
				}
				infos = append(infos, ui.EngineInfo{Name: name, Extension: engine.Extension()})
			}

			renderer, err := newRenderer(opts.format, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return renderer.RenderEngines(infos)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Long:  `Print detailed version information including commit hash and build date`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, MsgVersionFormat, version.Version)
			if version.Commit != "" {
				fmt.Fprintf(out, MsgCommitFormat, version.Commit)
			}
			if version.Date != "" {
				fmt.Fprintf(out, MsgBuiltFormat, version.Date)
			}
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(cmd.OutOrStdout(), true)
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
		},
	}
}

func newManCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "man",
		Short: MsgManShort,
		Long:  `Generate man pages for doppel and its subcommands`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(dir, filesystem.DirPerm); err != nil {
				return err
			}
			return doc.GenManTree(cmd.Root(), ManHeader(), dir)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", MsgFlagManDir)
	return cmd
}

// ManHeader is the header of every generated man page.
func ManHeader() *doc.GenManHeader {
	return &doc.GenManHeader{
		Title:   "DOPPEL",
		Section: "1",
		Source:  "doppel " + version.Version,
		Manual:  "doppel manual",
	}
}
