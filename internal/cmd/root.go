package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mangiee/restaurant-cli/internal/api"
	"github.com/mangiee/restaurant-cli/internal/config"
	"github.com/mangiee/restaurant-cli/internal/debug"
	"github.com/mangiee/restaurant-cli/internal/dryrun"
	"github.com/mangiee/restaurant-cli/internal/iocontext"
	"github.com/mangiee/restaurant-cli/internal/outfmt"
	"github.com/mangiee/restaurant-cli/internal/validation"
)

// rootFlags holds global CLI flags
type rootFlags struct {
	Output        string
	JSON          bool
	Query         string
	QueryFile     string
	JQ            string
	Fields        string
	Template      string
	Compact       bool
	Debug         bool
	LogFormat     string
	DryRun        bool
	Quiet         bool
	Yes           bool
	NoInput       bool
	AllowPrivate  bool
	NoCache       bool
	Profile       string
	APIURL        string
	Timeout       time.Duration
	UploadTimeout time.Duration
}

// flags holds the global command flags. It is reset at the start of every
// Execute() call; tests rely on that.
var flags = defaultFlags(nil)

// env is the environment snapshot taken by Execute.
var env = &config.Settings{Timeout: api.DefaultTimeout, UploadTimeout: api.DefaultUploadTimeout}

func defaultFlags(s *config.Settings) rootFlags {
	f := rootFlags{
		Output:        "text",
		LogFormat:     debug.FormatText,
		Timeout:       api.DefaultTimeout,
		UploadTimeout: api.DefaultUploadTimeout,
	}
	if s == nil {
		return f
	}
	if v := strings.TrimSpace(s.Output); v != "" {
		f.Output = normalizeOutputFormat(v)
	}
	f.Timeout = s.Timeout
	f.UploadTimeout = s.UploadTimeout
	f.NoCache = s.Cache.Disabled
	return f
}

func normalizeOutputFormat(value string) string {
	value = strings.TrimSpace(value)
	if value == "ndjson" {
		return "jsonl"
	}
	return value
}

func loadQueryFile(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("--query-file requires a file path")
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read query from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read --query-file %q: %w", path, err)
		}
	}

	query := strings.TrimSpace(string(data))
	if query == "" {
		return "", fmt.Errorf("--query-file %q is empty", path)
	}
	return query, nil
}

// Execute runs the root command
func Execute(ctx context.Context, args []string) error {
	config.LoadDotEnv()

	settings, err := config.LoadSettings(ctx)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return &handledError{err: err, exitCode: exitUsage}
	}
	env = settings
	flags = defaultFlags(settings)

	root := &cobra.Command{
		Use:                "mangiee",
		Short:              "Manage a Mangiee restaurant from the terminal",
		Long:               "Manage your Mangiee restaurant: menu, offers, meal plans, reviews and completed orders.",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true, // enhanceUnknownError does this
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			flags.Output = normalizeOutputFormat(flags.Output)
			if flags.QueryFile != "" {
				if flags.Query != "" || flags.JQ != "" {
					return fmt.Errorf("--query-file cannot be used with --query or --jq")
				}
				q, err := loadQueryFile(flags.QueryFile)
				if err != nil {
					return err
				}
				flags.Query = q
			}
			if flags.Yes {
				flags.NoInput = true
			}

			if flags.JSON {
				if flagOrAliasChanged(cmd, "output") && flags.Output != "json" {
					return fmt.Errorf("--json conflicts with --output %s", flags.Output)
				}
				flags.Output = "json"
			}
			needsJSON := flags.Query != "" || flags.JQ != "" || flags.Fields != "" || flags.Template != ""
			if needsJSON && flags.Output != "json" && flags.Output != "jsonl" {
				if flagOrAliasChanged(cmd, "output") {
					return fmt.Errorf("--jq/--query/--fields/--template require --output json or jsonl (or --json)")
				}
				flags.Output = "json"
			}

			mode, err := outfmt.Parse(flags.Output)
			if err != nil {
				return err
			}
			ctx = outfmt.WithMode(ctx, mode)
			ctx = outfmt.WithCompact(ctx, flags.Compact)

			if flags.Timeout <= 0 {
				return fmt.Errorf("--timeout must be positive")
			}
			if flags.UploadTimeout <= 0 {
				return fmt.Errorf("--upload-timeout must be positive")
			}
			if flags.LogFormat != debug.FormatText && flags.LogFormat != debug.FormatJSON {
				return fmt.Errorf("--log-format must be %q or %q", debug.FormatText, debug.FormatJSON)
			}

			ioStreams := iocontext.DefaultIO()
			if flags.Quiet && mode == outfmt.Text {
				ioStreams.Out = io.Discard
			}
			ctx = iocontext.WithIO(ctx, ioStreams)
			cmd.SetOut(ioStreams.Out)
			cmd.SetErr(ioStreams.ErrOut)

			allowPrivate := validation.AllowPrivateEnabled() || flags.AllowPrivate
			validation.SetAllowPrivate(allowPrivate)

			debug.Setup(debug.Options{Debug: flags.Debug, Format: flags.LogFormat, Writer: ioStreams.ErrOut})
			ctx = debug.WithDebug(ctx, flags.Debug)
			ctx = dryrun.WithDryRun(ctx, flags.DryRun)

			jqQuery := getJQQuery()
			if flags.Fields != "" {
				if jqQuery != "" {
					return fmt.Errorf("--fields and --query/--jq cannot be used together")
				}
				fields := splitCommaList(flags.Fields)
				if len(fields) == 0 {
					return fmt.Errorf("--fields must include at least one field")
				}
				jqQuery = buildFieldsQuery(fields)
			}
			if jqQuery != "" {
				ctx = outfmt.WithQuery(ctx, jqQuery)
			}
			if flags.Template != "" {
				tmpl, err := loadTemplate(flags.Template)
				if err != nil {
					return err
				}
				ctx = outfmt.WithTemplate(ctx, tmpl)
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetContext(ctx)
	root.SetArgs(args)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.Output, "output", "o", flags.Output, "Output format: text|json|jsonl|ndjson (env MANGIEE_OUTPUT)")
	pf.BoolVarP(&flags.JSON, "json", "j", false, "Shorthand for --output json")
	pf.StringVarP(&flags.Query, "query", "q", "", "JQ expression to filter JSON output (field aliases supported)")
	pf.StringVar(&flags.QueryFile, "query-file", "", "Read JQ expression from file ('-' for stdin)")
	pf.StringVar(&flags.JQ, "jq", "", "Alias for --query")
	pf.StringVar(&flags.Fields, "fields", "", "Comma-separated fields to keep in JSON output")
	pf.StringVar(&flags.Template, "template", "", "Go template string (or @path) to render JSON output")
	pf.BoolVar(&flags.Compact, "compact-json", false, "Compact JSON output (no indentation)")
	pf.BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	pf.StringVar(&flags.LogFormat, "log-format", flags.LogFormat, "Log format: text|json")
	pf.BoolVar(&flags.DryRun, "dry-run", false, "Preview changes without sending them")
	pf.BoolVarP(&flags.Quiet, "quiet", "Q", false, "Suppress non-essential output")
	pf.BoolVarP(&flags.Yes, "yes", "y", false, "Skip confirmation prompts")
	pf.BoolVar(&flags.NoInput, "no-input", false, "Disable interactive prompts")
	pf.BoolVar(&flags.AllowPrivate, "allow-private", false, "Allow private network API URLs (env MANGIEE_ALLOW_PRIVATE)")
	pf.BoolVar(&flags.NoCache, "no-cache", flags.NoCache, "Bypass the catalog cache (env MANGIEE_NO_CACHE)")
	pf.StringVarP(&flags.Profile, "profile", "p", "", "Session profile to use (env MANGIEE_PROFILE)")
	pf.StringVar(&flags.APIURL, "api-url", "", "API origin (env MANGIEE_API_URL)")
	pf.DurationVar(&flags.Timeout, "timeout", flags.Timeout, "Request timeout for JSON calls")
	pf.DurationVar(&flags.UploadTimeout, "upload-timeout", flags.UploadTimeout, "Request timeout for uploads")

	flagAlias(pf, "dry-run", "dr")
	flagAlias(pf, "query", "qr")
	flagAlias(pf, "compact-json", "cj")
	flagAlias(pf, "template", "tpl")
	flagAlias(pf, "output", "out")

	root.AddCommand(newAuthCmd())
	root.AddCommand(newProfileCmd())
	root.AddCommand(newDashboardCmd())
	root.AddCommand(newCategoriesCmd())
	root.AddCommand(newItemsCmd())
	root.AddCommand(newOffersCmd())
	root.AddCommand(newPlansCmd())
	root.AddCommand(newReviewsCmd())
	root.AddCommand(newOrdersCmd())
	root.AddCommand(newEndpointsCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newVersionCmd())

	targetCmd, err := root.ExecuteC()
	if err != nil {
		if !errors.Is(err, errAlreadyHandled) {
			_, _ = fmt.Fprintln(root.ErrOrStderr(), enhanceUnknownError(err, root, targetCmd))
		}
		return err
	}
	return nil
}

// enhanceUnknownError adds "did you mean?" suggestions to unknown command/flag errors.
func enhanceUnknownError(err error, root *cobra.Command, targetCmd *cobra.Command) string {
	msg := err.Error()

	if strings.Contains(msg, "unknown command") {
		if unknown := extractQuoted(msg); unknown != "" {
			parent := root
			if targetCmd != nil {
				parent = targetCmd
			}
			var names []string
			for _, c := range parent.Commands() {
				if c.IsAvailableCommand() {
					names = append(names, c.Name())
					names = append(names, c.Aliases...)
				}
			}
			if suggestion := suggestCommand(unknown, names); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?", msg, suggestion)
			}
		}
	}

	if strings.Contains(msg, "unknown flag") || strings.Contains(msg, "unknown shorthand flag") {
		if unknown := extractFlag(msg); unknown != "" {
			seen := make(map[string]bool)
			var flagNames []string
			addFlags := func(fs *pflag.FlagSet) {
				fs.VisitAll(func(f *pflag.Flag) {
					if f.Hidden {
						return
					}
					name := "--" + f.Name
					if !seen[name] {
						seen[name] = true
						flagNames = append(flagNames, name)
					}
				})
			}
			helpCmd := "mangiee --help"
			if targetCmd != nil {
				addFlags(targetCmd.Flags())
				addFlags(targetCmd.InheritedFlags())
				helpCmd = targetCmd.CommandPath() + " --help"
			} else {
				addFlags(root.PersistentFlags())
			}
			if suggestion := suggestFlag(unknown, flagNames); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?\nRun %q to see supported flags.", msg, suggestion, helpCmd)
			}
			return fmt.Sprintf("%s\n\nRun %q to see supported flags.", msg, helpCmd)
		}
	}

	return msg
}

// extractQuoted extracts the first double-quoted substring from s.
func extractQuoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}

// extractFlag extracts a flag name (e.g., "--foo") from an error message.
func extractFlag(s string) string {
	idx := strings.Index(s, "--")
	if idx < 0 {
		return ""
	}
	rest := s[idx:]
	if end := strings.IndexByte(rest, ' '); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimRight(rest, ".,;:!?\"'")
}

func buildFieldsQuery(fields []string) string {
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", jqKey(field), jqPath(field)))
	}
	expr := strings.Join(parts, ", ")
	return fmt.Sprintf("if type==\"array\" then map({%s}) else {%s} end", expr, expr)
}

func jqKey(key string) string {
	return fmt.Sprintf("\"%s\"", strings.ReplaceAll(key, "\"", "\\\""))
}

func jqPath(path string) string {
	expr := ""
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			continue
		}
		expr += fmt.Sprintf("[\"%s\"]", strings.ReplaceAll(seg, "\"", "\\\""))
	}
	if expr == "" {
		return "."
	}
	return "." + expr
}

func loadTemplate(value string) (string, error) {
	if strings.HasPrefix(value, "@") {
		data, err := os.ReadFile(strings.TrimPrefix(value, "@"))
		if err != nil {
			return "", fmt.Errorf("failed to read template file: %w", err)
		}
		return string(data), nil
	}
	return value, nil
}
