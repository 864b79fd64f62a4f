package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mangiee/restaurant-cli/internal/api"
	"github.com/mangiee/restaurant-cli/internal/dryrun"
	"github.com/mangiee/restaurant-cli/internal/iocontext"
	"github.com/mangiee/restaurant-cli/internal/outfmt"
)

// getJQQuery returns the jq query from --jq or --query flags.
// --jq takes precedence over --query.
func getJQQuery() string {
	if flags.JQ != "" {
		return flags.JQ
	}
	return flags.Query
}

func newTabWriter(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func newTabWriterFromCmd(cmd *cobra.Command) *tabwriter.Writer {
	return newTabWriter(iocontext.GetIO(cmd.Context()).Out)
}

// printJSON writes v honoring --query, --template, --compact-json and jsonl.
func printJSON(cmd *cobra.Command, v any) error {
	ioStreams := iocontext.GetIO(cmd.Context())
	return outfmt.NewFormatter(cmd.Context(), ioStreams.Out, ioStreams.ErrOut).Output(v)
}

// printJSONErr writes a JSON value to stderr.
func printJSONErr(cmd *cobra.Command, v any) error {
	return outfmt.WriteJSON(iocontext.GetIO(cmd.Context()).ErrOut, v)
}

func isJSON(cmd *cobra.Command) bool {
	return outfmt.IsJSON(cmd.Context())
}

func printAction(cmd *cobra.Command, action, resource, id, name string) {
	if flags.Quiet || isJSON(cmd) {
		return
	}
	message := fmt.Sprintf("%s %s", action, resource)
	if id != "" {
		message += " " + id
	}
	if name != "" {
		message += ": " + name
	}
	_, _ = fmt.Fprintln(iocontext.GetIO(cmd.Context()).Out, message)
}

// printText writes a text-mode line; it is a no-op in JSON modes.
func printText(cmd *cobra.Command, format string, args ...any) {
	if isJSON(cmd) {
		return
	}
	_, _ = fmt.Fprintf(iocontext.GetIO(cmd.Context()).Out, format, args...)
}

// normalizeEnum lowercases the input and accepts an exact or unique prefix match.
func normalizeEnum(flagName, input string, valid []string) (string, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return "", api.NewValidationError(flagName, input, valid)
	}
	for _, v := range valid {
		if input == strings.ToLower(v) {
			return v, nil
		}
	}
	var matches []string
	for _, v := range valid {
		if strings.HasPrefix(strings.ToLower(v), input) {
			matches = append(matches, v)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", api.NewValidationError(flagName, input, valid)
	default:
		return "", fmt.Errorf("ambiguous %s %q: matches %s", flagName, input, strings.Join(matches, ", "))
	}
}

func registerStaticCompletions(cmd *cobra.Command, flagName string, values []string) {
	_ = cmd.RegisterFlagCompletionFunc(flagName, cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
}

func maybeDryRun(cmd *cobra.Command, preview *dryrun.Preview) (bool, error) {
	if !dryrun.IsEnabled(cmd.Context()) {
		return false, nil
	}
	if preview == nil {
		preview = &dryrun.Preview{}
	}
	if isJSON(cmd) {
		payload := map[string]any{
			"dry_run":     true,
			"operation":   preview.Operation,
			"resource":    preview.Resource,
			"method":      preview.Method,
			"path":        preview.Path,
			"multipart":   preview.Multipart,
			"description": preview.Description,
			"details":     preview.Details,
			"files":       preview.Files,
			"warnings":    preview.Warnings,
		}
		return true, printJSON(cmd, payload)
	}
	preview.Write(iocontext.GetIO(cmd.Context()).Out)
	return true, nil
}

func anyFlagChanged(cmd *cobra.Command, names ...string) bool {
	for _, name := range names {
		if flagOrAliasChanged(cmd, name) {
			return true
		}
	}
	return false
}

func stringPtrIfChanged(cmd *cobra.Command, flag, value string) *string {
	if flagOrAliasChanged(cmd, flag) {
		return &value
	}
	return nil
}

func boolPtrIfChanged(cmd *cobra.Command, flag string, value bool) *bool {
	if flagOrAliasChanged(cmd, flag) {
		return &value
	}
	return nil
}

func intPtrIfChanged(cmd *cobra.Command, flag string, value int) *int {
	if flagOrAliasChanged(cmd, flag) {
		return &value
	}
	return nil
}

// aliasBridgeValue wraps a pflag.Value so that Set() on the alias also
// marks the canonical flag as Changed. This lets aliases satisfy Cobra's
// MarkFlagRequired check.
type aliasBridgeValue struct {
	pflag.Value
	canonical *pflag.Flag
}

func (v *aliasBridgeValue) Set(s string) error {
	if err := v.Value.Set(s); err != nil {
		return err
	}
	v.canonical.Changed = true
	return nil
}

// aliasBridgeSliceValue also forwards pflag.SliceValue.
type aliasBridgeSliceValue struct {
	aliasBridgeValue
	slice pflag.SliceValue
}

func (v *aliasBridgeSliceValue) Append(s string) error     { return v.slice.Append(s) }
func (v *aliasBridgeSliceValue) Replace(ss []string) error { return v.slice.Replace(ss) }
func (v *aliasBridgeSliceValue) GetSlice() []string        { return v.slice.GetSlice() }

// flagAlias registers a hidden alias for an existing flag. Both flags share
// the same underlying Value.
func flagAlias(fs *pflag.FlagSet, name, alias string) {
	f := fs.Lookup(name)
	if f == nil {
		panic(fmt.Sprintf("flagAlias: flag %q not found", name))
	}
	a := *f
	a.Name = alias
	a.Shorthand = ""
	a.Usage = ""
	a.Hidden = true
	bridge := &aliasBridgeValue{Value: f.Value, canonical: f}
	if sv, ok := f.Value.(pflag.SliceValue); ok {
		a.Value = &aliasBridgeSliceValue{aliasBridgeValue: *bridge, slice: sv}
	} else {
		a.Value = bridge
	}
	// The alias is never independently required.
	ann := map[string][]string{"alias-of": {name}}
	for k, v := range f.Annotations {
		if k == cobra.BashCompOneRequiredFlag {
			continue
		}
		ann[k] = v
	}
	a.Annotations = ann
	fs.AddFlag(&a)
}

// flagOrAliasChanged reports whether the named flag or any of its hidden
// aliases was set by the user.
func flagOrAliasChanged(cmd *cobra.Command, name string) bool {
	if cmd.Flags().Changed(name) || cmd.InheritedFlags().Changed(name) {
		return true
	}

	aliasChanged := func(fs *pflag.FlagSet) bool {
		found := false
		fs.VisitAll(func(f *pflag.Flag) {
			if found {
				return
			}
			if ann, ok := f.Annotations["alias-of"]; ok && len(ann) > 0 && ann[0] == name && fs.Changed(f.Name) {
				found = true
			}
		})
		return found
	}
	return aliasChanged(cmd.Flags()) || aliasChanged(cmd.InheritedFlags())
}

func splitCommaList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

var (
	promptReaderMu     sync.Mutex
	promptReader       *bufio.Reader
	promptReaderSource io.Reader
)

func getPromptReader(in io.Reader) *bufio.Reader {
	promptReaderMu.Lock()
	defer promptReaderMu.Unlock()
	if promptReader == nil || promptReaderSource != in {
		promptReader = bufio.NewReader(in)
		promptReaderSource = in
	}
	return promptReader
}

// isInteractive reports whether prompts may be shown.
func isInteractive(cmd *cobra.Command) bool {
	if flags.NoInput || flags.Yes {
		return false
	}
	if forceInteractive() {
		return true
	}
	return iocontext.GetIO(cmd.Context()).CanPrompt()
}

func forceInteractive() bool {
	value, ok := os.LookupEnv("MANGIEE_FORCE_INTERACTIVE")
	if !ok {
		return false
	}
	enabled, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && enabled
}

// promptLine asks for one line of input. Prompts go to stderr in JSON modes so
// stdout stays machine-readable.
func promptLine(cmd *cobra.Command, label string) (string, error) {
	ioStreams := iocontext.GetIO(cmd.Context())
	out := ioStreams.Out
	if isJSON(cmd) {
		out = ioStreams.ErrOut
	}
	_, _ = fmt.Fprint(out, label)
	line, err := getPromptReader(ioStreams.In).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

type confirmOptions struct {
	Prompt        string
	Expected      string
	CancelMessage string
	Force         bool
}

func confirmAction(cmd *cobra.Command, opts confirmOptions) (bool, error) {
	if flags.Yes {
		opts.Force = true
	}
	if opts.Force {
		return true, nil
	}
	if !isInteractive(cmd) {
		return false, fmt.Errorf("confirmation required: pass --yes to proceed without a prompt")
	}

	out := cmd.OutOrStdout()
	if isJSON(cmd) {
		out = cmd.ErrOrStderr()
	}
	response, err := promptLine(cmd, opts.Prompt)
	if err != nil || !strings.EqualFold(response, firstNonEmpty(opts.Expected, "y")) {
		if opts.CancelMessage != "" {
			_, _ = fmt.Fprintln(out, opts.CancelMessage)
		}
		return false, nil
	}
	return true, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// errAlreadyHandled is a sentinel indicating the error was already printed to
// stderr. RunE returns it so cobra reports failure without printing again.
var errAlreadyHandled = errors.New("error already handled")

type handledError struct {
	err      error
	exitCode int
}

func (e *handledError) Error() string {
	return e.err.Error()
}

func (e *handledError) Unwrap() error {
	return errAlreadyHandled
}

func (e *handledError) ExitCode() int {
	return e.exitCode
}

// RunE wraps a command function with enhanced error handling
func RunE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}
		if isJSON(cmd) {
			if structured := api.StructuredErrorFromError(err); structured != nil {
				_ = printJSONErr(cmd, map[string]any{"error": structured})
			}
		} else {
			_, _ = fmt.Fprint(cmd.ErrOrStderr(), HandleError(err))
		}
		return &handledError{err: err, exitCode: ExitCode(err)}
	}
}

// checked turns a success:false envelope into an error carrying the
// backend's message, so no command reports a refused request as done.
func checked[T any](res *api.Envelope[T], err error) (*api.Envelope[T], error) {
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
