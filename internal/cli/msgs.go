package cli

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Copy a directory tree and compile the templates in it"
	MsgEnginesShort    = "List the available template engines"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"
	MsgManShort        = "Generate man page"

	// Flag descriptions
	MsgFlagVerbose   = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagEngine    = "Template engine used to compile templates"
	MsgFlagExtension = "Template file extension (defaults to the engine's)"
	MsgFlagData      = "Data file with interpolation values (.json, .yaml, .yml, .toml)"
	MsgFlagSet       = "Set an interpolation value (key=value, dotted keys nest)"
	MsgFlagJobs      = "Maximum number of files copied or compiled at once"
	MsgFlagSync      = "Copy and compile one file at a time"
	MsgFlagConfig    = "Config file (default .doppel.toml in the current directory)"
	MsgFlagFormat    = "Output format (auto, term, text, json)"
	MsgFlagManDir    = "Directory man pages are written to"

	// Version output
	MsgVersionFormat = "doppel version %s\n"
	MsgCommitFormat  = "Commit: %s\n"
	MsgBuiltFormat   = "Built:  %s\n"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/root-example.txt
	msgRootExampleRaw string
	MsgRootExample    = strings.TrimRight(msgRootExampleRaw, "\n")

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)
)
