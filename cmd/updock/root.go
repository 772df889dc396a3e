// Package main implements the command-line interface for updock, a tool
// that checks the image references pinned in a Dockerfile and a
// docker-compose file against their registries and rewrites them to the
// best newer tag.
//
// The main command is:
//   - check: scan the manifests, query the registry, and apply updates
//
// Every check flag can also be set through an UPDOCK_* environment
// variable. See the help output for details.
package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/updock-dev/updock/pkg/log"
)

// Global flag variables
var (
	debugEnabled bool
	logLevel     string
)

// AppFs defines the filesystem interface to use, allows mocking in tests.
var AppFs = afero.NewOsFs()

// SetFs replaces the current filesystem with the provided one and returns
// a function to restore it. This is primarily used for testing.
func SetFs(newFs afero.Fs) func() {
	oldFs := AppFs
	AppFs = newFs
	return func() { AppFs = oldFs }
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "updock",
	Short: "Update pinned container image tags in Dockerfiles and compose files",
	Long: `updock scans a Dockerfile and a docker-compose file for pinned image
versions, asks the registry which newer tags exist within each image's
versioning convention, and rewrites only the version substrings, leaving
every other byte of the files untouched.

Build args referenced from FROM lines (FROM busybox:${VERSION}) are
resolved and updated in their ARG defaults; the placeholder syntax in the
FROM line itself is preserved.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		level := log.LevelInfo
		if debugEnabled {
			level = log.LevelDebug
		} else if logLevel != "" {
			parsed, err := log.ParseLevel(logLevel)
			if err != nil {
				log.Warn("invalid log level, using default", "value", logLevel, "default", level.String())
			} else {
				level = parsed
			}
		}
		log.SetLevel(level)
		return nil
	},
}

// Execute adds all child commands to the root command and runs it. Called
// by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugEnabled, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "set log level (debug, info, warn, error)")

	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// executeCommand is a helper for testing Cobra commands.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

// BinaryVersion is set at build time via -ldflags.
var BinaryVersion = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the updock version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "updock %s\n", BinaryVersion)
		},
	}
}
