package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/updock-dev/updock/pkg/compose"
	"github.com/updock-dev/updock/pkg/dockerfile"
	"github.com/updock-dev/updock/pkg/exitcodes"
	"github.com/updock-dev/updock/pkg/image"
	"github.com/updock-dev/updock/pkg/log"
	"github.com/updock-dev/updock/pkg/registry"
	"github.com/updock-dev/updock/pkg/report"
	"github.com/updock-dev/updock/pkg/tagpattern"
)

// Default manifest paths.
const (
	DefaultDockerfilePath = "Dockerfile"
	DefaultComposePath    = "docker-compose.yml"
)

// checkOptions carries one check invocation's resolved configuration.
type checkOptions struct {
	dockerfilePath  string
	composePath     string
	dockerfileCheck bool
	composeCheck    bool
	skip            map[string]bool
	policies        *tagpattern.PolicyTable
	dryRun          bool
	showDiff        bool
	githubOutput    string
	registryURL     string
	authURL         string
	timeout         time.Duration
}

func newCheckCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("UPDOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check manifests for newer image tags and rewrite them",
		Long: `Check scans the Dockerfile and the compose file for pinned image tags,
queries the registry for each qualified repository, and rewrites any tag
for which a newer anchor-compatible version exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := resolveCheckOptions(v)
			if err != nil {
				return err
			}
			return runCheck(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.String("dockerfile", DefaultDockerfilePath, "path to the Dockerfile")
	flags.String("compose-file", DefaultComposePath, "path to the compose file")
	flags.Bool("dockerfile-check", true, "check the Dockerfile (auto-disabled when absent)")
	flags.Bool("compose-check", true, "check the compose file (auto-disabled when absent)")
	flags.String("skip", "", "comma-separated repository names to exclude from checks")
	flags.String("strict-repos", "", "comma-separated repo[:bool] versioning policy overrides")
	flags.Bool("dry-run", false, "report changes without writing files")
	flags.Bool("show-diff", false, "print a diff of each rewritten file")
	flags.String("github-output", "", "file to append changes=/summary= outputs to (default $GITHUB_OUTPUT)")
	flags.String("registry-url", registry.DefaultRegistryURL, "registry API base URL")
	flags.String("auth-url", registry.DefaultAuthURL, "registry token endpoint URL")
	flags.Duration("timeout", registry.DefaultTimeout, "per-request registry timeout")

	if err := v.BindPFlags(flags); err != nil {
		panic(fmt.Sprintf("binding check flags: %v", err))
	}
	if err := v.BindEnv("github-output", "GITHUB_OUTPUT"); err != nil {
		panic(fmt.Sprintf("binding github-output: %v", err))
	}

	return cmd
}

// resolveCheckOptions merges flags and UPDOCK_* environment variables into
// a checkOptions. Configuration parse failures are fatal.
func resolveCheckOptions(v *viper.Viper) (*checkOptions, error) {
	policies, err := tagpattern.NewPolicyTable(v.GetString("strict-repos"))
	if err != nil {
		return nil, &exitcodes.ExitCodeError{
			Code: exitcodes.ExitInputConfigurationError,
			Err:  fmt.Errorf("parsing versioning policy overrides: %w", err),
		}
	}

	return &checkOptions{
		dockerfilePath:  v.GetString("dockerfile"),
		composePath:     v.GetString("compose-file"),
		dockerfileCheck: v.GetBool("dockerfile-check"),
		composeCheck:    v.GetBool("compose-check"),
		skip:            image.ParseSkipList(v.GetString("skip")),
		policies:        policies,
		dryRun:          v.GetBool("dry-run"),
		showDiff:        v.GetBool("show-diff"),
		githubOutput:    v.GetString("github-output"),
		registryURL:     v.GetString("registry-url"),
		authURL:         v.GetString("auth-url"),
		timeout:         v.GetDuration("timeout"),
	}, nil
}

// processFunc is the shared shape of the Dockerfile and compose
// processors.
type processFunc func(ctx context.Context, buf []byte) ([]byte, []report.Change, error)

func runCheck(cmd *cobra.Command, opts *checkOptions) error {
	client := registry.NewClient(
		registry.WithEndpoints(opts.authURL, opts.registryURL),
		registry.WithHTTPClient(&http.Client{Timeout: opts.timeout}),
	)

	rep := &report.Report{}

	if opts.dockerfileCheck {
		proc := &dockerfile.Processor{Registry: client, Policies: opts.policies, Skip: opts.skip}
		if err := checkManifest(cmd, opts, "Dockerfile", opts.dockerfilePath, rep, proc.Process); err != nil {
			return err
		}
	}
	if opts.composeCheck {
		proc := &compose.Processor{Registry: client, Policies: opts.policies, Skip: opts.skip}
		if err := checkManifest(cmd, opts, "docker-compose.yml", opts.composePath, rep, proc.Process); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, rep.Summary())
	fmt.Fprintf(out, "Total updates: %d\n", rep.Total())

	if opts.githubOutput != "" {
		if err := rep.WriteGitHubOutput(AppFs, opts.githubOutput); err != nil {
			return &exitcodes.ExitCodeError{Code: exitcodes.ExitIOError, Err: err}
		}
	}
	return nil
}

// checkManifest runs one processor over one manifest file: read, process,
// optionally diff, write back, and record the section in the report.
// Progress output for the manifest is bracketed by section markers.
func checkManifest(cmd *cobra.Command, opts *checkOptions, title, path string, rep *report.Report, process processFunc) error {
	exists, err := afero.Exists(AppFs, path)
	if err != nil {
		return &exitcodes.ExitCodeError{Code: exitcodes.ExitIOError, Err: errors.Wrapf(err, "checking %s", path)}
	}
	if !exists {
		log.Info("manifest not found, check disabled", "manifest", title, "path", path)
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "--- %s ---\n", title)
	defer fmt.Fprintf(out, "--- end %s ---\n", title)

	data, err := afero.ReadFile(AppFs, path)
	if err != nil {
		return &exitcodes.ExitCodeError{Code: exitcodes.ExitIOError, Err: errors.Wrapf(err, "reading %s", path)}
	}

	updated, changes, err := process(cmd.Context(), data)
	if errors.Is(err, compose.ErrNotYAML) {
		// Rewriting a file we cannot even parse risks corrupting it.
		log.Warn("manifest is not valid YAML, check disabled", "path", path)
		return nil
	}
	if err != nil {
		return mapProcessError(title, err)
	}
	rep.Add(title, changes)

	if bytes.Equal(updated, data) {
		return nil
	}

	if opts.showDiff {
		dmp := diffmatchpatch.New()
		diffs := dmp.DiffMain(string(data), string(updated), false)
		fmt.Fprint(out, dmp.DiffPrettyText(diffs))
	}

	if opts.dryRun {
		log.Info("dry run, not writing file", "path", path)
		return nil
	}

	perm := fileMode(path)
	if err := afero.WriteFile(AppFs, path, updated, perm); err != nil {
		return &exitcodes.ExitCodeError{Code: exitcodes.ExitIOError, Err: errors.Wrapf(err, "writing %s", path)}
	}
	log.Info("manifest rewritten", "path", path, "changes", len(changes))
	return nil
}

// mapProcessError assigns exit codes to processing failures. A transport
// failure gets its dedicated code; an unparseable compose file is reported
// as a processing failure for that manifest.
func mapProcessError(title string, err error) error {
	var transport *registry.TransportError
	if errors.As(err, &transport) {
		return &exitcodes.ExitCodeError{Code: exitcodes.ExitRegistryTransportError, Err: err}
	}
	code := exitcodes.ExitDockerfileProcessingError
	if title != "Dockerfile" {
		code = exitcodes.ExitComposeProcessingError
	}
	return &exitcodes.ExitCodeError{Code: code, Err: errors.Wrapf(err, "processing %s", title)}
}

// fileMode returns the manifest's current permissions, falling back to
// 0644 when they cannot be determined.
func fileMode(path string) os.FileMode {
	info, err := AppFs.Stat(path)
	if err != nil {
		return 0o644
	}
	return info.Mode().Perm()
}
