package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/kmoran/notekit/internal/release"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Release versioning from commit history",
		Long: `Inspects the conventional commits since the last tag and computes the
semantic-version bump they call for. "next" only prints the result;
"bump" also rewrites the plugin's manifest.json and versions.json.`,
	}
	cmd.AddCommand(newVersionNextCmd(), newVersionBumpCmd())
	return cmd
}

// pinnedTagSource overrides the detected last tag while delegating commit
// listing to the underlying source.
type pinnedTagSource struct {
	release.CommitSource
	tag string
}

func (s pinnedTagSource) LastTag(context.Context) (string, error) {
	return s.tag, nil
}

// newBumper assembles a Bumper for the repository at dir, using the metadata
// paths from configuration.
func newBumper(ctx context.Context, dir, lastTag string) *release.Bumper {
	cfg := configFromContext(ctx)

	var source release.CommitSource = release.NewGitSource(dir)
	if lastTag != "" {
		source = pinnedTagSource{CommitSource: source, tag: lastTag}
	}

	return &release.Bumper{
		Source:       source,
		ManifestPath: filepath.Join(dir, cfg.Release.Manifest),
		VersionsPath: filepath.Join(dir, cfg.Release.Versions),
	}
}

func newVersionNextCmd() *cobra.Command {
	var (
		dir     string
		lastTag string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Print the next version inferred from commits",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			plan, err := newBumper(ctx, dir, lastTag).Plan(ctx)
			if errors.Is(err, release.ErrNoRelease) {
				cmd.Println("No release: nothing in the commit range calls for a version bump.")
				return nil
			}
			if err != nil {
				return err
			}

			if asJSON {
				return printPlanJSON(cmd, plan)
			}
			printPlan(cmd, plan)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "repository to inspect")
	cmd.Flags().StringVar(&lastTag, "last", "", "treat this tag as the last release instead of detecting it")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the plan as JSON")

	return cmd
}

func newVersionBumpCmd() *cobra.Command {
	var (
		dir     string
		lastTag string
		set     string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "bump",
		Short: "Infer the next version and rewrite the release metadata files",
		Example: `  # Infer and apply the next version
  notekit version bump

  # See what would change first
  notekit version bump --dry-run

  # Force an explicit version, skipping inference
  notekit version bump --set 1.2.0`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			bumper := newBumper(ctx, dir, lastTag)

			next, err := resolveNext(ctx, bumper, cmd, set)
			if err != nil {
				return err
			}

			if dryRun {
				cmd.Printf("Dry run: would set version %s in %s and %s\n",
					next, bumper.ManifestPath, bumper.VersionsPath)
				return nil
			}

			if err := bumper.Apply(ctx, next); err != nil {
				return err
			}
			cmd.Printf("Bumped to %s\n", next)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "repository to release")
	cmd.Flags().StringVar(&lastTag, "last", "", "treat this tag as the last release instead of detecting it")
	cmd.Flags().StringVar(&set, "set", "", "use this exact version instead of inferring one")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute and print the release without writing files")

	return cmd
}

// resolveNext returns the explicitly requested version, or plans one from the
// commit history.
func resolveNext(ctx context.Context, bumper *release.Bumper, cmd *cobra.Command, set string) (*semver.Version, error) {
	if set != "" {
		next, err := semver.NewVersion(set)
		if err != nil {
			return nil, fmt.Errorf("--set value %q is not valid semver: %w", set, err)
		}
		return next, nil
	}

	plan, err := bumper.Plan(ctx)
	if err != nil {
		return nil, err
	}
	printPlan(cmd, plan)
	return plan.Next, nil
}

func printPlan(cmd *cobra.Command, plan *release.Plan) {
	since := plan.LastTag
	if since == "" {
		since = "the beginning of history"
	}
	cmd.Printf("%s -> %s (%s bump, %d commits since %s)\n",
		plan.Current, plan.Next, plan.Bump, plan.CommitCount, since)
}

func printPlanJSON(cmd *cobra.Command, plan *release.Plan) error {
	out := struct {
		Current string `json:"current"`
		Next    string `json:"next"`
		Bump    string `json:"bump"`
		LastTag string `json:"lastTag,omitempty"`
		Commits int    `json:"commits"`
	}{
		Current: plan.Current.String(),
		Next:    plan.Next.String(),
		Bump:    plan.Bump.String(),
		LastTag: plan.LastTag,
		Commits: plan.CommitCount,
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	cmd.Println(string(b))
	return nil
}
