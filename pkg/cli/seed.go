package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/cli/config"
	"github.com/taskdesk/taskdesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func seedFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "seed",
		Usage:       "Seed file, a local path or gs://bucket/object",
		Required:    true,
		Sources:     cli.EnvVars("TASKDESK_SEED"),
		Destination: dst,
	}
}

func cmdValidate() *cli.Command {
	var seedPath string

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate a seed file",
		Flags:   []cli.Flag{seedFlag(&seedPath)},
		Action: func(ctx context.Context, c *cli.Command) error {
			seedFile, err := config.LoadSeed(ctx, seedPath)
			if err != nil {
				return goerr.Wrap(err, "seed validation failed")
			}

			seed := seedFile.ToDomain()
			logging.Default().Info("Seed validation passed",
				"path", seedPath,
				"notes", len(seed.Notes),
				"guides", len(seed.Guides),
				"tasks", len(seed.Tasks),
				"templates", len(seed.Templates),
				"favorites", len(seed.Favorites),
				"tables", len(seed.Tables),
			)
			return nil
		},
	}
}

func cmdImport() *cli.Command {
	var seedPath string
	var rebuild bool
	var rtCfg runtimeConfig

	flags := []cli.Flag{
		seedFlag(&seedPath),
		&cli.BoolFlag{
			Name:        "rebuild",
			Usage:       "Rebuild embeddings after the import",
			Destination: &rebuild,
		},
	}
	flags = append(flags, rtCfg.Flags()...)

	return &cli.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Import notes, guides, tasks, templates, favorites and tables from a seed file",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			seedFile, err := config.LoadSeed(ctx, seedPath)
			if err != nil {
				return err
			}

			rt, err := rtCfg.build(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			if _, err := rt.uc.Import.Import(ctx, seedFile.ToDomain()); err != nil {
				return goerr.Wrap(err, "failed to import seed")
			}

			if rebuild {
				n, err := rt.uc.Embedding.RebuildAll(ctx)
				if err != nil {
					return goerr.Wrap(err, "failed to rebuild embeddings")
				}
				logging.Default().Info("Embeddings rebuilt", "records", n)
			}
			return nil
		},
	}
}
