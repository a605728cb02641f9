package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdRebuild() *cli.Command {
	var rtCfg runtimeConfig

	return &cli.Command{
		Name:  "rebuild",
		Usage: "Rebuild every embedding from the stored records",
		Flags: rtCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := rtCfg.build(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			n, err := rt.uc.Embedding.RebuildAll(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to rebuild embeddings")
			}

			_, _ = fmt.Fprintf(c.Root().Writer, "%d embedding records stored\n", n)
			return nil
		},
	}
}
