package cli

import (
	"context"
	"fmt"

	"cdr-tool/internal/content"
	"github.com/spf13/cobra"
)

// NewEditionsCmd lists the content editions of the configured source.
func NewEditionsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "editions",
		Short: "List available content editions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := loadDeps(ctx, *configPath)
			if err != nil {
				return err
			}
			defer d.Close()

			names, err := listEditions(ctx, d.loader)
			if err != nil {
				return err
			}
			for _, name := range names {
				marker := " "
				if name == d.cfg.Content.DefaultEdition {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
			}
			return nil
		},
	}
}

func listEditions(ctx context.Context, loader content.Loader) ([]string, error) {
	switch l := loader.(type) {
	case *content.FSLoader:
		return l.Editions()
	case interface {
		Editions(context.Context) ([]string, error)
	}:
		return l.Editions(ctx)
	}
	return nil, fmt.Errorf("content source %T cannot list editions", loader)
}
