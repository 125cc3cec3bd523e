package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cdr-tool/internal/content"
	"cdr-tool/internal/domain"
	"cdr-tool/internal/glossary"
	"github.com/spf13/cobra"
)

// NewValidateCmd checks content files or editions for conformance.
func NewValidateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file|edition]...",
		Short: "Check that content parses, term references resolve and every rule has one title",
		Long: "Arguments naming an existing file are validated as content documents; other " +
			"arguments are loaded as editions from the configured content source. Without " +
			"arguments every embedded edition is validated.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var loader content.Loader = content.Embedded()
			if len(args) == 0 {
				names, err := content.Embedded().Editions()
				if err != nil {
					return err
				}
				args = names
			} else if needsConfiguredLoader(args) {
				d, err := loadDeps(ctx, *configPath)
				if err != nil {
					return err
				}
				defer d.Close()
				loader = d.loader
			}
			return validateAll(ctx, loader, args, cmd.OutOrStdout())
		},
	}
}

func needsConfiguredLoader(args []string) bool {
	for _, arg := range args {
		if !isFile(arg) {
			return true
		}
	}
	return false
}

func validateAll(ctx context.Context, loader content.Loader, args []string, out io.Writer) error {
	failed := 0
	for _, arg := range args {
		c, err := loadForValidation(ctx, loader, arg)
		if err == nil {
			err = glossary.Validate(c)
		}
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s\n", arg)
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(out, "  %s\n", line)
			}
			continue
		}
		fmt.Fprintf(out, "ok   %s (%d rules, %d terms)\n", arg, len(c.Rules()), len(c.Glossary()))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d failed validation", failed, len(args))
	}
	return nil
}

func loadForValidation(ctx context.Context, loader content.Loader, arg string) (*domain.Content, error) {
	if isFile(arg) {
		return parseFile(arg)
	}
	return loader.LoadContent(ctx, arg)
}

// parseFile parses a content document, keyed by its file name without extension.
func parseFile(path string) (*domain.Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return content.Parse(editionFromPath(path), data)
}

func editionFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrContentNotFound)
}
