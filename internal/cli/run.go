package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cdr-tool/internal/app"
	"cdr-tool/internal/domain"
	"cdr-tool/internal/glossary"
	"cdr-tool/internal/report"
	"github.com/spf13/cobra"
)

// NewRunCmd walks the user through a survey on the terminal.
func NewRunCmd(configPath *string) *cobra.Command {
	var edition string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Answer the questionnaire interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := loadDeps(ctx, *configPath)
			if err != nil {
				return err
			}
			defer d.Close()

			if edition == "" {
				edition = d.cfg.Content.DefaultEdition
			}
			c, err := d.contents.GetContent(ctx, edition)
			if err != nil {
				return err
			}
			return newSurveyDriver(d.service, c, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&edition, "edition", "", "content edition (defaults to content.default_edition)")
	return cmd
}

// surveyDriver maps terminal input onto SurveyService calls.
type surveyDriver struct {
	service *app.SurveyService
	content *domain.Content
	in      *bufio.Scanner
	out     io.Writer

	currentRule string
}

func newSurveyDriver(service *app.SurveyService, c *domain.Content, in io.Reader, out io.Writer) *surveyDriver {
	return &surveyDriver{
		service: service,
		content: c,
		in:      bufio.NewScanner(in),
		out:     out,
	}
}

// errQuit ends the walk early; rules answered so far are kept.
var errQuit = errors.New("quit")

// Run drives one session to completion (or until the user quits or input
// ends), prints the result screen and stores the record.
func (d *surveyDriver) Run(ctx context.Context) error {
	snap, err := d.service.Start(ctx, d.content.Edition())
	if err != nil {
		return err
	}
	id := snap.SessionID
	fmt.Fprintf(d.out, "Circular Design Rules (%s)\n", d.content.Edition())

	for snap.State != "session_complete" {
		next, err := d.step(ctx, snap)
		if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if !isUserError(err) {
				return err
			}
			fmt.Fprintf(d.out, "! %v\n", err)
			continue
		}
		snap = next
	}

	reports, err := d.service.Results(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(d.out)
	if len(reports) == 0 {
		fmt.Fprintln(d.out, "No rule was completed.")
	} else if err := report.WriteText(d.out, reports); err != nil {
		return err
	}

	if _, err := d.service.Finish(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(d.out, "\nSaved as session %s\n", id)
	return nil
}

func (d *surveyDriver) step(ctx context.Context, snap app.Snapshot) (app.Snapshot, error) {
	id := snap.SessionID
	switch snap.State {
	case "selecting_category":
		fmt.Fprintln(d.out, "\nChoose a category:")
		for _, catID := range snap.AvailableCategories {
			cat, _ := d.content.Category(catID)
			fmt.Fprintf(d.out, "  %s) %s\n", catID, cat.Title)
		}
		line, err := d.prompt("category (q to finish)")
		if err != nil {
			return snap, err
		}
		return d.service.SelectCategory(ctx, id, line)

	case "selecting_rule":
		fmt.Fprintln(d.out, "\nRules left in this category:")
		for _, ruleID := range snap.AvailableRules {
			rule, _ := d.content.Rule(ruleID)
			fmt.Fprintf(d.out, "  %s) %s\n", ruleID, rule.Title)
		}
		hint := "rule (enter for next, q to finish)"
		if snap.CanLeaveCategory {
			hint = "rule (enter for next, l to leave category, q to finish)"
		}
		line, err := d.prompt(hint)
		if err != nil {
			return snap, err
		}
		switch line {
		case "":
			return d.service.SelectNextRule(ctx, id)
		case "l":
			return d.service.LeaveCategory(ctx, id)
		}
		return d.service.SelectRule(ctx, id, line)

	case "answering_question":
		if snap.RuleID != d.currentRule {
			d.currentRule = snap.RuleID
			rule, _ := d.content.Rule(snap.RuleID)
			fmt.Fprintf(d.out, "\n%s: %s\n", strings.ToUpper(rule.ID), glossary.PlainText(rule.Text))
		}
		fmt.Fprintf(d.out, "  %s. %s\n", snap.Question.ID, glossary.PlainText(snap.Question.Text))
		hint := "y/n"
		if snap.CanSkipRule {
			hint = "y/n, s to skip rule"
		}
		line, err := d.prompt(hint)
		if err != nil {
			return snap, err
		}
		if line == "s" {
			return d.service.SkipRule(ctx, id)
		}
		return d.service.Answer(ctx, id, line)
	}
	return snap, fmt.Errorf("unexpected state %s", snap.State)
}

func (d *surveyDriver) prompt(hint string) (string, error) {
	fmt.Fprintf(d.out, "%s> ", hint)
	if !d.in.Scan() {
		if err := d.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	line := strings.TrimSpace(d.in.Text())
	if line == "q" {
		return "", errQuit
	}
	return line, nil
}

func isUserError(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidTransition,
		domain.ErrInvalidAnswer,
		domain.ErrUnknownCategory,
		domain.ErrUnknownRule,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
