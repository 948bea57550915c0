package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"seatime-backend/internal/compliance"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "seatimectl",
		Short:         "Offline sea-service and visa-day auditor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newStandbyCmd(),
		newVisaCmd(),
		newGapsCmd(),
		newPresetCmd(),
	)
	return root
}

// ── standby ──────────────────────────────────────────────────────

func newStandbyCmd() *cobra.Command {
	var (
		file  string
		trace bool
	)

	cmd := &cobra.Command{
		Use:   "standby",
		Short: "Segment voyages and allocate standby days from a state-log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			logs, err := readStateLogs(file)
			if err != nil {
				return err
			}

			var tr *compliance.Trace
			if trace {
				tr = compliance.NewTrace()
			}
			out := struct {
				compliance.StandbyResult
				Trace *compliance.Trace `json:"trace,omitempty"`
			}{
				StandbyResult: compliance.ComputeSeaService(logs, tr),
				Trace:         tr,
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "State-log file (YAML or JSON)")
	cmd.Flags().BoolVar(&trace, "trace", false, "Include the step-by-step audit trail")
	cmd.MarkFlagRequired("file")
	return cmd
}

// ── visa ─────────────────────────────────────────────────────────

func newVisaCmd() *cobra.Command {
	var (
		file     string
		ruleType string
		days     int
		period   int
		preset   string
		todayStr string
		checkStr string
		trace    bool
	)

	cmd := &cobra.Command{
		Use:   "visa",
		Short: "Evaluate consumed days against a visa rule",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := readVisaEntries(file)
			if err != nil {
				return err
			}

			rule := compliance.VisaRule{
				RuleType:    compliance.RuleType(strings.ToLower(ruleType)),
				DaysAllowed: days,
				PeriodDays:  period,
			}
			if preset != "" {
				p, ok := compliance.ResolvePreset(preset)
				if !ok {
					return fmt.Errorf("no preset matches %q", preset)
				}
				rule = p.Rule
			}
			if err := rule.Validate(); err != nil {
				return fmt.Errorf("rule: %w", err)
			}

			today, err := parseToday(todayStr)
			if err != nil {
				return err
			}

			var tr *compliance.Trace
			if trace {
				tr = compliance.NewTrace()
			}

			type checkOutput struct {
				Date string `json:"date"`
				compliance.DateCheck
			}
			out := struct {
				Rule       compliance.VisaRule         `json:"rule"`
				Today      string                      `json:"today"`
				Compliance compliance.ComplianceResult `json:"compliance"`
				Check      *checkOutput                `json:"check,omitempty"`
				Trace      *compliance.Trace           `json:"trace,omitempty"`
			}{
				Rule:       rule,
				Today:      compliance.FormatDay(today),
				Compliance: compliance.CalculateVisaCompliance(rule, entries, today, tr),
				Trace:      tr,
			}

			if checkStr != "" {
				day, err := compliance.ParseDay(checkStr)
				if err != nil {
					return err
				}
				out.Check = &checkOutput{
					Date:      compliance.FormatDay(day),
					DateCheck: compliance.CheckDateCompliance(rule, entries, day),
				}
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Visa-entry file: a list of yyyy-mm-dd days (YAML or JSON)")
	cmd.Flags().StringVar(&ruleType, "rule", "fixed", "Rule type: fixed or rolling")
	cmd.Flags().IntVar(&days, "days", 0, "Days allowed")
	cmd.Flags().IntVar(&period, "period", 0, "Rolling window length in days")
	cmd.Flags().StringVar(&preset, "preset", "", "Take the rule from a jurisdiction preset instead of --rule/--days/--period")
	cmd.Flags().StringVar(&todayStr, "today", "", "Evaluate as of this day (default: today)")
	cmd.Flags().StringVar(&checkStr, "check", "", "Also check whether this prospective day is allowed")
	cmd.Flags().BoolVar(&trace, "trace", false, "Include the per-window audit trail")
	cmd.MarkFlagRequired("file")
	return cmd
}

// ── gaps ─────────────────────────────────────────────────────────

func newGapsCmd() *cobra.Command {
	var (
		file     string
		todayStr string
	)

	cmd := &cobra.Command{
		Use:   "gaps",
		Short: "Propose logs for the unlogged days since the last entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			logs, err := readStateLogs(file)
			if err != nil {
				return err
			}
			today, err := parseToday(todayStr)
			if err != nil {
				return err
			}

			p := compliance.ProposeGapFill(logs, today)
			out := struct {
				compliance.GapProposal
				Fill []compliance.StateLog `json:"fill"`
			}{
				GapProposal: p,
				Fill:        p.FillLogs(),
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "State-log file (YAML or JSON)")
	cmd.Flags().StringVar(&todayStr, "today", "", "Fill through this day (default: today)")
	cmd.MarkFlagRequired("file")
	return cmd
}

// ── preset ───────────────────────────────────────────────────────

func newPresetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preset [area name...]",
		Short: "Resolve an area name to its built-in visa rule, or list all presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return writeJSON(cmd.OutOrStdout(), compliance.Presets())
			}
			name := strings.Join(args, " ")
			p, ok := compliance.ResolvePreset(name)
			if !ok {
				return fmt.Errorf("no preset matches %q", name)
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}
}

// ── Input / Output ───────────────────────────────────────────────

// readStateLogs accepts either a bare list of {date, state} records or a
// mapping with a "logs" key.
func readStateLogs(path string) ([]compliance.StateLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []compliance.RawStateLog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		var wrapped struct {
			Logs []compliance.RawStateLog `yaml:"logs"`
		}
		if werr := yaml.Unmarshal(data, &wrapped); werr != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		raw = wrapped.Logs
	}
	return compliance.ParseStateLogs(raw)
}

// readVisaEntries accepts either a bare list of days or a mapping with an
// "entries" key.
func readVisaEntries(path string) ([]compliance.VisaEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		var wrapped struct {
			Entries []string `yaml:"entries"`
		}
		if werr := yaml.Unmarshal(data, &wrapped); werr != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		raw = wrapped.Entries
	}
	return compliance.ParseVisaEntries(raw)
}

func parseToday(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	day, err := compliance.ParseDay(s)
	if err != nil {
		var verr *compliance.ValidationError
		if errors.As(err, &verr) {
			verr.Field = "today"
		}
		return time.Time{}, err
	}
	return day, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
