// cmd/tools/credit-sim/score.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"agri-credit-workers/internal/credit"
	"agri-credit-workers/internal/workers/credit/shared"
)

const (
	profileAuto = "auto"
	formatJSON  = "json"
	formatTable = "table"
)

var scoreCmd = &cobra.Command{
	Use:   "score [fixture.json...]",
	Short: "Score applicant fixtures",
	Long: `Score applicant fixtures under one of the two profiles.

With --profile auto a fixture carrying an applicationId or payments is scored
as an underwriting case, anything else as a self-assessment.

Examples:
  # Self-assessment of a single applicant
  credit-sim score --profile self-assessment testdata/applicant.json

  # Underwriting with a lower platform ceiling, as a table
  credit-sim score --profile underwriting --ceiling 150000 --format table cases.json

  # Read fixtures from stdin
  cat cases.json | credit-sim score -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("profile", profileAuto, "scoring profile: auto, self-assessment or underwriting")
	f.String("format", formatJSON, "output format: json or table")

	rootCmd.AddCommand(scoreCmd)
}

type scoredFixture struct {
	Source string                  `json:"source"`
	Result shared.AssessmentOutput `json:"result"`
}

func runScore(cmd *cobra.Command, args []string) error {
	mode, _ := cmd.Flags().GetString("profile")
	format, _ := cmd.Flags().GetString("format")

	if format != formatJSON && format != formatTable {
		return fmt.Errorf("score: --format must be json or table (got %q)", format)
	}
	if mode != profileAuto && mode != string(credit.ProfileSelfAssessment) && mode != string(credit.ProfileUnderwriting) {
		return fmt.Errorf("score: unknown --profile %q", mode)
	}

	var scored []scoredFixture
	for _, arg := range args {
		fixtures, err := readFixtures(cmd.InOrStdin(), arg)
		if err != nil {
			return err
		}
		for i, raw := range fixtures {
			source := arg
			if len(fixtures) > 1 {
				source = fmt.Sprintf("%s[%d]", arg, i)
			}
			out, err := scoreFixture(profiles, mode, raw)
			if err != nil {
				return fmt.Errorf("score %s: %w", source, err)
			}
			log.Debug("fixture scored", map[string]interface{}{
				"source":  source,
				"profile": out.Profile,
				"score":   out.Score,
			})
			scored = append(scored, scoredFixture{Source: source, Result: out})
		}
	}

	if format == formatTable {
		return writeTable(cmd.OutOrStdout(), scored)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(scored)
}

// readFixtures loads one fixture or an array of them from path, or from stdin
// when path is "-".
func readFixtures(stdin io.Reader, path string) ([]map[string]interface{}, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(filepath.Clean(path))
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return parseFixtures(data)
}

func parseFixtures(data []byte) ([]map[string]interface{}, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty fixture")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if data[0] == '[' {
		var many []map[string]interface{}
		if err := dec.Decode(&many); err != nil {
			return nil, fmt.Errorf("parse fixtures: %w", err)
		}
		return numbersToFloats(many), nil
	}
	var one map[string]interface{}
	if err := dec.Decode(&one); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return numbersToFloats([]map[string]interface{}{one}), nil
}

// numbersToFloats undoes UseNumber so fixtures look like job variables.
func numbersToFloats(fixtures []map[string]interface{}) []map[string]interface{} {
	var conv func(v interface{}) interface{}
	conv = func(v interface{}) interface{} {
		switch t := v.(type) {
		case json.Number:
			f, err := t.Float64()
			if err != nil {
				return t.String()
			}
			return f
		case map[string]interface{}:
			for k, item := range t {
				t[k] = conv(item)
			}
		case []interface{}:
			for i, item := range t {
				t[i] = conv(item)
			}
		}
		return v
	}
	for _, f := range fixtures {
		conv(f)
	}
	return fixtures
}

func scoreFixture(p credit.Profiles, mode string, raw map[string]interface{}) (shared.AssessmentOutput, error) {
	in, err := credit.Normalize(raw)
	if err != nil {
		return shared.AssessmentOutput{}, err
	}

	var profile credit.Profile
	switch mode {
	case string(credit.ProfileSelfAssessment):
		profile = p.SelfAssessment
	case string(credit.ProfileUnderwriting):
		profile = p.Underwriting
	default:
		_, hasApplication := raw["applicationId"]
		_, hasPayments := raw["payments"]
		profile = p.Select(hasApplication || hasPayments)
	}
	return shared.NewAssessmentOutput(credit.Assess(profile, in)), nil
}

func writeTable(w io.Writer, scored []scoredFixture) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tPROFILE\tSCORE\tRISK\tDECISION\tMAX (ETB)\tRECOMMENDED (ETB)\tTERM\tRATE")
	for _, s := range scored {
		r := s.Result
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%.2f\t%.2f\t%d\t%.1f%%\n",
			s.Source, r.Profile, r.Score, r.RiskLevel, decision(r),
			r.MaxLoanAmount, r.RecommendedAmount, r.TermMonths, r.InterestRate)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, s := range scored {
		if len(s.Result.Reasons) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n  %s\n", s.Source, strings.Join(s.Result.Reasons, "\n  "))
	}
	return nil
}

func decision(r shared.AssessmentOutput) string {
	if r.Eligible != nil {
		if *r.Eligible {
			return "eligible"
		}
		return "not eligible"
	}
	return r.Recommendation
}
