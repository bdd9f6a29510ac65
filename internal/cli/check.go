package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/smarttrip/tripcast/internal/features"
	"github.com/smarttrip/tripcast/internal/predict"
)

// ErrCheckFailed is returned when any variant fails to load or has
// vocabulary values without a feature column.
var ErrCheckFailed = errors.New("check failed")

// variantCheck is the per-variant outcome of tripcast check
type variantCheck struct {
	Variant      string                     `json:"variant"`
	Route        string                     `json:"route"`
	ModelVersion string                     `json:"model_version,omitempty"`
	Columns      int                        `json:"columns"`
	Classes      int                        `json:"classes"`
	Error        string                     `json:"error,omitempty"`
	Report       *features.VocabularyReport `json:"report,omitempty"`
}

func (v variantCheck) ok() bool {
	return v.Error == "" && (v.Report == nil || v.Report.OK())
}

func newCheckCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check model bundles against the configured vocabulary",
		Long: `Load every configured variant's bundle and map each vocabulary value
onto the bundle's feature columns.

Values without a column are silently ignored at request time; this command
reports them and exits non-zero so the mismatch is caught before deploying.

Examples:
  tripcast check
  tripcast check --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := runCheck(a)

			var err error
			if asJSON {
				err = writeCheckJSON(cmd.OutOrStdout(), results)
			} else {
				writeCheckText(cmd.OutOrStdout(), results)
			}
			if err != nil {
				return err
			}

			for _, r := range results {
				if !r.ok() {
					return ErrCheckFailed
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func runCheck(a *app) []variantCheck {
	names := a.cfg.VariantNames()
	results := make([]variantCheck, 0, len(names))

	for _, name := range names {
		vc := a.cfg.Variants[name]
		res := variantCheck{Variant: name, Route: vc.Route}

		p, err := predict.LoadVariant(name, vc)
		if err != nil {
			res.Error = err.Error()
			results = append(results, res)
			continue
		}
		res.ModelVersion = p.Manifest().Version
		res.Columns = p.Schema().Width()
		res.Classes = p.Classes()
		res.Report = p.VocabularyReport()
		results = append(results, res)
	}
	return results
}

func writeCheckJSON(w io.Writer, results []variantCheck) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func writeCheckText(w io.Writer, results []variantCheck) {
	for _, r := range results {
		status := "OK"
		if !r.ok() {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s  %s (route %s)\n", status, r.Variant, r.Route)

		if r.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", r.Error)
			continue
		}
		version := r.ModelVersion
		if version == "" {
			version = "unversioned"
		}
		fmt.Fprintf(w, "    model %s: %d columns, %d classes\n", version, r.Columns, r.Classes)

		if r.Report == nil {
			continue
		}
		cats := make([]string, 0, len(r.Report.Missing))
		for c := range r.Report.Missing {
			cats = append(cats, string(c))
		}
		sort.Strings(cats)
		for _, c := range cats {
			fmt.Fprintf(w, "    missing %s: %s\n", c, strings.Join(r.Report.Missing[features.Category(c)], ", "))
		}
		if len(r.Report.Unreachable) > 0 {
			fmt.Fprintf(w, "    unreachable columns: %s\n", strings.Join(r.Report.Unreachable, ", "))
		}
	}
}
