package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"visaflow/internal/applicant"
	"visaflow/internal/coherence"
	"visaflow/internal/flow"
	"visaflow/internal/requirements"
	"visaflow/pkg/fieldset"
)

type commonFlags struct {
	catalog string
	format  string
}

func (c *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&c.catalog, "catalog", "", "requirement catalog YAML (defaults to the built-in catalog)")
	fs.StringVarP(&c.format, "output", "o", "json", "output format: json or yaml")
}

func (c *commonFlags) loadCatalog() (*requirements.Catalog, error) {
	if c.catalog == "" {
		return requirements.DefaultCatalog(), nil
	}
	data, err := os.ReadFile(c.catalog)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return requirements.LoadCatalog(data)
}

func (c *commonFlags) write(w io.Writer, v any) error {
	switch strings.ToLower(c.format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		// Round-trip through JSON so field names follow the json tags.
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", c.format)
	}
}

// readMap loads a YAML or JSON object; YAML is a superset of JSON.
func readMap(path string, into any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, into); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

type requirementsOutput struct {
	Workflow       requirements.Workflow      `json:"workflow"`
	Documents      []requirements.Requirement `json:"documents"`
	Required       []requirements.Code        `json:"required"`
	Conditional    []requirements.Code        `json:"conditional"`
	Optional       []requirements.Code        `json:"optional"`
	Fee            requirements.Fee           `json:"fee"`
	ProcessingTime requirements.DayRange      `json:"processing_time"`
}

func runRequirements(args []string, w io.Writer) error {
	fs := pflag.NewFlagSet("requirements", pflag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	contextFile := fs.String("context", "", "applicant context file (YAML or JSON)")
	passportType := fs.String("passport-type", "", "passport type")
	nationality := fs.String("nationality", "", "ISO 3166 alpha-3 nationality")
	residence := fs.String("residence", "", "ISO 3166 alpha-3 country of residence")
	purpose := fs.String("purpose", "", "trip purpose")
	express := fs.Bool("express", false, "request express processing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	catalog, err := common.loadCatalog()
	if err != nil {
		return err
	}
	ctx := map[string]any{}
	if *contextFile != "" {
		if err := readMap(*contextFile, &ctx); err != nil {
			return err
		}
	}
	for key, v := range map[string]string{
		applicant.KeyPassportType:     strings.ToUpper(*passportType),
		applicant.KeyNationality:      strings.ToUpper(*nationality),
		applicant.KeyResidenceCountry: strings.ToUpper(*residence),
		applicant.KeyTripPurpose:      strings.ToUpper(*purpose),
	} {
		if v != "" {
			ctx[key] = v
		}
	}
	if fs.Changed("express") {
		ctx[applicant.KeyIsExpress] = *express
	}

	engine := requirements.NewEngine(requirements.WithCatalog(catalog))
	engine.SetContext(ctx)
	return common.write(w, requirementsOutput{
		Workflow:       engine.Workflow(),
		Documents:      engine.Requirements(),
		Required:       engine.RequiredDocuments(),
		Conditional:    engine.ConditionalDocuments(),
		Optional:       engine.OptionalDocuments(),
		Fee:            engine.CalculateFee(engine.Context()),
		ProcessingTime: engine.ProcessingTime(),
	})
}

func runValidate(args []string, w io.Writer) error {
	fs := pflag.NewFlagSet("validate", pflag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	file := fs.StringP("file", "f", "", "documents file with passport, others and trip sections (required)")
	now := fs.String("now", "", "evaluation date as YYYY-MM-DD (defaults to today)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("--file is required")
	}

	catalog, err := common.loadCatalog()
	if err != nil {
		return err
	}
	var docs coherence.Documents
	if err := readMap(*file, &docs); err != nil {
		return err
	}

	opts := []coherence.Option{coherence.WithCatalog(catalog)}
	if *now != "" {
		t, ok := fieldset.ParseDate(*now)
		if !ok {
			return fmt.Errorf("invalid --now %q", *now)
		}
		opts = append(opts, coherence.WithClock(func() time.Time { return t }))
	}
	report := coherence.NewValidator(opts...).Validate(docs)
	if err := common.write(w, report); err != nil {
		return err
	}
	if !report.Valid {
		return fmt.Errorf("%d check(s) failed", report.FailCount)
	}
	return nil
}

func runSteps(args []string, w io.Writer) error {
	fs := pflag.NewFlagSet("steps", pflag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	contextFile := fs.String("context", "", "applicant context file (YAML or JSON)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	catalog, err := common.loadCatalog()
	if err != nil {
		return err
	}
	ctx := map[string]any{}
	if *contextFile != "" {
		if err := readMap(*contextFile, &ctx); err != nil {
			return err
		}
	}
	m := flow.NewMachine(requirements.NewEngine(requirements.WithCatalog(catalog)))
	if len(ctx) > 0 {
		m.SetContext(ctx)
	}
	return common.write(w, m.Snapshot().Steps)
}
