package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/slotform/internal/compiler"
	"github.com/roach88/slotform/internal/form"
)

// Problem is one load or schema error reported by validate.
type Problem struct {
	Code    string `json:"code"`
	Form    string `json:"form,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool      `json:"valid"`
	Forms  []string  `json:"forms"`
	Errors []Problem `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [forms-dir]",
		Short: "Compile and check form definitions",
		Long: `Compile the CUE forms in a directory and check them against the
form schema rules (identifier names, reserved slots, unused mappings,
conflicting intent filters, duplicate forms).

All problems are reported, not just the first.

Exit codes:
  0 - All forms valid
  1 - One or more problems found
  2 - Command error (directory missing, CUE does not load)

Examples:
  slotform validate ./forms
  SLOTFORM_FORMS_DIR=./forms slotform validate --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, formsDirArg(rootOpts, args), cmd)
		},
	}
}

func runValidate(opts *RootOptions, formsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := LoadForms(formsDir, LoadModeCollectAll)
	if loadResult == nil {
		return failLoad(formatter, loadErrors)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, formsDir)

	result := ValidationResult{Forms: []string{}}
	for _, err := range loadErrors {
		result.Errors = append(result.Errors, problemFromLoadError(err))
	}
	for _, spec := range loadResult.Forms {
		formatter.VerboseLog("Validating form: %s", spec.Name)
		result.Forms = append(result.Forms, spec.Name)
	}
	for _, verr := range compiler.ValidateAll(loadResult.Forms) {
		result.Errors = append(result.Errors, Problem{
			Code:    verr.Code,
			Form:    verr.Form,
			Field:   verr.Field,
			Message: verr.Message,
		})
	}
	result.Valid = len(result.Errors) == 0

	if formatter.IsJSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			resp.Status = "error"
			resp.Error = &CLIError{Code: result.Errors[0].Code, Message: result.Errors[0].Message}
		}
		if err := formatter.encode(resp); err != nil {
			return err
		}
	} else {
		writeValidationText(formatter, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}

func writeValidationText(f *OutputFormatter, result ValidationResult) {
	w := f.Writer
	if result.Valid {
		fmt.Fprintf(w, "%s %d form(s) valid\n", markOK, len(result.Forms))
		for _, name := range result.Forms {
			fmt.Fprintf(w, "  %s\n", name)
		}
		return
	}

	fmt.Fprintf(w, "%s Validation failed\n\n", markFail)
	for _, p := range result.Errors {
		if p.Line > 0 {
			fmt.Fprintf(w, "%s:%d\n", p.File, p.Line)
		}
		switch {
		case p.Form != "":
			fmt.Fprintf(w, "  %s: %s.%s: %s\n\n", p.Code, p.Form, p.Field, p.Message)
		case p.Field != "":
			fmt.Fprintf(w, "  %s: %s: %s\n\n", p.Code, p.Field, p.Message)
		default:
			fmt.Fprintf(w, "  %s: %s\n\n", p.Code, p.Message)
		}
	}
}

func problemFromLoadError(err error) Problem {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		p := Problem{Code: loadErr.Code, Message: loadErr.Message}
		if loadErr.Pos.IsValid() {
			p.File = loadErr.Pos.Filename()
			p.Line = loadErr.Pos.Line()
		}
		return p
	}
	return Problem{Code: ErrCodeGeneric, Message: err.Error()}
}

// failLoad reports a load failure that left nothing to validate.
func failLoad(f *OutputFormatter, errs []error) error {
	p := problemFromLoadError(errs[0])
	return f.Fail(ExitCommandError, p.Code, p.Message, nil)
}

// loadValidForms loads a forms directory and rejects it on any load or
// schema error. Commands that execute forms use it.
func loadValidForms(dir string) ([]form.Spec, error) {
	loadResult, loadErrors := LoadForms(dir, LoadModeFailFast)
	if len(loadErrors) > 0 {
		return nil, loadErrors[0]
	}
	if errs := compiler.ValidateAll(loadResult.Forms); len(errs) > 0 {
		return nil, &LoadError{Code: errs[0].Code, Message: errs[0].Error()}
	}
	return loadResult.Forms, nil
}
