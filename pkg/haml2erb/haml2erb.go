// Package haml2erb is the public API surface named in spec.md §6: convert a
// single HAML string, a file, or a directory tree, and optionally validate
// the result.
package haml2erb

import (
	"github.com/tmplconv/haml2erb/internal/driver"
	"github.com/tmplconv/haml2erb/internal/erb/emit"
	"github.com/tmplconv/haml2erb/internal/erb/validate"
	"github.com/tmplconv/haml2erb/internal/haml/parser"
)

// Options configures ConvertFile and ConvertDirectory.
type Options struct {
	DeleteOriginal bool
	Validate       bool
	DryRun         bool
	Validator      validate.Validator
}

func (o Options) toDriver() driver.Options {
	return driver.Options{
		DeleteOriginal: o.DeleteOriginal,
		Validate:       o.Validate,
		DryRun:         o.DryRun,
		Validator:      o.Validator,
	}
}

// FileResult mirrors internal/driver.FileResult at the public boundary.
type FileResult = driver.FileResult

// Result is Convert's paired output for ConvertAndValidate.
type Result struct {
	ERB    string
	Errors []validate.Error
}

// Convert transpiles a HAML document to ERB. It returns an error on HAML
// syntax errors or unclosed interpolation; there is no partial output on
// failure.
func Convert(haml string) (string, error) {
	root, err := parser.Parse(haml)
	if err != nil {
		return "", err
	}
	return emit.New().Emit(root, 0)
}

// ConvertFile converts the file at path, writing path with its ".haml"
// suffix replaced by ".erb" unless opts.DryRun is set.
func ConvertFile(path string, opts Options) FileResult {
	return driver.ConvertFile(path, opts.toDriver())
}

// ConvertDirectory recursively converts every "*.haml" file under root.
func ConvertDirectory(root string, opts Options) ([]FileResult, error) {
	return driver.ConvertDirectory(root, opts.toDriver())
}

// Validate runs erb through v (validate.BalanceValidator{} if v is nil).
func Validate(erb string, v validate.Validator) validate.Result {
	if v == nil {
		v = validate.BalanceValidator{}
	}
	return v.Validate(erb)
}

// ConvertAndValidate converts haml and validates the result in one step.
func ConvertAndValidate(haml string, v validate.Validator) (Result, error) {
	erb, err := Convert(haml)
	if err != nil {
		return Result{}, err
	}
	res := Validate(erb, v)
	return Result{ERB: erb, Errors: res.Errors}, nil
}
