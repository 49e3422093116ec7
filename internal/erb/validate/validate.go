// Package validate defines the ERB validator façade described in spec
// §6. The real external validator ("an external parser invoked with the
// produced string") is out of scope for this module; Validator is the
// seam a real binding would implement, and BalanceValidator is a
// built-in implementation good enough to make `--check` and
// ConvertAndValidate meaningful without one.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// Error is one validation failure, with position information when known.
type Error struct {
	Message string
	Line    int
	Column  int
}

// Result is the outcome of validating an ERB document.
type Result struct {
	Success bool
	Errors  []Error
}

// Validator validates a produced ERB string. A real binding to an
// external ERB parser process would implement this against its
// success/errors response.
type Validator interface {
	Validate(erb string) Result
}

// BalanceValidator checks that every embedded-code tag is balanced and
// every non-void HTML tag is closed. It does not parse HTML or Ruby; it
// is a structural sanity check, not a full ERB grammar.
type BalanceValidator struct{}

var (
	tagOpenRe  = regexp.MustCompile(`<([a-zA-Z][a-zA-Z0-9-]*)[^>]*>`)
	tagCloseRe = regexp.MustCompile(`</([a-zA-Z][a-zA-Z0-9-]*)>`)
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// Validate implements Validator.
func (BalanceValidator) Validate(erb string) Result {
	var errs []Error

	if err := checkEmbeddedCodeBalance(erb); err != "" {
		errs = append(errs, Error{Message: err})
	}
	errs = append(errs, checkTagBalance(erb)...)

	return Result{Success: len(errs) == 0, Errors: errs}
}

func checkEmbeddedCodeBalance(erb string) string {
	openCount := strings.Count(erb, "<%")
	closeCount := strings.Count(erb, "%>")
	if openCount != closeCount {
		return fmt.Sprintf("unbalanced embedded-code tags: %d '<%%' vs %d '%%>'", openCount, closeCount)
	}
	return ""
}

func checkTagBalance(erb string) []Error {
	var errs []Error
	var stack []string

	lines := strings.Split(erb, "\n")
	for ln, line := range lines {
		for _, m := range tagOpenRe.FindAllStringSubmatch(line, -1) {
			name := strings.ToLower(m[1])
			if voidElements[name] || strings.HasSuffix(m[0], "/>") {
				continue
			}
			stack = append(stack, name)
		}
		for _, m := range tagCloseRe.FindAllStringSubmatch(line, -1) {
			name := strings.ToLower(m[1])
			if len(stack) == 0 || stack[len(stack)-1] != name {
				errs = append(errs, Error{
					Message: fmt.Sprintf("unexpected closing tag </%s>", name),
					Line:    ln + 1,
				})
				continue
			}
			stack = stack[:len(stack)-1]
		}
	}
	for _, name := range stack {
		errs = append(errs, Error{Message: fmt.Sprintf("unclosed tag <%s>", name)})
	}
	return errs
}
