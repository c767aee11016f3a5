// Package validation checks request input with validator/v10 and normalises
// Persian free text before it is stored.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Struct validates v against its `validate` tags. The returned error lists
// every failing field as "field: rule".
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, ", "))
}

var persianReplacer = strings.NewReplacer(
	"ي", "ی", // arabic yeh
	"ى", "ی", // alef maksura
	"ك", "ک", // arabic kaf
)

var zwnjRun = regexp.MustCompile(`\x{200c}{2,}`)

// CleanString trims s, maps Arabic yeh and kaf to their Persian forms and
// collapses any run of zero-width non-joiners into one.
func CleanString(s string) string {
	s = zwnjRun.ReplaceAllString(persianReplacer.Replace(s), "\u200c")
	return strings.TrimSpace(s)
}

// CleanStrings applies CleanString to every element and drops empty ones.
func CleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if c := CleanString(s); c != "" {
			out = append(out, c)
		}
	}
	return out
}
