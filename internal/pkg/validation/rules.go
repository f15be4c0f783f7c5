package validation

import (
	"errors"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yigit/courseatlas/internal/app/models"
)

// Validation rule patterns
var (
	// SubjectPattern matches department codes such as "CS", "MATH" or "E E"
	SubjectPattern = `^[A-Za-z][A-Za-z &]{0,9}$`

	// CRNPattern matches course reference numbers
	CRNPattern = `^\d{1,10}$`
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Subject *regexp.Regexp
	CRN     *regexp.Regexp
}{
	Subject: regexp.MustCompile(SubjectPattern),
	CRN:     regexp.MustCompile(CRNPattern),
}

// Register adds the semester, subject and crn tags to v
func Register(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"semester": func(fl validator.FieldLevel) bool {
			_, ok := models.ParseSemester(fl.Field().String())
			return ok
		},
		"subject": func(fl validator.FieldLevel) bool {
			return CompiledPatterns.Subject.MatchString(fl.Field().String())
		},
		"crn": func(fl validator.FieldLevel) bool {
			return CompiledPatterns.CRN.MatchString(fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// RegisterWithGin registers the catalog tags on gin's binding validator
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding validator is not go-playground/validator")
	}
	return Register(v)
}
