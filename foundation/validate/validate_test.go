package validate_test

import (
	"testing"

	"github.com/ardanlabs/ledger/foundation/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type model struct {
	Name  string  `json:"name" validate:"required"`
	Value float64 `json:"value" validate:"gte=0"`
}

func TestCheck(t *testing.T) {
	t.Log("Given the need to validate a model.")
	{
		if err := validate.Check(model{Name: "bill", Value: 1}); err != nil {
			t.Fatalf("\t%s\tShould accept a valid model: %s", failed, err)
		}
		t.Logf("\t%s\tShould accept a valid model.", success)

		err := validate.Check(model{Value: -1})
		if !validate.IsFieldErrors(err) {
			t.Fatalf("\t%s\tShould get back field errors: %v", failed, err)
		}
		t.Logf("\t%s\tShould get back field errors.", success)

		fields := validate.GetFieldErrors(err)
		if len(fields) != 2 || fields[0].Field != "name" || fields[1].Field != "value" {
			t.Fatalf("\t%s\tShould name the fields by their json tag: %v", failed, fields)
		}
		t.Logf("\t%s\tShould name the fields by their json tag.", success)
	}
}
