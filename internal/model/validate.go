package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/piwi3910/SlabCost/internal/formula"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator. Field names in errors use the
// JSON tag names and the "formula" tag checks formula syntax.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("formula", func(fl validator.FieldLevel) bool {
			return formula.Valid(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// FieldError is one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rule a value failed.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

// Validate checks v against its struct tags. A nil return means v is valid;
// otherwise the error is a *ValidationError.
func Validate(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate: %w", err)
	}
	out := &ValidationError{}
	for _, e := range verrs {
		out.add(fieldPath(e.Namespace()), validationMessage(e))
	}
	return out
}

// fieldPath drops the root type name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required when " + e.Param()
	case "formula":
		if _, err := formula.Compile(fmt.Sprint(e.Value())); err != nil {
			return err.Error()
		}
		return "invalid formula"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "lt":
		return "must be less than " + e.Param()
	default:
		return "is invalid"
	}
}

// ValidateLibrary checks every definition of lib, including that IDs are
// unique within the library and that variable IDs are unique within each
// definition.
func ValidateLibrary(lib Library) error {
	out := &ValidationError{}
	if err := Validate(lib); err != nil {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		out.Fields = append(out.Fields, ve.Fields...)
	}

	ids := make(map[string]bool)
	checkID := func(path, id string) {
		if id == "" {
			return
		}
		if ids[id] {
			out.add(path, fmt.Sprintf("duplicate definition id %q", id))
		}
		ids[id] = true
	}
	for i, b := range lib.Boxes {
		path := fmt.Sprintf("boxes[%d]", i)
		checkID(path+".id", b.ID)
		checkVariableIDs(out, path, nil, b.DerivedVariables)
	}
	for i, c := range lib.Components {
		path := fmt.Sprintf("components[%d]", i)
		checkID(path+".id", c.ID)
		checkVariableIDs(out, path, c.OwnVariables, c.DerivedVariables)
	}

	if len(out.Fields) == 0 {
		return nil
	}
	return out
}

// BaseVariableIDs are always present in a namespace and cannot be redeclared.
var BaseVariableIDs = []string{"L", "A", "P", "Li", "Ai", "Pi"}

func checkVariableIDs(out *ValidationError, path string, own []VarDecl, derived []DerivedVar) {
	seen := make(map[string]bool, len(BaseVariableIDs))
	for _, id := range BaseVariableIDs {
		seen[id] = true
	}
	for i, v := range own {
		if seen[v.ID] {
			out.add(fmt.Sprintf("%s.own_variables[%d].id", path, i), fmt.Sprintf("variable %q is already declared", v.ID))
		}
		seen[v.ID] = true
	}
	for i, d := range derived {
		if seen[d.ID] {
			out.add(fmt.Sprintf("%s.derived_variables[%d].id", path, i), fmt.Sprintf("variable %q is already declared", d.ID))
		}
		seen[d.ID] = true
	}
}

// ValidateCatalog checks materials and hardware, including ID uniqueness.
func ValidateCatalog(cat Catalog) error {
	out := &ValidationError{}
	if err := Validate(cat); err != nil {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		out.Fields = append(out.Fields, ve.Fields...)
	}

	seen := make(map[string]bool)
	for i, m := range cat.Materials {
		if seen[m.ID] {
			out.add(fmt.Sprintf("materials[%d].id", i), fmt.Sprintf("duplicate material id %q", m.ID))
		}
		seen[m.ID] = true
		if m.EffectivePricing() == PricingSheet && m.SheetAreaM2() <= 0 {
			out.add(fmt.Sprintf("materials[%d]", i), "sheet pricing needs sheet_width_mm and sheet_height_mm")
		}
	}
	seen = make(map[string]bool)
	for i, h := range cat.Hardware {
		if seen[h.ID] {
			out.add(fmt.Sprintf("hardware[%d].id", i), fmt.Sprintf("duplicate hardware id %q", h.ID))
		}
		seen[h.ID] = true
	}

	if len(out.Fields) == 0 {
		return nil
	}
	return out
}
