/*
Package factory provides JSON to Go contract conversion.

PURPOSE:
  Converts CCNL (collective labour agreement) templates into
  scheduling.Contract values. HR configures annual limits per agreement
  in JSON; the factory validates the template and stamps out a contract
  for each employee with zero usage.

JSON SCHEMA:
  {
    "ccnl": "commercio",
    "name": "CCNL Commercio e Terziario",
    "vacation_days": 26,
    "rol_hours": 72,
    "paid_sick_days": 180
  }

VALIDATION:
  Templates are checked with go-playground/validator. Field names in
  validation errors use the json tag, so messages match the payload.

USAGE:
  f := NewContractFactory()
  tmpl, err := f.ParseTemplate(jsonString)
  contract := f.NewContract(tmpl, companyID, employeeID)

  // or from a preset
  contract, err := f.FromPreset("commercio", companyID, employeeID)

SEE ALSO:
  - scheduling/types.go: Contract type definition
  - scheduling/quota.go: How approved absences draw from the limits
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/GiuseppeRudi/BizSync-sub002/generic"
	"github.com/GiuseppeRudi/BizSync-sub002/scheduling"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ContractTemplate is the JSON representation of a CCNL's annual limits.
type ContractTemplate struct {
	CCNL         string  `json:"ccnl" validate:"required,max=64"`
	Name         string  `json:"name" validate:"required"`
	VacationDays float64 `json:"vacation_days" validate:"gte=0,lte=366"`
	ROLHours     float64 `json:"rol_hours" validate:"gte=0,lte=2000"`
	PaidSickDays float64 `json:"paid_sick_days" validate:"gte=0,lte=366"`
}

// =============================================================================
// CONTRACT FACTORY
// =============================================================================

type ContractFactory struct {
	validate *validator.Validate
	presets  map[string]ContractTemplate
}

func NewContractFactory() *ContractFactory {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	presets := make(map[string]ContractTemplate, len(Presets))
	for _, p := range Presets {
		presets[p.CCNL] = p
	}
	return &ContractFactory{validate: v, presets: presets}
}

// ParseTemplate parses and validates a JSON template.
func (f *ContractFactory) ParseTemplate(jsonStr string) (ContractTemplate, error) {
	var tmpl ContractTemplate
	if err := json.Unmarshal([]byte(jsonStr), &tmpl); err != nil {
		return ContractTemplate{}, fmt.Errorf("failed to parse contract template JSON: %w", err)
	}
	if err := f.Validate(tmpl); err != nil {
		return ContractTemplate{}, err
	}
	return tmpl, nil
}

// Validate checks a template and reports the first failing field.
func (f *ContractFactory) Validate(tmpl ContractTemplate) error {
	err := f.validate.Struct(tmpl)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		if e.Tag() == "required" {
			return fmt.Errorf("%s is required: %w", e.Field(), generic.ErrNotApplicable)
		}
		return fmt.Errorf("%s is invalid (%s=%s): %w", e.Field(), e.Tag(), e.Param(), generic.ErrNotApplicable)
	}
	return fmt.Errorf("invalid contract template: %w", err)
}

// NewContract builds a contract with the template's limits and no usage.
func (f *ContractFactory) NewContract(tmpl ContractTemplate, companyID scheduling.CompanyID, employeeID scheduling.EmployeeID) scheduling.Contract {
	return scheduling.Contract{
		EmployeeID:        employeeID,
		CompanyID:         companyID,
		CCNL:              tmpl.CCNL,
		VacationDaysLimit: generic.NewAmount(tmpl.VacationDays, generic.UnitDays),
		ROLHoursLimit:     generic.NewAmount(tmpl.ROLHours, generic.UnitHours),
		PaidSickDaysLimit: generic.NewAmount(tmpl.PaidSickDays, generic.UnitDays),
		VacationDaysUsed:  generic.ZeroAmount(generic.UnitDays),
		ROLHoursUsed:      generic.ZeroAmount(generic.UnitHours),
		SickDaysUsed:      generic.ZeroAmount(generic.UnitDays),
	}
}

// FromPreset builds a contract from a named preset.
func (f *ContractFactory) FromPreset(ccnl string, companyID scheduling.CompanyID, employeeID scheduling.EmployeeID) (scheduling.Contract, error) {
	tmpl, ok := f.presets[ccnl]
	if !ok {
		return scheduling.Contract{}, fmt.Errorf("unknown CCNL preset %q: %w", ccnl, generic.ErrNotFound)
	}
	return f.NewContract(tmpl, companyID, employeeID), nil
}

// PresetNames lists available presets, sorted.
func (f *ContractFactory) PresetNames() []string {
	names := make([]string, 0, len(f.presets))
	for name := range f.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToTemplate extracts the limits of an existing contract.
func ToTemplate(c scheduling.Contract) ContractTemplate {
	vd, _ := c.VacationDaysLimit.Value.Float64()
	rh, _ := c.ROLHoursLimit.Value.Float64()
	sd, _ := c.PaidSickDaysLimit.Value.Float64()
	return ContractTemplate{
		CCNL:         c.CCNL,
		Name:         c.CCNL,
		VacationDays: vd,
		ROLHours:     rh,
		PaidSickDays: sd,
	}
}

// =============================================================================
// PRESETS
// =============================================================================

// Presets are the agreements most customers run on. Values are the
// full-time annual entitlements.
var Presets = []ContractTemplate{
	{CCNL: "commercio", Name: "CCNL Commercio e Terziario", VacationDays: 26, ROLHours: 72, PaidSickDays: 180},
	{CCNL: "turismo", Name: "CCNL Turismo e Pubblici Esercizi", VacationDays: 26, ROLHours: 72, PaidSickDays: 180},
	{CCNL: "metalmeccanico", Name: "CCNL Metalmeccanico Industria", VacationDays: 20, ROLHours: 104, PaidSickDays: 180},
	{CCNL: "multiservizi", Name: "CCNL Multiservizi", VacationDays: 26, ROLHours: 56, PaidSickDays: 180},
}
