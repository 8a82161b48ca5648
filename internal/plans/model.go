// Package plans manages the catalog of prepaid recharge plans.
package plans

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rechargehub/rechargehub/internal/validate"
)

// ErrNotFound is returned when a plan does not exist.
var ErrNotFound = errors.New("plan not found")

// DefaultTalktime is stored when a plan is created without talktime.
const DefaultTalktime = "Unlimited"

// Operators lists the carriers a plan may belong to.
var Operators = []string{"Airtel", "Jio", "Vi", "BSNL"}

// ValidOperator reports whether op is one of Operators.
func ValidOperator(op string) bool {
	for _, known := range Operators {
		if op == known {
			return true
		}
	}
	return false
}

// Plan is one recharge offering.
type Plan struct {
	ID          string          `json:"id"`
	Operator    string          `json:"operator"`
	Name        string          `json:"planName"`
	Price       decimal.Decimal `json:"price"`
	Validity    string          `json:"validity"`
	Data        string          `json:"data"`
	Talktime    string          `json:"talktime"`
	Description string          `json:"description"`
	Active      bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// CreateInput is the admin request to add a plan. Active defaults to true.
type CreateInput struct {
	Operator    string          `json:"operator"`
	Name        string          `json:"planName"`
	Price       decimal.Decimal `json:"price"`
	Validity    string          `json:"validity"`
	Data        string          `json:"data"`
	Talktime    string          `json:"talktime"`
	Description string          `json:"description"`
	Active      *bool           `json:"isActive"`
}

// Validate checks required fields and the price floor.
func (in CreateInput) Validate() error {
	errs := &validate.Errors{}
	errs.Required("operator", in.Operator, "Operator is required")
	if strings.TrimSpace(in.Operator) != "" && !ValidOperator(strings.TrimSpace(in.Operator)) {
		errs.Add("operator", "Invalid operator")
	}
	errs.Required("planName", in.Name, "Plan name is required")
	errs.PositiveAmount("price", in.Price, "Price must be greater than 0")
	errs.Required("validity", in.Validity, "Validity is required")
	errs.Required("data", in.Data, "Data is required")
	return errs.Err()
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Operator    *string          `json:"operator"`
	Name        *string          `json:"planName"`
	Price       *decimal.Decimal `json:"price"`
	Validity    *string          `json:"validity"`
	Data        *string          `json:"data"`
	Talktime    *string          `json:"talktime"`
	Description *string          `json:"description"`
	Active      *bool            `json:"isActive"`
}

// apply returns p with the non-nil fields of in applied, or a validation
// error when a provided field is invalid.
func (in UpdateInput) apply(p Plan) (Plan, error) {
	errs := &validate.Errors{}
	if in.Operator != nil {
		op := strings.TrimSpace(*in.Operator)
		if !ValidOperator(op) {
			errs.Add("operator", "Invalid operator")
		}
		p.Operator = op
	}
	if in.Name != nil {
		errs.Required("planName", *in.Name, "Plan name is required")
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Price != nil {
		errs.PositiveAmount("price", *in.Price, "Price must be greater than 0")
		p.Price = in.Price.Round(2)
	}
	if in.Validity != nil {
		errs.Required("validity", *in.Validity, "Validity is required")
		p.Validity = strings.TrimSpace(*in.Validity)
	}
	if in.Data != nil {
		errs.Required("data", *in.Data, "Data is required")
		p.Data = strings.TrimSpace(*in.Data)
	}
	if in.Talktime != nil {
		p.Talktime = strings.TrimSpace(*in.Talktime)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	if err := errs.Err(); err != nil {
		return Plan{}, err
	}
	return p, nil
}
