package policyfraud

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/open-policy-agent/opa/rego"
)

const defaultQuery = "data.tileproof.fraud.deny"

// DefaultModule is the built-in fraud policy. Callers can replace it with
// their own rego as long as it populates data.tileproof.fraud.deny.
const DefaultModule = `package tileproof.fraud

deny[msg] {
	input.kind == "crop"
	input.crop.region.width <= 0
	msg := "crop region has non-positive width"
}

deny[msg] {
	input.kind == "crop"
	input.crop.region.height <= 0
	msg := "crop region has non-positive height"
}

deny[msg] {
	input.kind == "resize"
	input.resize.scale_x > 50
	msg := "resize scale_x implausibly large"
}

deny[msg] {
	input.kind == "resize"
	input.resize.scale_y > 50
	msg := "resize scale_y implausibly large"
}

deny[msg] {
	input.valid == false
	msg := "proof declares itself invalid"
}
`

// Engine evaluates a prepared rego query over proof documents. It is an
// optional extra gate in front of the hard-coded fraud checks.
type Engine struct {
	query rego.PreparedEvalQuery
}

func NewEngine(ctx context.Context, module string) (*Engine, error) {
	if module == "" {
		module = DefaultModule
	}
	r := rego.New(
		rego.Query(defaultQuery),
		rego.Module("fraud.rego", module),
	)
	prepared, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare fraud policy: %w", err)
	}
	return &Engine{query: prepared}, nil
}

// Deny returns the sorted deny messages the policy produced for the input
// document. An empty slice means the policy passed.
func (e *Engine) Deny(ctx context.Context, input any) ([]string, error) {
	if e == nil {
		return nil, errors.New("fraud policy engine is nil")
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return nil, nil
	}
	raw, ok := results[0].Expressions[0].Value.([]any)
	if !ok {
		return nil, errors.New("unexpected fraud policy result shape")
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		msg, ok := item.(string)
		if !ok {
			return nil, errors.New("fraud policy deny message is not a string")
		}
		out = append(out, msg)
	}
	sort.Strings(out)
	return out, nil
}
