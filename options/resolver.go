// Package options turns an option definition into its concrete list
// of selectable choices, either from a fixed comma-separated list or
// by executing a SQL template against the option's country database.
package options

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"

	"formlink/model"
	"formlink/query"
)

// Executor runs a substituted template for one country. Satisfied by
// *query.Engine.
type Executor interface {
	Execute(ctx context.Context, countryID, template string, params map[string]any) (query.Result, error)
}

type Resolver struct {
	engine Executor
}

func NewResolver(engine Executor) *Resolver {
	return &Resolver{engine: engine}
}

// Resolve produces the choices for one option. Parameter values are
// gathered fresh from the sibling options on every call, so a changed
// sibling value, template or country only requires re-running.
//
// text/date options are untouched (nil). Fixed-value options never
// reach the database.
func (r *Resolver) Resolve(ctx context.Context, countryID string, opt model.Option, siblings []model.Option) ([]model.Choice, error) {
	if !opt.Kind.Selectable() {
		return nil, nil
	}

	if opt.SourceMode == model.SourceFixedValues {
		return SplitFixedValues(opt.RawValue), nil
	}

	if opt.SourceMode == model.SourceSQLTemplate && isSelect(opt.RawValue) {
		result, err := r.engine.Execute(ctx, countryID, opt.RawValue, GatherParams(siblings))
		if err != nil {
			return []model.Choice{}, err
		}
		return choicesFromRows(result.Rows), nil
	}

	return []model.Choice{}, nil
}

// ResolveQuestion resolves every option of a question concurrently
// and joins before returning. Results land in their option's slot, so
// the merged outcome does not depend on completion order. Individual
// failures leave that option with an empty list and are aggregated
// into the returned error.
func (r *Resolver) ResolveQuestion(ctx context.Context, countryID string, q *model.Question) error {
	choices := make([][]model.Choice, len(q.Options))
	failures := make([]error, len(q.Options))

	var wg sync.WaitGroup
	for i := range q.Options {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			choices[i], failures[i] = r.Resolve(ctx, countryID, q.Options[i], q.Options)
		}(i)
	}
	wg.Wait()

	var errs *multierror.Error
	for i := range q.Options {
		q.Options[i].Choices = choices[i]
		if failures[i] != nil {
			errs = multierror.Append(errs, failures[i])
		}
	}
	return errs.ErrorOrNil()
}

// SplitFixedValues derives choices from a comma-separated literal
// list: trimmed, empties dropped, each value doubling as name and
// code.
func SplitFixedValues(rawValue string) []model.Choice {
	parts := strings.Split(rawValue, ",")
	choices := make([]model.Choice, 0, len(parts))
	for _, part := range parts {
		v := strings.TrimSpace(part)
		if v == "" {
			continue
		}
		choices = append(choices, model.Choice{Name: v, Code: v})
	}
	return choices
}

// GatherParams collects the current values of every named sibling
// option, keyed by paramName. Options without a name or a value are
// skipped.
func GatherParams(siblings []model.Option) map[string]any {
	params := make(map[string]any, len(siblings))
	for _, opt := range siblings {
		if opt.ParamName == "" {
			continue
		}
		values := opt.SelectedValues()
		switch len(values) {
		case 0:
		case 1:
			params[opt.ParamName] = values[0]
		default:
			params[opt.ParamName] = values
		}
	}
	return params
}

func isSelect(rawValue string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(rawValue)), "select")
}

func choicesFromRows(rows []map[string]any) []model.Choice {
	choices := make([]model.Choice, 0, len(rows))
	for _, row := range rows {
		name := stringField(row, "name")
		if name == "" {
			name = "Unnamed"
		}
		choices = append(choices, model.Choice{Name: name, Code: stringField(row, "code")})
	}
	return choices
}

func stringField(row map[string]any, key string) string {
	v, ok := row[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
