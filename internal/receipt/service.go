package receipt

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Processor scores receipts and remembers their points.
type Processor struct {
	Store   Store
	Metrics *Metrics

	// NewID returns a fresh identifier. Defaults to a random UUID.
	NewID func() string
}

var validate = newValidator()

func NewProcessor(store Store, metrics *Metrics) *Processor {
	return &Processor{
		Store:   store,
		Metrics: metrics,
		NewID:   uuid.NewString,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Process validates r, scores it and stores the points under a new id.
func (p *Processor) Process(ctx context.Context, r Receipt) (string, Breakdown, error) {
	if err := Validate(r); err != nil {
		p.Metrics.rejected()
		return "", Breakdown{}, err
	}

	b := Calculate(r)
	id := p.newID()

	if err := p.Store.Put(ctx, id, b.Total()); err != nil {
		return "", Breakdown{}, err
	}

	p.Metrics.processed(b.Total())
	return id, b, nil
}

// Points returns the points stored for id, or ErrNotFound.
func (p *Processor) Points(ctx context.Context, id string) (int, error) {
	points, ok, err := p.Store.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if !ok {
		p.Metrics.lookup(false)
		return 0, ErrNotFound
	}
	p.Metrics.lookup(true)
	return points, nil
}

// Validate reports missing or empty required fields as a *ValidationError.
func Validate(r Receipt) error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Err: err}
	}

	problems := make([]FieldProblem, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		problems = append(problems, FieldProblem{Field: field, Rule: fe.Tag()})
	}
	return &ValidationError{Problems: problems}
}

func (p *Processor) newID() string {
	if p.NewID != nil {
		return p.NewID()
	}
	return uuid.NewString()
}
