// README: Ride intake: request validation and synthesis of a new ride.
package ride

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"quickride/internal/format"
	"quickride/internal/types"
)

const (
	osNumberBase  = 10000000
	osNumberSpan  = 90000000
	minInitialKm  = 2.5
	initialKmSpan = 3.0
)

type CreateCommand struct {
	Destination       string      `json:"destination" validate:"required"`
	PassengerName     string      `json:"passenger_name" validate:"required"`
	PassengerCPF      string      `json:"passenger_cpf" validate:"required,cpf"`
	PassengerWhatsapp string      `json:"passenger_whatsapp" validate:"required,whatsapp"`
	Category          Category    `json:"category" validate:"required,category"`
	Driver            *DriverInfo `json:"driver"`
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError lists every field that failed intake checks. It matches
// ErrInvalidRideParameters under errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Rule)
	}
	return ErrInvalidRideParameters.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRideParameters
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "cpf", func(fl validator.FieldLevel) bool {
		return format.ValidCPF(fl.Field().String())
	})
	mustRegister(v, "whatsapp", func(fl validator.FieldLevel) bool {
		return format.ValidPhone(fl.Field().String())
	})
	mustRegister(v, "category", func(fl validator.FieldLevel) bool {
		return Category(fl.Field().String()).Valid()
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validator: %v", tag, err))
	}
}

// normalize trims free text so whitespace-only values fail "required".
// Category is an enum and is checked exactly as sent.
func (c CreateCommand) normalize() CreateCommand {
	c.Destination = strings.TrimSpace(c.Destination)
	c.PassengerName = strings.TrimSpace(c.PassengerName)
	c.PassengerCPF = strings.TrimSpace(c.PassengerCPF)
	c.PassengerWhatsapp = strings.TrimSpace(c.PassengerWhatsapp)
	if d := c.Driver; d != nil {
		trimmed := *d
		trimmed.Name = strings.TrimSpace(d.Name)
		trimmed.Vehicle = strings.TrimSpace(d.Vehicle)
		trimmed.Plate = strings.TrimSpace(d.Plate)
		c.Driver = &trimmed
	}
	return c
}

// Validate reports every invalid field at once.
func (c CreateCommand) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fieldPath(fe), Rule: fe.Tag()})
	}
	return out
}

// fieldPath drops the struct name from the namespace, so nested driver
// fields read "driver.rating".
func fieldPath(fe validator.FieldError) string {
	_, path, ok := strings.Cut(fe.Namespace(), ".")
	if !ok {
		return fe.Field()
	}
	return path
}

// build synthesizes a fresh ride from a validated command. It draws from the
// service rng, so it must run inside a loop step.
func (s *Service) build(cmd CreateCommand, now time.Time) *Ride {
	driver := pickDriver(s.rng, cmd.Category)
	if cmd.Driver != nil {
		driver = *cmd.Driver
	}
	distance := minInitialKm + s.rng.Float64()*initialKmSpan
	return &Ride{
		ID:                types.NewID(),
		OSNumber:          strconv.Itoa(osNumberBase + s.rng.IntN(osNumberSpan)),
		PassengerName:     cmd.PassengerName,
		PassengerCPF:      format.MaskHiddenCPF(cmd.PassengerCPF),
		PassengerWhatsapp: format.MaskPhone(cmd.PassengerWhatsapp),
		Destination:       cmd.Destination,
		Category:          cmd.Category,
		Status:            StatusWaiting,
		Driver:            &driver,
		DistanceKm:        &distance,
		Messages:          []ChatMessage{},
		CreatedAt:         now,
	}
}
