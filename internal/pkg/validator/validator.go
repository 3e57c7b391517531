package validator

// Validator checks a struct and returns a field keyed error on failure.
type Validator interface {
	Validate(data any) error
}
