// Package validator validates request structs through struct tags.
//
// Usecases depend on the Validator interface; V10Validator adapts
// go-playground/validator v10 with English messages and snake_case field keys.
package validator
