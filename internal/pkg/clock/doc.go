// Package clock provides the time source used by business logic.
//
// Usecases take a Clocker instead of calling time.Now so expiry rules can be
// exercised at exact boundaries with Fake.
package clock
