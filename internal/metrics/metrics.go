// Package metrics holds the application counters. Instruments degrade to
// no-ops when the meter provider is not configured.
package metrics

import (
	"github.com/ShubhamMishra2526/Travease-App/pkg/telemetry"
)

// App groups the business counters services record against.
type App struct {
	Signups        *telemetry.Counter
	Logins         *telemetry.Counter
	PasswordResets *telemetry.Counter
	Bookings       *telemetry.Counter
}

// New registers the application instruments.
func New() (*App, error) {
	signups, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name: "travease_signups_total", Description: "Completed signups"})
	if err != nil {
		return nil, err
	}
	logins, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name: "travease_logins_total", Description: "Successful logins"})
	if err != nil {
		return nil, err
	}
	resets, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name: "travease_password_resets_total", Description: "Completed password resets"})
	if err != nil {
		return nil, err
	}
	bookings, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name: "travease_bookings_total", Description: "Bookings created"})
	if err != nil {
		return nil, err
	}
	return &App{
		Signups:        signups,
		Logins:         logins,
		PasswordResets: resets,
		Bookings:       bookings,
	}, nil
}
