package main

import (
	"os"

	"github.com/shandysiswandi/freightbite/cmd"
)

// @title           Freightbite API
// @version         1.0
// @description     Phone number sign-in with one-time codes, and freight request booking.
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
// @securityDefinitions.apikey  SessionCookie
// @in cookie
// @name session_token
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
