// Package appfs embeds the static files of the application.
package appfs

import "embed"

//go:embed migrations/*.sql fixtures/*.json templates/email/* assets/*
var FS embed.FS

const (
	MigrationsDir     = "migrations"
	FixturesDir       = "fixtures"
	EmailTemplatesDir = "templates/email"
	CommonPasswords   = "assets/common-passwords.txt"
)
