package passwordless

import (
	"embed"
	"io/fs"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

//go:embed data/templates/emails
var emailTemplatesFS embed.FS

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// GetEmailTemplatesFS returns the email templates rooted at their directory
func GetEmailTemplatesFS() fs.FS {
	sub, err := fs.Sub(emailTemplatesFS, "data/templates/emails")
	if err != nil {
		panic(err)
	}
	return sub
}
