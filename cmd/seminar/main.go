// Command seminar runs the seminar management API.
//
//	@title						Seminar System API
//	@version					1.0
//	@description				Seminar management: accounts, seminars and memberships.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the JWT.
package main

import (
	"os"

	"github.com/wafflestudio/seminar-system/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
