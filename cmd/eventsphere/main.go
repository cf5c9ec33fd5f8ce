// @title           EventSphere API
// @version         1.0
// @description     Event management backend: accounts, events, participants and notifications.
// @BasePath        /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import "github.com/eventsphere/eventsphere/cmd/eventsphere/cmd"

func main() {
	cmd.Execute()
}
