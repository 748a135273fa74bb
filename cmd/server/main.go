package main

import "warcalendar/backend/cmd/server/cmd"

// @title           Warcalendar API
// @version         1.0
// @description     Calendar of holidays and anniversaries tagged with rewards and countries.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apiKey APIKeyAuth
// @in header
// @name X-API-Key
func main() {
	cmd.Execute()
}
