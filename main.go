package main

import (
	"os"

	"github.com/tenantcrm/crm-authz/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
