package main

import (
	cmd "github.com/redhat-openshift-ecosystem/e2e-notifier/cmd/notifier"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/data"
	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/assets"
)

func main() {
	assets.UpdateData(data.Templates)
	cmd.Execute()
}
