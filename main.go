package main

import (
	cmd "github.com/redhat-openshift-ecosystem/ci-reporter/cmd/cireporter"
)

func main() {
	cmd.Execute()
}
