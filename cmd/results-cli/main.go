package main

import "jntuh-results-backend/cmd/results-cli/cmd"

func main() {
	cmd.Execute()
}
