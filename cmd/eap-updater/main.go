package main

import "github.com/oshokin/eap-updater/cmd/eap-updater/cmd"

func main() {
	cmd.Execute()
}
