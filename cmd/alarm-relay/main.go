package main

import "bacnet-alarm-relay/cmd/alarm-relay/cmd"

func main() {
	cmd.Execute()
}
