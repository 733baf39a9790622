package main

import "jobcost/cmd"

func main() {
	cmd.Execute()
}
