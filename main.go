package main

import "party-radar-backend/cmd"

func main() {
	cmd.Run()
}
