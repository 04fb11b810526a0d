package main

import "github.com/ShaktiCodes/plugin-powered-chat-hub/cmd"

func main() {
	cmd.Execute()
}
