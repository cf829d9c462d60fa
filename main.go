package main

import "github.com/theirongolddev/charterdesk/cmd"

func main() {
	cmd.Execute()
}
