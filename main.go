package main

import "github.com/shaharia-lab/pagedesk/cmd"

func main() {
	cmd.Execute()
}
