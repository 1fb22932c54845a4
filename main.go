package main

import "github.com/giftwell/edgegate/cmd"

func main() {
	cmd.Execute()
}
