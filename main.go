package main

import "github.com/ValentinKolb/dShop/cmd"

func main() {
	cmd.Execute()
}
