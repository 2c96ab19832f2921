package main

import "github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/cmd"

func main() {
	cmd.Execute()
}
