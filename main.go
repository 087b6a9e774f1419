package main

import "github.com/TorSatherley/ToteSys-ETL-pipeline/cmd"

func main() {
	cmd.Execute()
}
