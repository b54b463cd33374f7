package main

import "LiveChartBoard/internal/cmd"

func main() {
	cmd.Execute()
}
