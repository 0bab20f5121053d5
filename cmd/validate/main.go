package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	eventsFile := flag.String("events", "", "JSON array of event payloads to replay on the world")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-events events.json] <story> <world.json>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}

	validator := &WorldValidator{out: os.Stdout}
	if err := validator.validateFile(flag.Arg(0), flag.Arg(1), *eventsFile); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("World file is valid!")
}
