package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
)

type Config struct {
	DBPath        string
	MissionID     int64
	OutputFile    string
	MinConfidence float64
	ClassID       *int
	Classes       []string
	List          bool
}

func NewConfig() *Config {
	return &Config{
		OutputFile: "output_map.geojson",
	}
}

// NewConfigFromCLI parses the process command line
func NewConfigFromCLI() (*Config, error) {
	c, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		flag.Usage()
		return nil, err
	}
	return c, nil
}

func parseConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	c := NewConfig()

	var classID int
	var classes string
	fs.StringVar(&c.DBPath, "db", "", "Path to the mission database file")
	fs.Int64Var(&c.MissionID, "m", 1, "Mission ID")
	fs.StringVar(&c.OutputFile, "o", c.OutputFile, "Path to the output GeoJSON file")
	fs.Float64Var(&c.MinConfidence, "min-confidence", 0, "Exclude detections below this confidence")
	fs.IntVar(&classID, "class", -1, "Export only this class ID")
	fs.StringVar(&classes, "classes", "", "Comma separated class names, in class ID order")
	fs.BoolVar(&c.List, "list", false, "List missions stored in the database and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "class" {
			c.ClassID = &classID
		}
	})

	if classes != "" {
		for _, name := range strings.Split(classes, ",") {
			c.Classes = append(c.Classes, strings.TrimSpace(name))
		}
	}

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.List {
		return c, nil
	} else if c.MissionID <= 0 {
		err = errors.New("mission id is required")
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if c.MinConfidence < 0 || c.MinConfidence > 1 {
		err = fmt.Errorf("invalid min confidence: %g", c.MinConfidence)
	} else if c.ClassID != nil && *c.ClassID < 0 {
		err = fmt.Errorf("invalid class id: %d", *c.ClassID)
	}

	if err != nil {
		return nil, err
	}
	return c, nil
}
