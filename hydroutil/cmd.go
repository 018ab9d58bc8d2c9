/*
Copyright © 2024 the Hydro authors.
This file is part of Hydro.

Hydro is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Hydro is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Hydro.  If not, see <http://www.gnu.org/licenses/>.
*/


// Package hydroutil holds the command-line interface to the Hydro codecs.
package hydroutil

import (
	"fmt"
	"os"

	"github.com/hydroarchive/hydro"
	"github.com/hydroarchive/hydro/formats"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to Hydro.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "from",
			usage: `
              from is the short name of the input format. It is detected
              from the input file name when empty.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), splitCmd.Flags()},
		},
		{
			name: "to",
			usage: `
              to is the short name of the output format. It is detected
              from the output file name when empty.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), splitCmd.Flags()},
		},
		{
			name: "aggregate",
			usage: `
              aggregate reads every input into a single file instead of
              one file per input. Only the NetCDF readers append rows.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "institution",
			usage: `
              institution is the short name of the institution writing
              files, e.g. SIO. It is part of Exchange file stamps.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "initials",
			usage: `
              initials are those of the person writing files, e.g. WHO.
              They follow the institution in Exchange file stamps.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "oxygen_method",
			usage: `
              oxygen_method is how bottle oxygen was analyzed, either
              "whole" or "aliquot". It selects the volume correction used
              when converting ML/L to UMOL/KG.`,
			defaultVal: "whole",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "registry_db",
			usage: `
              registry_db is a SQLite file caching the parameter table. It
              is created and filled from the built-in table when empty. The
              built-in table is used directly when registry_db is not set.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "oceansites_preset",
			usage: `
              oceansites_preset names the time series site written into
              OceanSITES files: BATS or HOT.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), splitCmd.Flags()},
		},
		{
			name: "oceansites_version",
			usage: `
              oceansites_version is the OceanSITES format version, 1.1 or 1.2.`,
			defaultVal: "1.2",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), splitCmd.Flags()},
		},
		{
			name: "log_level",
			usage: `
              log_level is the least severe level logged: debug, info,
              warning or error.`,
			shorthand:  "l",
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("HYDRO")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(formatsCmd)
	Root.AddCommand(convertCmd)
	Root.AddCommand(splitCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and configures logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("hydro: problem reading configuration file: %v", err)
		}
	}
	level, err := logrus.ParseLevel(Cfg.GetString("log_level"))
	if err != nil {
		return fmt.Errorf("hydro: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logrus.SetOutput(os.Stderr)
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "hydro",
	Short: "Convert hydrographic CTD and bottle data.",
	Long: `Hydro reads and writes hydrographic CTD and bottle data in the Exchange,
WOCE, NetCDF and OceanSITES formats and in zip archives of them.
Use the subcommands specified below to access the functionality.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'HYDRO_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of Hydro.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("Hydro v%s\n", hydro.Version)
	},
	DisableAutoGenTag: true,
}

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the supported formats",
	Long: `formats lists the short name of every supported format, the file name
extensions recognizing it and the directions it can be used in.`,
	Run: func(cmd *cobra.Command, args []string) {
		t := Table(formats.Options{})
		for _, name := range t.Names() {
			f, _ := t.Lookup(name)
			cmd.Printf("%-13s %-5s %-40s %v\n", name, directions(f), f.Description, f.Extensions)
		}
	},
	DisableAutoGenTag: true,
}

var convertCmd = &cobra.Command{
	Use:   "convert IN... OUT",
	Short: "Convert between formats",
	Long: `convert reads one or more input files and writes them in the output format.
Several casts written to a single-file format are merged into one file, and
a single file written to an archive format is split into one member per cast.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := formatOptions()
		if err != nil {
			return err
		}
		return Convert(Table(o), args[:len(args)-1], args[len(args)-1],
			Cfg.GetString("from"), Cfg.GetString("to"), Cfg.GetBool("aggregate"), o)
	},
	DisableAutoGenTag: true,
}

var splitCmd = &cobra.Command{
	Use:   "split IN OUTDIR",
	Short: "Split a file into one file per cast",
	Long: `split reads a file holding several casts, such as a bottle file, and writes
each cast to its own file in OUTDIR. Files are named by expedition code,
station and cast.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := formatOptions()
		if err != nil {
			return err
		}
		names, err := Split(Table(o), args[0], args[1], Cfg.GetString("from"), Cfg.GetString("to"), o)
		for _, n := range names {
			cmd.Println(n)
		}
		return err
	},
	DisableAutoGenTag: true,
}
