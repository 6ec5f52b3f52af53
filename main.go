// Hm runs programs written in the hm language, a small line oriented scripting language.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fortio.org/cli"
	"fortio.org/log"
	"fortio.org/struct2env"
	"fortio.org/terminal"
	"hmlang.io/hm/program"
	"hmlang.io/hm/repl"
)

func main() {
	os.Exit(Main())
}

type Config struct {
	SourceFile  string
	HistoryFile string
}

var config = Config{}

// Set by the profiling build (see main_pprof.go).
var hookBefore, hookAfter func() int

func EnvHelp(w io.Writer) {
	res, _ := struct2env.StructToEnvVars(config)
	str := struct2env.ToShellWithPrefix("HM_", res, true)
	fmt.Fprintln(w, "# Hm environment variables:")
	fmt.Fprint(w, str)
}

func Main() int {
	commandFlag := flag.String("c", "", "inline `program` to run instead of a file")
	interactive := flag.Bool("i", false, "interactive mode (repl)")
	dump := flag.Bool("dump", false, "print the variables as yaml at the end of the run")
	panicOk := flag.Bool("panic", false, "Don't catch panic - only for development/debugging")
	const historyDefault = "~/.hm_history" // replaced by the actual home dir if not changed.
	cli.EnvHelpFuncs = append(cli.EnvHelpFuncs, EnvHelp)
	errs := struct2env.SetFromEnv("HM_", &config)
	if len(errs) > 0 {
		log.Errf("Error setting config from env: %v", errs)
	}
	defaultHistoryFile := historyDefault
	if config.HistoryFile != "" {
		defaultHistoryFile = config.HistoryFile
	}
	historyFile := flag.String("history", defaultHistoryFile, "history `file` to use")
	maxHistory := flag.Int("max-history", terminal.DefaultHistoryCapacity, "max history `size`, use 0 to disable.")
	cli.ArgsHelp = "*.hm files to run, or `-` for stdin, default " + program.DefaultFile
	cli.MaxArgs = -1
	cli.Main()
	histFile := *historyFile
	if histFile == historyDefault {
		homeDir, err := os.UserHomeDir()
		histFile = filepath.Join(homeDir, ".hm_history")
		if err != nil {
			log.Warnf("Couldn't get user home dir: %v", err)
			histFile = ""
		}
	}
	options := repl.Options{
		PanicOk:     *panicOk,
		HistoryFile: histFile,
		MaxHistory:  *maxHistory,
		Dump:        *dump,
	}
	if *commandFlag != "" {
		options.In = os.Stdin
		if err := repl.RunString(options, *commandFlag); err != nil {
			return log.FErrf("Error: %v", err)
		}
		return 0
	}
	if *interactive {
		log.Infof("hm %s - welcome!", cli.LongVersion)
		return repl.Interactive(options)
	}
	files := flag.Args()
	if len(files) == 0 {
		source := program.DefaultFile
		if config.SourceFile != "" {
			source = config.SourceFile
		}
		files = []string{source}
	}
	if hookBefore != nil {
		if ret := hookBefore(); ret != 0 {
			return ret
		}
	}
	for _, file := range files {
		var err error
		if file == "-" {
			err = repl.RunReader("stdin", os.Stdin, options)
		} else {
			err = repl.RunFile(file, options)
		}
		if err != nil {
			return log.FErrf("Error running %s: %v", file, err)
		}
	}
	log.Infof("All done")
	if hookAfter != nil {
		return hookAfter()
	}
	return 0
}
