// Command rookscript executes a compiled RookScript program.
//
// Usage:
//
//	rookscript <file> [switches] -- [script-args...]
//
// The file may be a binary program (.rsc, detected by magic) or text
// assembly. Everything after -- is handed to the script's entry point as a
// list when the entry declares a parameter.
//
// Exit codes: the script's return value cast to an integer (non-integers
// exit 0); 2 and 3 for argument errors; 4 for a bad file or depth; 5 for a
// missing entry point; 6 for an uncaught script execution error.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/naoina/toml"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/rookscript/rookscript/pkg/bytecode"
	"github.com/rookscript/rookscript/pkg/stdlib"
	"github.com/rookscript/rookscript/pkg/value"
	"github.com/rookscript/rookscript/pkg/vm"
)

const (
	exitOK            = 0
	exitBadSwitch     = 2
	exitBadSwitchArg  = 3
	exitBadFile       = 4
	exitEntryNotFound = 5
	exitScriptError   = 6
	exitInternal      = -1
)

// config is the executor configuration: a TOML file provides defaults,
// command-line switches override.
type config struct {
	Entry           string
	ActivationDepth int
	StackDepth      int
	RunawayLimit    int
	Verbose         bool
}

func defaultConfig() config {
	return config{
		Entry:           "main",
		ActivationDepth: 256,
		StackDepth:      2048,
	}
}

func loadConfig(file string, cfg *config) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewDecoder(bufio.NewReader(f)).Decode(cfg)
}

var errorPrint = color.New(color.FgRed)

func fatalf(code int, format string, args ...any) error {
	errorPrint.Fprintf(os.Stderr, format+"\n", args...)
	return cli.NewExitError("", code)
}

func main() {
	app := cli.NewApp()
	app.Name = "rookscript"
	app.Usage = "execute a compiled RookScript program"
	app.ArgsUsage = "<file> [--] [script-args...]"
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "entry", Value: "", Usage: "entry point to invoke (default \"main\")"},
		cli.IntFlag{Name: "activation-depth", Value: 0, Usage: "activation frame stack depth (default 256)"},
		cli.IntFlag{Name: "stack-depth", Value: 0, Usage: "operand value stack depth (default 2048)"},
		cli.IntFlag{Name: "runaway-limit", Value: 0, Usage: "command budget per update tick, 0 disables"},
		cli.StringFlag{Name: "config", Usage: "TOML configuration file"},
		cli.BoolFlag{Name: "disassemble", Usage: "print the program listing and exit"},
		cli.BoolFlag{Name: "verbose", Usage: "log each executed instruction"},
	}
	app.Action = run
	app.OnUsageError = func(ctx *cli.Context, err error, isSubcommand bool) error {
		return fatalf(exitBadSwitch, "%v", err)
	}
	if err := app.Run(os.Args); err != nil {
		if code, ok := err.(cli.ExitCoder); ok {
			os.Exit(code.ExitCode())
		}
		errorPrint.Fprintf(os.Stderr, "internal error: %v\n", err)
		os.Exit(exitInternal)
	}
}

func run(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) < 1 {
		cli.ShowAppHelp(ctx)
		return cli.NewExitError("", exitBadSwitch)
	}
	file := args[0]
	scriptArgs := args[1:]
	if len(scriptArgs) > 0 && scriptArgs[0] == "--" {
		scriptArgs = scriptArgs[1:]
	}

	cfg := defaultConfig()
	if path := ctx.String("config"); path != "" {
		if err := loadConfig(path, &cfg); err != nil {
			return fatalf(exitBadSwitchArg, "config: %v", err)
		}
	}
	if v := ctx.String("entry"); v != "" {
		cfg.Entry = v
	}
	if v := ctx.Int("activation-depth"); v != 0 {
		cfg.ActivationDepth = v
	}
	if v := ctx.Int("stack-depth"); v != 0 {
		cfg.StackDepth = v
	}
	if v := ctx.Int("runaway-limit"); v != 0 {
		cfg.RunawayLimit = v
	}
	if ctx.Bool("verbose") {
		cfg.Verbose = true
	}
	if cfg.ActivationDepth <= 0 || cfg.StackDepth <= 0 {
		return fatalf(exitBadFile, "stack depths must be positive")
	}

	program, err := loadProgram(file)
	if err != nil {
		return fatalf(exitBadFile, "%s: %v", file, err)
	}

	if ctx.Bool("disassemble") {
		disassemble(program)
		return nil
	}

	entry, ok := program.Entry(cfg.Entry)
	if !ok {
		return fatalf(exitEntryNotFound, "entry point %q not found (have: %v)", cfg.Entry, program.EntryNames())
	}

	opts := []vm.Option{
		vm.WithWaitHandler(&stdlib.ClockWaitHandler{}),
		vm.WithRunawayLimit(cfg.RunawayLimit),
	}
	if cfg.Verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return fatalf(exitInternal, "logger: %v", err)
		}
		defer logger.Sync()
		opts = append(opts, vm.WithLogger(logger))
	}

	stack := vm.NewInstanceStack(cfg.ActivationDepth, cfg.StackDepth)
	instance := vm.NewInstance(program, stack, stdlib.Resolver(), opts...)
	defer instance.Terminate()

	var callArgs []any
	if entry.ParameterCount > 0 {
		list := value.NewList()
		var v value.Value
		for _, a := range scriptArgs {
			v.SetString(a)
			list.Add(&v)
		}
		callArgs = append(callArgs, list)
	}
	if err := instance.Initialize(cfg.Entry, callArgs...); err != nil {
		return fatalf(exitScriptError, "%v", err)
	}

	// Drive the instance across ticks until it ends; WAITING states poll
	// through the clock wait handler.
	for {
		if err := instance.Update(); err != nil {
			return fatalf(exitScriptError, "%v", err)
		}
		switch instance.State() {
		case vm.StateEnded:
			var ret value.Value
			if stack.Depth() > 0 {
				instance.Pop(&ret)
			}
			if ret.Type() == value.TypeInteger {
				if code := int(ret.AsInt64()); code != 0 {
					return cli.NewExitError("", code)
				}
			}
			return nil
		case vm.StateWaiting:
			time.Sleep(time.Millisecond)
		case vm.StateSuspended:
			// Nothing will resume a batch run.
			return fatalf(exitScriptError, "script suspended with no resumer")
		}
	}
}

// loadProgram reads a binary program or, failing the magic sniff, text
// assembly.
func loadProgram(file string) (*bytecode.Program, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(data, []byte("RSCP")) {
		return bytecode.Decode(bytes.NewReader(data))
	}
	return bytecode.Assemble(bytes.NewReader(data))
}

// disassemble prints the program as an instruction table plus its entry
// tables.
func disassemble(p *bytecode.Program) {
	header := color.New(color.Bold)
	header.Println("entry points")
	entryTable := tablewriter.NewWriter(os.Stdout)
	entryTable.SetHeader([]string{"Name", "Params", "Index"})
	for _, name := range p.EntryNames() {
		e, _ := p.Entry(name)
		entryTable.Append([]string{e.Name, fmt.Sprint(e.ParameterCount), fmt.Sprint(e.Index)})
	}
	for _, name := range p.FunctionNames() {
		e, _ := p.Function(name)
		entryTable.Append([]string{e.Name + " (function)", fmt.Sprint(e.ParameterCount), fmt.Sprint(e.Index)})
	}
	entryTable.Render()

	header.Println("instructions")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Index", "Label", "Opcode", "Operands"})
	for i := 0; i < p.Len(); i++ {
		in := p.At(i)
		labels := ""
		for _, l := range p.LabelsAt(i) {
			if labels != "" {
				labels += " "
			}
			labels += l
		}
		operands := in.Operand1.String()
		if in.Operand2.Kind != bytecode.OperandNone {
			operands += ", " + in.Operand2.String()
		}
		table.Append([]string{fmt.Sprint(i), labels, in.Op.String(), operands})
	}
	table.Render()
}
