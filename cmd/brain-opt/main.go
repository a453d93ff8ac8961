// This file is part of brain-opt - https://github.com/Dentosal/brain-opt
//
// Copyright 2025 The brain-opt Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Dentosal/brain-opt/abi"
	"github.com/Dentosal/brain-opt/compiler"
	"github.com/Dentosal/brain-opt/lang/bf"
	"github.com/Dentosal/brain-opt/vm"
)

var (
	outputPath   string
	assemblyPath string
	targetName   string
	verbosity    int
	quiet        bool
	interpret    bool
)

func logLevel() log.Level {
	if quiet {
		return log.ErrorLevel
	}
	switch verbosity {
	case 0:
		return log.WarnLevel
	case 1:
		return log.InfoLevel
	case 2:
		return log.DebugLevel
	default:
		return log.TraceLevel
	}
}

func pickTarget() (abi.ABI, error) {
	if targetName == "" {
		return abi.Default()
	}
	return abi.Parse(targetName)
}

// runInterpreter executes the source directly with stdin/stdout attached.
func runInterpreter(tokens []bf.Token) error {
	i, err := vm.New(vm.Input(os.Stdin), vm.Output(os.Stdout))
	if err != nil {
		return err
	}
	return i.Run(tokens)
}

func runCompiler(cmd *cobra.Command, args []string) error {
	log.SetLevel(logLevel())

	source, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrap(err, "read source")
	}
	tokens, err := bf.Parse(string(source))
	if err != nil {
		return err
	}

	if interpret {
		return runInterpreter(tokens)
	}

	target, err := pickTarget()
	if err != nil {
		return err
	}
	log.Infof("selected target ABI: %s", target)

	asm, link, err := compiler.CompileTokens(tokens, target)
	if err != nil {
		return err
	}

	if assemblyPath == "-" {
		fmt.Println(asm)
	} else if assemblyPath != "" {
		if err := os.WriteFile(assemblyPath, []byte(asm), 0o644); err != nil {
			return errors.Wrap(err, "write assembly")
		}
	}

	dir, err := os.MkdirTemp("", "brain-opt")
	if err != nil {
		return errors.Wrap(err, "create temp dir")
	}
	defer os.RemoveAll(dir)

	fileAsm := filepath.Join(dir, "input.asm")
	fileObj := filepath.Join(dir, "output.obj")
	if err := os.WriteFile(fileAsm, []byte(asm), 0o644); err != nil {
		return errors.Wrap(err, "write assembly")
	}

	nasm := exec.Command("nasm", "-f", link.ObjectFormat, "-o", fileObj, fileAsm)
	nasm.Stderr = os.Stderr
	log.Debugf("running %s", strings.Join(nasm.Args, " "))
	if err := nasm.Run(); err != nil {
		return errors.Wrap(err, "nasm failed")
	}

	out := outputPath
	if out == "" {
		log.Warn("no output file specified, discarding executable")
		out = filepath.Join(dir, "output")
	}

	linkArgs := append(append([]string{}, link.LinkerArgs...), "-o", out, fileObj)
	linker := exec.Command(link.LinkerCmd, linkArgs...)
	linker.Stderr = os.Stderr
	log.Debugf("running %s", strings.Join(linker.Args, " "))
	if err := linker.Run(); err != nil {
		return errors.Wrap(err, "linker failed")
	}
	return nil
}

func main() {
	cmd := &cobra.Command{
		Use:           "brain-opt <source>",
		Short:         "Optimizing Brainfuck to x86-64 compiler",
		Args:          cobra.ExactArgs(1),
		RunE:          runCompiler,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "executable output path")
	cmd.Flags().StringVarP(&assemblyPath, "assembly", "a", "", "save assembly code, give - to print to stdout")
	cmd.Flags().StringVarP(&targetName, "target", "t", "",
		"target ABI ("+strings.Join(abi.Variants(), "|")+"), defaults to the current OS")
	cmd.Flags().CountVarP(&verbosity, "verbose", "v", "verbose mode (-v, -vv, -vvv)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "quiet mode, no warnings")
	cmd.Flags().BoolVarP(&interpret, "interpret", "i", false, "run the source in the reference interpreter instead of compiling")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
