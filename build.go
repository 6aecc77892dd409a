//go:build ignore

package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// target is a board family that exposes SPI chip selects as /dev/spidev*.
type target struct {
	goarch string
	goarm  string
	boards string
	sbc    bool
}

var targets = []target{
	{goarch: "arm", goarm: "6", boards: "Raspberry Pi 1, Zero, Zero W", sbc: true},
	{goarch: "arm", goarm: "7", boards: "Raspberry Pi 2, 3 (32-bit OS)", sbc: true},
	{goarch: "arm64", boards: "Raspberry Pi 3, 4, 5, Zero 2 W (64-bit OS)", sbc: true},
	{goarch: "amd64", boards: "x86 dev machines with USB-SPI bridges, ui work"},
}

func (t target) String() string {
	if t.goarm != "" {
		return fmt.Sprintf("linux-%s-v%s", t.goarch, t.goarm)
	}
	return fmt.Sprintf("linux-%s", t.goarch)
}

func (t target) env() []string {
	env := []string{"GOOS=linux", "GOARCH=" + t.goarch, "CGO_ENABLED=0"}
	if t.goarm != "" {
		env = append(env, "GOARM="+t.goarm)
	}
	return env
}

type options struct {
	project, output, basename string
	tags                      string
	race, strip               bool
}

type result struct {
	target         target
	binary         string
	stdout, stderr string
	err            error
}

func build(t target, opts options) result {
	binary := filepath.Join(opts.output, fmt.Sprintf("%s-%s", opts.basename, t))

	args := []string{"build", "-o", binary}
	if opts.tags != "" {
		args = append(args, "-tags", opts.tags)
	}
	if opts.race {
		args = append(args, "-race")
	}
	if opts.strip {
		args = append(args, "-trimpath", "-ldflags", "-s -w")
	}
	args = append(args, opts.project)

	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(), t.env()...)
	if opts.race {
		// race detector requires cgo
		cmd.Env = append(cmd.Env, "CGO_ENABLED=1")
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return result{target: t, binary: binary, stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// selectTargets resolves -platforms value, "sbc" selects every board family with spidev.
func selectTargets(selection string) ([]target, error) {
	var selected []target
	for _, name := range strings.Split(selection, ",") {
		name = strings.TrimSpace(name)
		switch name {
		case "all":
			return targets, nil
		case "sbc":
			for _, t := range targets {
				if t.sbc {
					selected = append(selected, t)
				}
			}
			continue
		}

		var found bool
		for _, t := range targets {
			if t.String() == name {
				selected = append(selected, t)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("target not found: %s", name)
		}
	}
	return selected, nil
}

func main() {
	var opts options
	var selection string
	var list bool

	flag.StringVar(&selection, "platforms", "sbc", "comma-separated targets, \"sbc\" for Raspberry Pi families, \"all\" for everything (see -list)")
	flag.BoolVar(&list, "list", false, "list available targets and exit")
	flag.StringVar(&opts.project, "project", "./cmd/joydrv/", "package to build")
	flag.StringVar(&opts.output, "output", "./builds", "output directory")
	flag.StringVar(&opts.basename, "base", "joydrv", "base filename for output binaries")
	flag.StringVar(&opts.tags, "tags", "", "comma-separated build tags")
	flag.BoolVar(&opts.race, "race", false, "include race detector (needs cgo toolchain for the target)")
	flag.BoolVar(&opts.strip, "strip", false, "strip debug information, smaller binaries for SD card deployments")
	flag.Parse()

	log.SetFlags(log.Ltime)

	if list {
		for _, t := range targets {
			fmt.Printf("%-16s %s\n", t, t.boards)
		}
		return
	}

	selected, err := selectTargets(selection)
	if err != nil {
		log.Printf("%s", err)
		os.Exit(1)
	}

	var names []string
	for _, t := range selected {
		names = append(names, t.String())
	}
	log.Printf("building %s for: %s", opts.project, strings.Join(names, ", "))

	results := make(chan result, len(selected))
	wg := sync.WaitGroup{}
	for _, t := range selected {
		wg.Add(1)
		go func(t target) {
			defer wg.Done()
			results <- build(t, opts)
		}(t)
	}
	wg.Wait()
	close(results)

	var failed []result
	for r := range results {
		if r.err != nil {
			log.Printf("%-16s failed: %v", r.target, r.err)
			failed = append(failed, r)
			continue
		}
		log.Printf("%-16s %s", r.target, r.binary)
	}

	for _, r := range failed {
		fmt.Printf("\n>>> Failed build: %s (%s)\n", r.target, r.target.boards)
		if r.stdout != "" {
			fmt.Printf("======== STDOUT ========\n%s========================\n", r.stdout)
		}
		if r.stderr != "" {
			fmt.Printf("======== STDERR ========\n%s========================\n", r.stderr)
		}
	}

	if len(failed) > 0 {
		os.Exit(1)
	}
}
