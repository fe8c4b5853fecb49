// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/xtaci/sivmap/internal/mapformat"
	"github.com/xtaci/sivmap/internal/parallel"
	"github.com/xtaci/sivmap/internal/ramarch"
	"github.com/xtaci/sivmap/internal/ramfile"
	"github.com/xtaci/sivmap/internal/rlog"
)

// VERSION is injected by buildflags.
var VERSION = "SELFBUILD"

func main() {
	myApp := cli.NewApp()
	myApp.Name = "sivmap"
	myApp.Usage = "FPGA logical-to-physical RAM mapper"
	myApp.Version = VERSION
	myApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "lb",
			Value: "logic_block_count.txt",
			Usage: "logic-block-count input file",
		},
		cli.StringFlag{
			Name:  "lr",
			Value: "logical_rams.txt",
			Usage: "logical-RAM input file",
		},
		cli.StringFlag{
			Name:  "out",
			Value: "mapping.txt",
			Usage: "mapping output file",
		},
		cli.StringFlag{
			Name:  "arch",
			Value: ramarch.DefaultDescriptor,
			Usage: "architecture descriptor string, see internal/ramarch.ParseDescriptor",
		},
		cli.StringFlag{
			Name:  "arch-file",
			Usage: "read the architecture descriptor from this file instead of --arch",
		},
		cli.IntFlag{
			Name:  "workers",
			Value: runtime.NumCPU(),
			Usage: "number of circuits solved concurrently",
		},
		cli.Int64Flag{
			Name:  "seed",
			Usage: "base RNG seed; 0 derives one from the current time",
		},
		cli.BoolFlag{
			Name:  "no-area-report",
			Usage: "suppress the final per-circuit area report",
		},
		cli.BoolFlag{
			Name:  "quiet, q",
			Usage: "log errors only",
		},
		cli.IntFlag{
			Name:  "verbose, v",
			Usage: "log verbosity: 1 for info, 2 or more for debug",
		},
		cli.StringFlag{
			Name:  "log",
			Usage: "redirect log output to this file instead of stderr",
		},
	}
	myApp.Action = run

	if err := myApp.Run(os.Args); err != nil {
		rlog.Fatal(err)
	}
}

func run(c *cli.Context) error {
	level := rlog.LevelFromVerbosity(c.Int("verbose"), c.Bool("quiet"))
	out := os.Stderr
	if path := c.String("log"); path != "" {
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return errors.Wrap(err, "sivmap: opening log file")
		}
		defer f.Close()
		rlog.Init(level, f)
	} else {
		rlog.Init(level, out)
	}

	archs, err := loadArchs(c)
	if err != nil {
		return errors.Wrap(err, "sivmap: loading architecture descriptor")
	}
	rlog.Infof("architecture: %d ram archs, logic block ratio %v", len(archs.RamArchs), archs.LBArch)

	lbFile, err := os.Open(c.String("lb"))
	if err != nil {
		return errors.Wrap(err, "sivmap: opening logic-block-count file")
	}
	defer lbFile.Close()
	logicBlocks, err := ramfile.ParseLogicBlockCounts(lbFile)
	if err != nil {
		return err
	}

	lrFile, err := os.Open(c.String("lr"))
	if err != nil {
		return errors.Wrap(err, "sivmap: opening logical-RAM file")
	}
	defer lrFile.Close()
	circuits, err := ramfile.ParseLogicalRams(lrFile)
	if err != nil {
		return err
	}

	if err := ramfile.Merge(circuits, logicBlocks); err != nil {
		return err
	}
	rlog.Infof("loaded %d circuits", len(circuits))

	workers := c.Int("workers")
	if workers <= 0 {
		workers = 1
	}

	seed := c.Int64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rlog.Debugf("base seed: %d, workers: %d", seed, workers)

	acc, reports, err := parallel.SolveAll(context.Background(), archs, circuits, workers, seed)
	if err != nil {
		return errors.Wrap(err, "sivmap: solving")
	}

	outFile, err := os.Create(c.String("out"))
	if err != nil {
		return errors.Wrap(err, "sivmap: creating output file")
	}
	defer outFile.Close()
	if _, err := outFile.WriteString(mapformat.Format(acc)); err != nil {
		return errors.Wrap(err, "sivmap: writing output file")
	}

	if !c.Bool("no-area-report") {
		printAreaReport(reports)
	}
	return nil
}

func loadArchs(c *cli.Context) (*ramarch.Archs, error) {
	if path := c.String("arch-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "reading arch-file")
		}
		return ramarch.ParseDescriptor(string(data))
	}
	return ramarch.ParseDescriptor(c.String("arch"))
}

// printAreaReport renders one line per circuit plus a geomean summary,
// colorizing early-exit circuits ("fits in the logic block budget without
// a full anneal") in green.
func printAreaReport(reports []parallel.CircuitResult) {
	color.Cyan("=== Final Area Report ===")
	logSum := 0.0
	for _, r := range reports {
		final := r.Result.Level1.FinalArea
		if r.Result.Level2 != nil {
			final = r.Result.Level2.FinalArea
		}
		logSum += math.Log(float64(final))
		line := fmt.Sprintf("circuit %d: area %d", r.CircuitID, final)
		switch {
		case r.Result.Level1.EarlyExit || (r.Result.Level2 != nil && r.Result.Level2.EarlyExit):
			color.Green(line + " (early exit)")
		default:
			fmt.Println(line)
		}
	}
	if len(reports) > 0 {
		color.Cyan("geomean area: %.0f over %d circuits", math.Exp(logSum/float64(len(reports))), len(reports))
	}
}
