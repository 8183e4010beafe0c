// Command paratickd is a demonstration harness for package paratick: it
// brings up a configurable number of virtual CPUs, each pinned (best
// effort, Linux only) to a real core, and drives them through randomized
// idle/active transitions while logging tick and timekeeper-election
// activity. It exercises the core; it is not part of the core's contract.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/urfave/cli"

	"github.com/caladan-labs/paratick"
	"github.com/caladan-labs/paratick/faketick"
)

func main() {
	app := cli.NewApp()
	app.Name = "paratickd"
	app.Usage = "paratickd [options]"
	app.Description = "demonstration harness for the paratick tickless scheduler core"
	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "cpus",
			Usage: "number of virtual CPUs to bring up",
			Value: runtime.NumCPU(),
		},
		cli.DurationFlag{
			Name:  "duration",
			Usage: "how long to run the demo before shutting down",
			Value: 5 * time.Second,
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable debug-level tick tracing",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "paratickd:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	paratick.SetVerbose(c.Bool("verbose"))

	n := c.Int("cpus")
	set := faketick.NewSet()
	mgr := paratick.NewManager(set.Collaborators(), nil)
	if err := mgr.Init(n); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	paratick.NOTICE("bringing up %d virtual CPUs\n", n)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for cpu := 0; cpu < n; cpu++ {
		wg.Add(1)
		go runVCPU(mgr, cpu, stop, &wg)
	}

	time.Sleep(c.Duration("duration"))
	close(stop)
	wg.Wait()

	paratick.NOTICE("shutting down, final timekeeper cpu=%d\n", mgr.Timekeeper())
	return nil
}

// runVCPU is one virtual CPU's "idle loop": it pins itself to a real core
// where possible, then alternates between brief idle periods and bursts of
// simulated IRQ activity until stop is closed.
func runVCPU(mgr *paratick.Manager, cpu int, stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	pinToCPU(cpu)

	e := mgr.Engine(cpu)
	rnd := rand.New(rand.NewSource(int64(cpu) + 1))

	for {
		select {
		case <-stop:
			return
		default:
		}

		e.EnterIdle()
		e.StartIdle()
		time.Sleep(time.Duration(rnd.Intn(3)) * time.Millisecond)
		e.ExitIdle()

		mgr.DeliverIRQ(cpu, rnd.Intn(2) == 0)
		time.Sleep(time.Duration(rnd.Intn(5)) * time.Millisecond)
	}
}
