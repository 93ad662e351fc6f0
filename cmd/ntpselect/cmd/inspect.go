/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/ntpcore/ntp"
	"github.com/facebook/ntpcore/selector"
)

func init() {
	RootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <fixture.json>",
	Short: "Replay a JSON fixture of packet exchanges and print the selection result",
	Long:  "Replay a JSON fixture of packet exchanges through a Selector and print a table of final peer state, like `ntpcheck peerstats` but fed from a file instead of a live association.",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ConfigureVerbosity()

		if err := inspectRun(args[0]); err != nil {
			log.Fatal(err)
		}
	},
}

func inspectRun(path string) error {
	fixture, err := LoadFixture(path)
	if err != nil {
		return err
	}

	system := ntp.SystemConfig{PrecisionExponent: -20, PollExponent: 6}
	s := selector.NewOpen(system)

	for _, exchange := range fixture.Exchanges {
		hdr, destination := exchange.Header()
		now := ntp.Timestamp(ntp.FromSeconds(fixture.Now))
		if _, err := s.UpdatePeer(exchange.Peer, now, hdr, destination); err != nil {
			return fmt.Errorf("replaying exchange for %q: %w", exchange.Peer, err)
		}
	}

	now := ntp.Timestamp(ntp.FromSeconds(fixture.Now))
	result := s.Select(now)

	printSelection(result)
	return nil
}

func printSelection(result selector.Result) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetColWidth(16)
	table.SetHeader([]string{
		"peer", "reachable", "stratum", "offset(s)", "delay(s)", "jitter(s)", "root dist(s)", "fit", "selected",
	})

	for id, p := range result.Peers {
		selectedCell := color.RedString("no")
		switch {
		case p.Selected:
			selectedCell = color.GreenString("yes")
		case p.Fit:
			selectedCell = color.YellowString("excluded")
		}
		table.Append([]string{
			id,
			fmt.Sprintf("%v", p.Reachable),
			fmt.Sprintf("%d", p.Stratum),
			fmt.Sprintf("%.6f", p.Statistics.Offset.ToSeconds()),
			fmt.Sprintf("%.6f", p.Statistics.Delay.ToSeconds()),
			fmt.Sprintf("%.6f", p.Statistics.JitterSeconds),
			fmt.Sprintf("%.6f", p.RootDistance.ToSeconds()),
			fmt.Sprintf("%v", p.Fit),
			selectedCell,
		})
	}
	table.Render()

	if result.OK {
		fmt.Printf("converged: allow=%d interval=[%.6f, %.6f]\n", result.Allow, result.Low.ToSeconds(), result.High.ToSeconds())
	} else {
		fmt.Println(color.RedString("no convergence: too many falsetickers or too few fit peers"))
	}
}
