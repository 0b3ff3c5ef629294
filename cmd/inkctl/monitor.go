package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/danmuck/inkctl/internal/monitor"
)

func runMonitor(ctx context.Context, cfg clientConfig, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("monitor", flag.ContinueOnError)
	fs.SetOutput(out)
	interval := fs.Duration("interval", cfg.MonitorInterval, "poll interval")
	listen := fs.String("listen", cfg.MonitorListen, "status feed address; empty disables it")
	once := fs.Bool("once", false, "poll once and print the snapshot")
	if err := fs.Parse(args); err != nil {
		return err
	}

	conn, client, err := dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	if *once {
		return printJSON(out, monitor.NewPoller(client, *interval).Poll(ctx))
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sinks := []monitor.Sink{printSnapshot(out)}
	feedErr := make(chan error, 1)
	if *listen != "" {
		feed := monitor.NewFeed(cfg.CorsOrigins)
		sinks = append(sinks, feed.Publish)
		go func() { feedErr <- feed.Serve(runCtx, *listen) }()
	} else {
		feedErr <- nil
	}

	pollDone := make(chan error, 1)
	go func() { pollDone <- monitor.NewPoller(client, *interval, sinks...).Run(runCtx) }()

	// whichever side ends first stops the other
	select {
	case err := <-pollDone:
		cancel()
		return errors.Join(err, <-feedErr)
	case err := <-feedErr:
		cancel()
		return errors.Join(err, <-pollDone)
	}
}

func printSnapshot(out io.Writer) monitor.Sink {
	return func(s monitor.Snapshot) {
		stamp := s.Time.Format(time.DateTime)
		if s.Error != "" {
			fmt.Fprintf(out, "[%s] #%d %s: %s\n", stamp, s.Seq, s.Outcome, s.Error)
			return
		}
		if !s.Printing() {
			fmt.Fprintf(out, "[%s] #%d state=%s\n", stamp, s.Seq, s.State)
			return
		}
		fmt.Fprintf(out, "[%s] #%d state=%s message=%q id=%d output=%d ink=%.2f\n",
			stamp, s.Seq, s.State, s.DataName, s.DataID, s.Output, s.InkUsed)
		for _, src := range s.Sources {
			alarm := ""
			if src.Alarm != nil && *src.Alarm {
				alarm = " ALARM"
			}
			fmt.Fprintf(out, "    [%s] %s (%d): %s%s\n", src.Type, src.Name, src.ID, src.Content, alarm)
		}
	}
}
